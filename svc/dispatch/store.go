package dispatch

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// TemplateStore provides read access to notification templates.
// Get returns ErrTemplateNotFound for unknown IDs.
type TemplateStore interface {
	ListActive(ctx context.Context, eventType string) ([]Template, error)
	Get(ctx context.Context, id string) (Template, error)
}

// RoleOracle answers "which addresses do holders of role have on ch".
type RoleOracle interface {
	AddressesForRole(ctx context.Context, role string, ch channel.Channel) ([]string, error)
}

// RoleOracleFunc adapts a function to RoleOracle.
type RoleOracleFunc func(ctx context.Context, role string, ch channel.Channel) ([]string, error)

func (f RoleOracleFunc) AddressesForRole(ctx context.Context, role string, ch channel.Channel) ([]string, error) {
	return f(ctx, role, ch)
}

// DeliveryLog is the append-only record of send attempts.
type DeliveryLog interface {
	Insert(ctx context.Context, entry LogEntry) error
}

// DeliveryHistory reads the delivery log of one business object, newest first.
type DeliveryHistory interface {
	ListByReference(ctx context.Context, refType, refID string) ([]LogEntry, error)
}

// SenderLookup finds the adapter for a channel. *channel.Registry implements it.
type SenderLookup interface {
	Lookup(ch channel.Channel) (channel.Sender, bool)
}
