package channel

import (
	"context"
	"strings"
)

// Sender delivers one message to one address over a single transport.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) (Receipt, error)

func (f SenderFunc) Send(ctx context.Context, msg Message) (Receipt, error) {
	return f(ctx, msg)
}

// ValidateMessage rejects messages that no transport can deliver.
func ValidateMessage(msg Message) error {
	if strings.TrimSpace(msg.Address) == "" {
		return ErrEmptyAddress
	}
	return nil
}
