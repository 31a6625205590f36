package dispatch

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// Role is the reason a recipient receives a notification.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleClient   Role = "client"
	RoleAssigned Role = "assigned"
	RoleContact  Role = "contact"
	// RoleActor is the payload prefix of the event's originator.
	RoleActor Role = "actor"
)

// Addresses holds the per-transport addresses of one person.
type Addresses struct {
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	TelegramID string `json:"telegram_id,omitempty"`
}

// IsZero reports whether no address is set.
func (a Addresses) IsZero() bool {
	return a == Addresses{}
}

// For returns the address used on channel ch. Phones serve both SMS and
// WhatsApp.
func (a Addresses) For(ch channel.Channel) string {
	switch ch {
	case channel.Email:
		return a.Email
	case channel.SMS, channel.WhatsApp:
		return a.Phone
	case channel.Telegram:
		return a.TelegramID
	}
	return ""
}

// Merge fills the empty fields of a from b.
func (a Addresses) Merge(b Addresses) Addresses {
	if a.Email == "" {
		a.Email = b.Email
	}
	if a.Phone == "" {
		a.Phone = b.Phone
	}
	if a.TelegramID == "" {
		a.TelegramID = b.TelegramID
	}
	return a
}

// AddressesFromPayload reads "<role>_email", "<role>_phone" and
// "<role>_telegram_id" from payload.
func AddressesFromPayload(payload map[string]string, role Role) Addresses {
	prefix := string(role) + "_"
	return Addresses{
		Email:      strings.TrimSpace(payload[prefix+"email"]),
		Phone:      strings.TrimSpace(payload[prefix+"phone"]),
		TelegramID: strings.TrimSpace(payload[prefix+"telegram_id"]),
	}
}

// Recipient is a person the resolver decided to notify.
type Recipient struct {
	Role      Role
	Addresses Addresses
}

// Reference links a notification to the business object it is about.
type Reference struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// Event is a business occurrence handed to the dispatcher.
type Event struct {
	Type      string            `json:"event_type"`
	Payload   map[string]string `json:"payload"`
	Reference Reference         `json:"reference"`
	// Actor overrides the actor_* payload keys field by field.
	Actor Addresses `json:"actor,omitzero"`
}

// Validate checks that the event can be matched against templates.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Type) == "" {
		return fmt.Errorf("%w: event type is required", ErrInvalidEvent)
	}
	return nil
}

// ActorAddresses returns the explicit actor merged with the actor_* payload keys.
func (e Event) ActorAddresses() Addresses {
	return e.Actor.Merge(AddressesFromPayload(e.Payload, RoleActor))
}
