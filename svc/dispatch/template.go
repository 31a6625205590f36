package dispatch

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// Template describes one notification sent for an event type.
type Template struct {
	ID              string            `json:"id" yaml:"id"`
	EventType       string            `json:"event_type" yaml:"event_type"`
	Name            string            `json:"name" yaml:"name"`
	Channels        []channel.Channel `json:"channels" yaml:"channels"`
	SubjectTemplate string            `json:"subject_template,omitempty" yaml:"subject_template"`
	BodyTemplate    string            `json:"body_template" yaml:"body_template"`
	SendToAdmins    bool              `json:"send_to_admins" yaml:"send_to_admins"`
	SendToClient    bool              `json:"send_to_client" yaml:"send_to_client"`
	SendToAssigned  bool              `json:"send_to_assigned" yaml:"send_to_assigned"`
	SendToContact   bool              `json:"send_to_contact" yaml:"send_to_contact"`
	IsActive        bool              `json:"is_active" yaml:"is_active"`
	// Urgent templates ignore quiet hours.
	Urgent    bool      `json:"urgent" yaml:"urgent"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Targeted reports whether any targeting flag is set.
func (t Template) Targeted() bool {
	return t.SendToAdmins || t.SendToClient || t.SendToAssigned || t.SendToContact
}

// DistinctChannels returns the template's channels without repeats, in
// their first-seen order.
func (t Template) DistinctChannels() []channel.Channel {
	out := make([]channel.Channel, 0, len(t.Channels))
	for _, ch := range t.Channels {
		if !slices.Contains(out, ch) {
			out = append(out, ch)
		}
	}
	return out
}

// NeedsSubject reports whether any of the template's channels carries a subject.
func (t Template) NeedsSubject() bool {
	return slices.ContainsFunc(t.Channels, channel.Channel.HasSubject)
}

// Validate checks the fields the engine relies on.
func (t Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.EventType) == "" {
		return fmt.Errorf("%w: event type is required", ErrInvalidTemplate)
	}
	if len(t.Channels) == 0 {
		return fmt.Errorf("%w: at least one channel is required", ErrInvalidTemplate)
	}
	for i, ch := range t.Channels {
		if !ch.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidTemplate, channel.ErrUnknownChannel, ch)
		}
		if slices.Contains(t.Channels[:i], ch) {
			return fmt.Errorf("%w: channel %q listed twice", ErrInvalidTemplate, ch)
		}
	}
	if strings.TrimSpace(t.BodyTemplate) == "" {
		return fmt.Errorf("%w: body template is required", ErrInvalidTemplate)
	}
	return nil
}
