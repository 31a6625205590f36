package dispatch_test

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

// recorder is a channel.Sender that remembers every message it got.
type recorder struct {
	mu   sync.Mutex
	msgs []channel.Message
	fail func(channel.Message) error
	wait time.Duration
}

func (r *recorder) Send(_ context.Context, msg channel.Message) (channel.Receipt, error) {
	if r.wait > 0 {
		time.Sleep(r.wait)
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()

	if r.fail != nil {
		if err := r.fail(msg); err != nil {
			return channel.Receipt{}, err
		}
	}
	return channel.Receipt{ProviderReference: "ref-" + msg.Address}, nil
}

func (r *recorder) addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Address)
	}
	return out
}

func (r *recorder) messages() []channel.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]channel.Message(nil), r.msgs...)
}

func ticketTemplate(id string) dispatch.Template {
	return dispatch.Template{
		ID:              id,
		EventType:       "ticket_created",
		Name:            "Ticket created",
		Channels:        []channel.Channel{channel.Email},
		SubjectTemplate: "Ticket #{{ticket_number}} created",
		BodyTemplate:    "New ticket {{ticket_number}} from {client_name}.",
		IsActive:        true,
	}
}

func agencyAdmins() *dispatch.MemoryRoleOracle {
	return dispatch.NewMemoryRoleOracle().
		Add(dispatch.RoleAdmin, dispatch.Addresses{Email: "x@agency.com", Phone: "+15550000001"}).
		Add(dispatch.RoleAdmin, dispatch.Addresses{Email: "y@agency.com"})
}

func ticketEvent(actorEmail string) dispatch.Event {
	return dispatch.Event{
		Type: "ticket_created",
		Payload: map[string]string{
			"ticket_number": "42",
			"client_name":   "Acme",
			"client_email":  "a@acme.com",
			"actor_email":   actorEmail,
		},
		Reference: dispatch.Reference{Type: "ticket", ID: "42"},
	}
}

func quietAt(hour int) dispatch.Option {
	return dispatch.WithClock(func() time.Time {
		return time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	})
}

var testLogger = dispatch.WithLogger(logger.Discard())
