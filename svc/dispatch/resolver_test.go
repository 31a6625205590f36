package dispatch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	payload := map[string]string{
		"client_email":         "a@acme.com",
		"client_phone":         "+1 555 010 2030",
		"assigned_email":       "X@Agency.com",
		"assigned_telegram_id": "777",
		"contact_email":        "c@acme.com",
	}

	tests := []struct {
		name  string
		tmpl  dispatch.Template
		actor dispatch.Addresses
		want  dispatch.Targets
	}{
		{
			name: "no targeting flags",
			tmpl: dispatch.Template{Channels: channel.All(), SendToAdmins: false},
			want: dispatch.Targets{},
		},
		{
			name: "admins only",
			tmpl: dispatch.Template{Channels: []channel.Channel{channel.Email}, SendToAdmins: true},
			want: dispatch.Targets{channel.Email: {"x@agency.com", "y@agency.com"}},
		},
		{
			name: "admins and assigned deduplicated case-insensitively",
			tmpl: dispatch.Template{Channels: []channel.Channel{channel.Email}, SendToAdmins: true, SendToAssigned: true},
			want: dispatch.Targets{channel.Email: {"x@agency.com", "y@agency.com"}},
		},
		{
			name: "client phone serves sms and whatsapp",
			tmpl: dispatch.Template{Channels: []channel.Channel{channel.SMS, channel.WhatsApp, channel.Telegram}, SendToClient: true},
			want: dispatch.Targets{
				channel.SMS:      {"+1 555 010 2030"},
				channel.WhatsApp: {"+1 555 010 2030"},
			},
		},
		{
			name: "assigned telegram",
			tmpl: dispatch.Template{Channels: []channel.Channel{channel.Telegram}, SendToAssigned: true},
			want: dispatch.Targets{channel.Telegram: {"777"}},
		},
		{
			name:  "actor excluded from every channel",
			tmpl:  dispatch.Template{Channels: []channel.Channel{channel.Email, channel.SMS}, SendToAdmins: true, SendToClient: true},
			actor: dispatch.Addresses{Email: " Y@agency.com", Phone: "+15550102030"},
			want:  dispatch.Targets{channel.Email: {"x@agency.com", "a@acme.com"}, channel.SMS: {"+15550000001"}},
		},
		{
			name:  "channel emptied by actor exclusion is dropped",
			tmpl:  dispatch.Template{Channels: []channel.Channel{channel.Email, channel.Telegram}, SendToContact: true},
			actor: dispatch.Addresses{Email: "c@acme.com"},
			want:  dispatch.Targets{},
		},
	}

	r := dispatch.NewResolver(agencyAdmins())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Resolve(context.Background(), tt.tmpl, payload, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_OracleFailureDegradesAdminsOnly(t *testing.T) {
	t.Parallel()

	oracle := dispatch.RoleOracleFunc(func(context.Context, string, channel.Channel) ([]string, error) {
		return nil, errors.New("connection refused")
	})
	tmpl := dispatch.Template{Channels: []channel.Channel{channel.Email}, SendToAdmins: true, SendToClient: true}

	got, err := dispatch.NewResolver(oracle).Resolve(context.Background(), tmpl, map[string]string{"client_email": "a@acme.com"}, dispatch.Addresses{})
	require.ErrorIs(t, err, dispatch.ErrResolution)
	assert.Equal(t, dispatch.Targets{channel.Email: {"a@acme.com"}}, got)
}

func TestResolver_NilOracle(t *testing.T) {
	t.Parallel()

	tmpl := dispatch.Template{Channels: []channel.Channel{channel.Email}, SendToAdmins: true}
	got, err := dispatch.NewResolver(nil).Resolve(context.Background(), tmpl, nil, dispatch.Addresses{})
	require.ErrorIs(t, err, dispatch.ErrResolution)
	assert.Empty(t, got)
}

func TestDispatcher_OracleMemoizedPerDispatch(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	admins := agencyAdmins()
	oracle := dispatch.RoleOracleFunc(func(ctx context.Context, role string, ch channel.Channel) ([]string, error) {
		calls.Add(1)
		return admins.AddressesForRole(ctx, role, ch)
	})

	t1 := ticketTemplate("t1")
	t1.SendToAdmins = true
	t2 := ticketTemplate("t2")
	t2.SendToAdmins = true

	email := &recorder{}
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(t1, t2),
		channel.NewRegistry().MustRegister(channel.Email, email),
		dispatch.NewMemoryDeliveryLog(),
		dispatch.WithRoleOracle(oracle),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent("creator@acme.com"))
	assert.Equal(t, 4, res.Sent())
	assert.Equal(t, int32(1), calls.Load())

	d.Dispatch(context.Background(), ticketEvent("creator@acme.com"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestEvent_ActorAddresses(t *testing.T) {
	t.Parallel()

	ev := dispatch.Event{
		Payload: map[string]string{"actor_email": "me@acme.com", "actor_phone": "+1555"},
		Actor:   dispatch.Addresses{Phone: "+1999"},
	}
	assert.Equal(t, dispatch.Addresses{Email: "me@acme.com", Phone: "+1999"}, ev.ActorAddresses())
}
