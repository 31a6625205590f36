package dispatch_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/quiethours"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

func TestDispatch_AdminsNotifiedCreatorExcluded(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("ticket-admins")
	tmpl.SendToAdmins = true

	email := &recorder{}
	logs := dispatch.NewMemoryDeliveryLog()
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email),
		logs,
		dispatch.WithRoleOracle(agencyAdmins()),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent("creator@acme.com"))

	assert.Equal(t, 1, res.Templates)
	assert.Equal(t, 2, res.Sent())
	assert.Zero(t, res.Failed())
	assert.Empty(t, res.Problems)
	assert.ElementsMatch(t, []string{"x@agency.com", "y@agency.com"}, email.addresses())
	assert.NotContains(t, email.addresses(), "creator@acme.com")

	for _, msg := range email.messages() {
		assert.Equal(t, "Ticket #42 created", msg.Subject)
		assert.Equal(t, "New ticket 42 from Acme.", msg.Body)
	}

	entries := logs.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, dispatch.StatusSent, e.Status)
		assert.NotNil(t, e.SentAt)
		assert.Empty(t, e.ErrorMessage)
		assert.Equal(t, "ticket", e.ReferenceType)
		assert.Equal(t, "42", e.ReferenceID)
		assert.Equal(t, "ticket_created", e.EventType)
		assert.Equal(t, "ref-"+e.Recipient, e.ProviderReference)
		assert.False(t, e.IsTest)
	}
}

func TestDispatch_AdminReplyingNotifiesOnlyClient(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("ticket-client")
	tmpl.SendToClient = true

	email := &recorder{}
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email),
		dispatch.NewMemoryDeliveryLog(),
		dispatch.WithRoleOracle(agencyAdmins()),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent("x@agency.com"))

	assert.Equal(t, 1, res.Sent())
	assert.Equal(t, []string{"a@acme.com"}, email.addresses())
}

func TestDispatch_QuietHoursSuppressesEveryChannel(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("ticket-quiet")
	tmpl.Channels = []channel.Channel{channel.Email, channel.SMS}
	tmpl.SendToClient = true

	policy, err := quiethours.NewPolicy(true, "22:00", "08:00", time.UTC)
	require.NoError(t, err)

	email, sms := &recorder{}, &recorder{}
	logs := dispatch.NewMemoryDeliveryLog()
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email).MustRegister(channel.SMS, sms),
		logs,
		dispatch.WithQuietHours(policy),
		quietAt(23),
		testLogger,
	)

	ev := ticketEvent("creator@acme.com")
	ev.Payload["client_phone"] = "+15550102030"
	res := d.Dispatch(context.Background(), ev)

	assert.Zero(t, res.Sent())
	assert.Zero(t, res.Failed())
	assert.Empty(t, res.Attempts)
	assert.Equal(t, []dispatch.Suppression{
		{TemplateID: "ticket-quiet", Channel: channel.Email, Recipients: 1, Reason: dispatch.SuppressedBySchedule},
		{TemplateID: "ticket-quiet", Channel: channel.SMS, Recipients: 1, Reason: dispatch.SuppressedBySchedule},
	}, res.Suppressed)
	assert.Equal(t, "suppressed_by_schedule", dispatch.SuppressedBySchedule)
	assert.ErrorIs(t, res.Suppressed[0].Err(), dispatch.ErrSuppressed)
	assert.Zero(t, logs.Len())
	assert.Empty(t, email.addresses())
	assert.Empty(t, sms.addresses())
}

func TestDispatch_QuietHoursOutsideWindowAndUrgent(t *testing.T) {
	t.Parallel()

	policy, err := quiethours.NewPolicy(true, "22:00", "08:00", time.UTC)
	require.NoError(t, err)

	normal := ticketTemplate("normal")
	normal.SendToClient = true
	urgent := ticketTemplate("urgent")
	urgent.SendToClient = true
	urgent.Urgent = true

	t.Run("midday sends", func(t *testing.T) {
		email := &recorder{}
		d := dispatch.New(dispatch.NewMemoryTemplateStore(normal), channel.NewRegistry().MustRegister(channel.Email, email),
			dispatch.NewMemoryDeliveryLog(), dispatch.WithQuietHours(policy), quietAt(12), testLogger)

		res := d.Dispatch(context.Background(), ticketEvent(""))
		assert.Equal(t, 1, res.Sent())
		assert.Empty(t, res.Suppressed)
	})

	t.Run("urgent bypasses window", func(t *testing.T) {
		email := &recorder{}
		d := dispatch.New(dispatch.NewMemoryTemplateStore(normal, urgent), channel.NewRegistry().MustRegister(channel.Email, email),
			dispatch.NewMemoryDeliveryLog(), dispatch.WithQuietHours(policy), quietAt(3), testLogger)

		res := d.Dispatch(context.Background(), ticketEvent(""))
		assert.Equal(t, 1, res.Sent())
		require.Len(t, res.Attempts, 1)
		assert.Equal(t, "urgent", res.Attempts[0].TemplateID)
		require.Len(t, res.Suppressed, 1)
		assert.Equal(t, "normal", res.Suppressed[0].TemplateID)
	})
}

func TestDispatch_PartialFailureIsolation(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("ticket-admins")
	tmpl.SendToAdmins = true

	email := &recorder{fail: func(msg channel.Message) error {
		if msg.Address == "x@agency.com" {
			return errors.Join(channel.ErrProviderUnavailable, errors.New("smtp: 421 try later"))
		}
		return nil
	}}
	logs := dispatch.NewMemoryDeliveryLog()
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email),
		logs,
		dispatch.WithRoleOracle(agencyAdmins()),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent("creator@acme.com"))

	assert.Equal(t, 1, res.Sent())
	assert.Equal(t, 1, res.Failed())

	byAddr := map[string]dispatch.Attempt{}
	for _, a := range res.Attempts {
		byAddr[a.Address] = a
	}
	failed := byAddr["x@agency.com"]
	assert.Equal(t, dispatch.StatusFailed, failed.Status)
	assert.Equal(t, channel.ReasonProviderUnavailable, failed.Reason)
	assert.ErrorIs(t, failed.Err(), dispatch.ErrDelivery)
	assert.Empty(t, failed.ProviderReference)
	assert.NotContains(t, failed.Error, "\n")
	assert.Equal(t, dispatch.StatusSent, byAddr["y@agency.com"].Status)
	assert.NoError(t, byAddr["y@agency.com"].Err())

	entries := logs.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		if e.Recipient == "x@agency.com" {
			assert.Equal(t, dispatch.StatusFailed, e.Status)
			assert.Nil(t, e.SentAt)
			assert.Equal(t, channel.ReasonProviderUnavailable, e.ErrorCode)
			assert.Contains(t, e.ErrorMessage, "421")
		} else {
			assert.Equal(t, dispatch.StatusSent, e.Status)
		}
	}
}

func TestDispatch_AdapterPanicIsContained(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("t")
	tmpl.Channels = []channel.Channel{channel.Email, channel.Telegram}
	tmpl.SendToClient = true

	email := &recorder{}
	panicky := channel.SenderFunc(func(context.Context, channel.Message) (channel.Receipt, error) {
		panic("nil map write")
	})
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email).MustRegister(channel.Telegram, panicky),
		dispatch.NewMemoryDeliveryLog(),
		testLogger,
	)

	ev := ticketEvent("")
	ev.Payload["client_telegram_id"] = "1001"

	var res dispatch.Result
	require.NotPanics(t, func() { res = d.Dispatch(context.Background(), ev) })
	assert.Equal(t, 1, res.Sent())
	assert.Equal(t, 1, res.Failed())
}

func TestDispatch_NoTargetingFlagsWritesNothing(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("untargeted")

	email := &recorder{}
	logs := dispatch.NewMemoryDeliveryLog()
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email),
		logs,
		dispatch.WithRoleOracle(agencyAdmins()),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent("creator@acme.com"))
	assert.Equal(t, 1, res.Templates)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, res.Problems)
	assert.Zero(t, logs.Len())
}

func TestDispatch_NoTemplates(t *testing.T) {
	t.Parallel()

	inactive := ticketTemplate("inactive")
	inactive.IsActive = false
	inactive.SendToClient = true

	logs := dispatch.NewMemoryDeliveryLog()
	d := dispatch.New(dispatch.NewMemoryTemplateStore(inactive), channel.NewRegistry(), logs, testLogger)

	res := d.Dispatch(context.Background(), ticketEvent(""))
	assert.Zero(t, res.Templates)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, res.Problems)
	assert.Zero(t, logs.Len())
}

func TestDispatch_InvalidEvent(t *testing.T) {
	t.Parallel()

	d := dispatch.New(dispatch.NewMemoryTemplateStore(), channel.NewRegistry(), nil, testLogger)
	res := d.Dispatch(context.Background(), dispatch.Event{Type: "  "})
	assert.True(t, res.HasProblem(dispatch.ProblemInvalidEvent))
}

type failingStore struct{}

func (failingStore) ListActive(context.Context, string) ([]dispatch.Template, error) {
	return nil, errors.New("relation does not exist")
}

func (failingStore) Get(context.Context, string) (dispatch.Template, error) {
	return dispatch.Template{}, errors.New("relation does not exist")
}

func TestDispatch_TemplateStoreFailure(t *testing.T) {
	t.Parallel()

	d := dispatch.New(failingStore{}, channel.NewRegistry(), nil, testLogger)
	res := d.Dispatch(context.Background(), ticketEvent(""))
	assert.True(t, res.HasProblem(dispatch.ProblemConfiguration))
	assert.Empty(t, res.Attempts)
}

func TestDispatch_TemplateProblemsAreIsolated(t *testing.T) {
	t.Parallel()

	broken := ticketTemplate("a-broken")
	broken.BodyTemplate = "   "
	broken.SendToClient = true

	noAdapter := ticketTemplate("b-whatsapp")
	noAdapter.Channels = []channel.Channel{channel.WhatsApp, channel.Email}
	noAdapter.SendToClient = true

	email := &recorder{}
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(broken, noAdapter),
		channel.NewRegistry().MustRegister(channel.Email, email),
		dispatch.NewMemoryDeliveryLog(),
		testLogger,
	)

	ev := ticketEvent("")
	ev.Payload["client_phone"] = "+15550102030"
	res := d.Dispatch(context.Background(), ev)

	assert.Equal(t, 2, res.Templates)
	assert.Equal(t, 1, res.Sent())
	assert.Equal(t, []string{"a@acme.com"}, email.addresses())
	require.Len(t, res.Problems, 2)
	assert.Equal(t, dispatch.ProblemRender, res.Problems[0].Kind)
	assert.Equal(t, "a-broken", res.Problems[0].TemplateID)
	assert.Equal(t, dispatch.ProblemConfiguration, res.Problems[1].Kind)
	assert.Equal(t, channel.WhatsApp, res.Problems[1].Channel)
}

func TestDispatch_OracleDownStillNotifiesClient(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("t")
	tmpl.SendToAdmins = true
	tmpl.SendToClient = true

	email := &recorder{}
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email),
		dispatch.NewMemoryDeliveryLog(),
		dispatch.WithRoleOracle(dispatch.RoleOracleFunc(func(context.Context, string, channel.Channel) ([]string, error) {
			return nil, errors.New("auth service unreachable")
		})),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent(""))
	assert.Equal(t, 1, res.Sent())
	assert.Equal(t, []string{"a@acme.com"}, email.addresses())
	assert.True(t, res.HasProblem(dispatch.ProblemResolution))
}

func TestDispatch_TimeoutRecordsUnstartedAttempts(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("slow")
	tmpl.SendToAdmins = true
	tmpl.SendToClient = true

	email := &recorder{wait: 150 * time.Millisecond}
	logs := dispatch.NewMemoryDeliveryLog()
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email),
		logs,
		dispatch.WithRoleOracle(agencyAdmins()),
		dispatch.WithTimeout(50*time.Millisecond),
		dispatch.WithMaxWorkers(1),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent("creator@acme.com"))

	require.Len(t, res.Attempts, 3)
	assert.Equal(t, 1, res.Sent(), "the in-flight send completes on its own")
	assert.Equal(t, 2, res.Failed())
	for _, a := range res.Attempts[1:] {
		assert.Equal(t, channel.ReasonTimeout, a.Reason)
	}
	assert.Len(t, email.addresses(), 1)
	assert.Equal(t, 3, logs.Len())
}

func TestDispatch_SubjectOnlyForSubjectChannels(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("t")
	tmpl.Channels = []channel.Channel{channel.Email, channel.Telegram}
	tmpl.SendToClient = true

	email, tg := &recorder{}, &recorder{}
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email).MustRegister(channel.Telegram, tg),
		dispatch.NewMemoryDeliveryLog(),
		testLogger,
	)

	ev := ticketEvent("")
	ev.Payload["client_telegram_id"] = "1001"
	res := d.Dispatch(context.Background(), ev)
	require.Equal(t, 2, res.Sent())

	assert.Equal(t, "Ticket #42 created", email.messages()[0].Subject)
	assert.Empty(t, tg.messages()[0].Subject)
	assert.False(t, strings.ContainsAny(tg.messages()[0].Body, "{}"))
}

func TestDispatch_DuplicateChannelsSendOnce(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("ticket-admins")
	tmpl.Channels = []channel.Channel{channel.Email, channel.Email}
	tmpl.SendToAdmins = true

	email := &recorder{}
	logs := dispatch.NewMemoryDeliveryLog()
	d := dispatch.New(
		dispatch.NewMemoryTemplateStore(tmpl),
		channel.NewRegistry().MustRegister(channel.Email, email),
		logs,
		dispatch.WithRoleOracle(agencyAdmins()),
		testLogger,
	)

	res := d.Dispatch(context.Background(), ticketEvent("creator@acme.com"))

	assert.Empty(t, res.Problems)
	assert.Equal(t, 2, res.Sent())
	assert.ElementsMatch(t, []string{"x@agency.com", "y@agency.com"}, email.addresses())
	assert.Equal(t, 2, logs.Len())
}

type brokenLog struct{}

func (brokenLog) Insert(context.Context, dispatch.LogEntry) error {
	return errors.New("disk full")
}

func TestDispatch_LogFailureDoesNotAffectDelivery(t *testing.T) {
	t.Parallel()

	tmpl := ticketTemplate("t")
	tmpl.SendToClient = true

	email := &recorder{}
	d := dispatch.New(dispatch.NewMemoryTemplateStore(tmpl), channel.NewRegistry().MustRegister(channel.Email, email), brokenLog{}, testLogger)

	res := d.Dispatch(context.Background(), ticketEvent(""))
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, dispatch.StatusSent, res.Attempts[0].Status)
	assert.Empty(t, res.Attempts[0].LogID)
}
