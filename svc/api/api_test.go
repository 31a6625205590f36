package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/handler"
	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/requestid"
	"github.com/dmitrymomot/notifykit/svc/api"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

type fixture struct {
	router http.Handler
	log    *dispatch.MemoryDeliveryLog
	sent   []channel.Message
}

func newFixture(t *testing.T, opts ...api.Option) *fixture {
	t.Helper()

	f := &fixture{log: dispatch.NewMemoryDeliveryLog()}
	templates := dispatch.NewMemoryTemplateStore()
	require.NoError(t, templates.Put(dispatch.Template{
		ID:              "ticket-created",
		EventType:       "ticket_created",
		Channels:        []channel.Channel{channel.Email},
		SubjectTemplate: "Ticket {{ticket_number}}",
		BodyTemplate:    "Hello {{client_name}}, ticket {{ticket_number}} is open.",
		SendToClient:    true,
		IsActive:        true,
	}))

	senders := channel.NewRegistry().MustRegister(channel.Email, channel.SenderFunc(
		func(_ context.Context, msg channel.Message) (channel.Receipt, error) {
			f.sent = append(f.sent, msg)
			if strings.HasSuffix(msg.Address, "@bounce.test") {
				return channel.Receipt{}, channel.ErrAddressInvalid
			}
			return channel.Receipt{ProviderReference: "pm-1"}, nil
		},
	))

	quiet := slog.New(slog.DiscardHandler)
	d := dispatch.New(templates, senders, f.log,
		dispatch.WithLogger(quiet),
		dispatch.WithMaxWorkers(1),
		dispatch.WithTestSendLogging(true),
	)
	f.router = api.NewRouter(d, append([]api.Option{
		api.WithLogger(quiet),
		api.WithDeliveryHistory(f.log),
	}, opts...)...)
	return f
}

func (f *fixture) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (T, *handler.ErrorDetail) {
	t.Helper()
	var env struct {
		Data  T                    `json:"data"`
		Error *handler.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data, env.Error
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.do(http.MethodPost, "/v1/dispatch", `{
		"event_type": "ticket_created",
		"payload": {"ticket_number": "42", "client_name": "Acme", "client_email": "a@acme.com"},
		"reference": {"type": "ticket", "id": "42"}
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestid.Header))

	res, errDetail := decode[dispatch.Result](t, w)
	require.Nil(t, errDetail)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, dispatch.StatusSent, res.Attempts[0].Status)
	assert.Equal(t, "a@acme.com", res.Attempts[0].Address)

	require.Len(t, f.sent, 1)
	assert.Equal(t, "Ticket 42", f.sent[0].Subject)
	assert.Equal(t, 1, f.log.Len())
}

func TestDispatch_NoMatchingTemplate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.do(http.MethodPost, "/v1/dispatch", `{"event_type": "invoice_paid"}`)

	require.Equal(t, http.StatusOK, w.Code)
	res, _ := decode[dispatch.Result](t, w)
	assert.Empty(t, res.Attempts)
	assert.Zero(t, res.Templates)
}

func TestDispatch_InvalidEventReportedInResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodPost, "/v1/dispatch", `{"payload": {}}`)
	require.Equal(t, http.StatusOK, w.Code)
	res, errDetail := decode[dispatch.Result](t, w)
	require.Nil(t, errDetail)
	assert.Empty(t, res.Attempts)
	assert.True(t, res.HasProblem(dispatch.ProblemInvalidEvent))
	assert.Zero(t, f.log.Len())

	w = f.do(http.MethodPost, "/v1/dispatch", `{"event_type": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestSend(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.do(http.MethodPost, "/v1/templates/test", `{
		"template_id": "ticket-created",
		"channel": "email",
		"recipient": "qa@agency.com",
		"variables": {"ticket_number": "7"}
	}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res, _ := decode[dispatch.TestResult](t, w)
	assert.True(t, res.Success)
	assert.Equal(t, "Ticket 7", res.Preview.Subject)
	assert.Equal(t, "Hello , ticket 7 is open.", res.Preview.Body)
	assert.Equal(t, []string{"client_name"}, res.MissingVariables)
	assert.Equal(t, "pm-1", res.ProviderReference)
}

func TestTestSend_ProviderFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.do(http.MethodPost, "/v1/templates/test",
		`{"template_id": "ticket-created", "channel": "email", "recipient": "x@bounce.test"}`)

	require.Equal(t, http.StatusOK, w.Code)
	res, _ := decode[dispatch.TestResult](t, w)
	assert.False(t, res.Success)
	assert.Equal(t, channel.ReasonAddressInvalid, res.Reason)
	assert.NotEmpty(t, res.Error)
}

func TestTestSend_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "missing fields",
			body:   `{"channel": "fax"}`,
			status: http.StatusUnprocessableEntity,
			code:   "validation_error",
		},
		{
			name:   "unknown template",
			body:   `{"template_id": "nope", "channel": "email", "recipient": "a@b.com"}`,
			status: http.StatusNotFound,
			code:   "template_not_found",
		},
		{
			name:   "channel without adapter",
			body:   `{"template_id": "ticket-created", "channel": "sms", "recipient": "+15550102030"}`,
			status: http.StatusUnprocessableEntity,
			code:   "channel_not_configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			w := f.do(http.MethodPost, "/v1/templates/test", tt.body)
			assert.Equal(t, tt.status, w.Code)
			_, errDetail := decode[any](t, w)
			require.NotNil(t, errDetail)
			assert.Equal(t, tt.code, errDetail.Code)
		})
	}
}

func TestDeliveries(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.do(http.MethodPost, "/v1/dispatch", `{
		"event_type": "ticket_created",
		"payload": {"ticket_number": "42", "client_email": "a@acme.com"},
		"reference": {"type": "ticket", "id": "42"}
	}`)

	w := f.do(http.MethodGet, "/v1/deliveries?reference_type=ticket&reference_id=42", "")
	require.Equal(t, http.StatusOK, w.Code)
	entries, _ := decode[[]dispatch.LogEntry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "a@acme.com", entries[0].Recipient)

	w = f.do(http.MethodGet, "/v1/deliveries?reference_type=ticket", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAuth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, api.WithAPIToken("s3cret"))
	body := `{"event_type": "invoice_paid"}`

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/v1/dispatch", body).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/v1/dispatch", body, "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/dispatch", body, "Authorization", "Bearer s3cret").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "").Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		api.WithHealthCheck("postgres", func(context.Context) error { return nil }),
		api.WithHealthCheck("kafka", func(context.Context) error { return errors.New("no brokers") }),
	)
	w := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no brokers")
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	w := f.do(http.MethodGet, "/v2/anything", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	_, errDetail := decode[any](t, w)
	require.NotNil(t, errDetail)
	assert.Equal(t, "not_found", errDetail.Code)

	w = f.do(http.MethodGet, "/v1/dispatch", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
