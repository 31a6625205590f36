package outbound_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/outbound"
)

func TestClient_PostJSON_Success(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	resp, err := outbound.NewClient().PostJSON(context.Background(), srv.URL, map[string]string{"to": "+100"},
		outbound.WithBearerToken("secret"),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "+100", gotBody["to"])

	var decoded struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.Decode(&decoded))
	assert.Equal(t, "msg-1", decoded.ID)
}

func TestClient_PostJSON_StatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: channel.ErrAuthenticationFailed},
		{name: "forbidden", status: http.StatusForbidden, want: channel.ErrAuthenticationFailed},
		{name: "rate limited", status: http.StatusTooManyRequests, want: channel.ErrRateLimited},
		{name: "bad request", status: http.StatusBadRequest, want: channel.ErrAddressInvalid},
		{name: "server error", status: http.StatusBadGateway, want: channel.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope\n"))
			}))
			defer srv.Close()

			_, err := outbound.NewClient().PostJSON(context.Background(), srv.URL, map[string]string{"a": "b"})
			require.Error(t, err)
			assert.Equal(t, tt.status, outbound.StatusCode(err))

			var se *outbound.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "nope", se.Body)

			assert.ErrorIs(t, outbound.Classify(err), tt.want)
		})
	}
}

func TestClient_PostJSON_RetriesTemporaryFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var attempts []outbound.Attempt
	resp, err := outbound.NewClient().PostJSON(context.Background(), srv.URL, map[string]int{"n": 1},
		outbound.WithRetries(3, outbound.FixedBackoff{Interval: time.Millisecond}),
		outbound.WithAttemptHook(func(a outbound.Attempt) { attempts = append(attempts, a) }),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, attempts, 3)
	assert.Equal(t, http.StatusServiceUnavailable, attempts[0].StatusCode)
	assert.NoError(t, attempts[2].Err)
}

func TestClient_PostJSON_DoesNotRetryPermanentFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := outbound.NewClient().PostJSON(context.Background(), srv.URL, map[string]int{"n": 1},
		outbound.WithRetries(3, outbound.FixedBackoff{Interval: time.Millisecond}),
	)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PostJSON_CircuitBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := outbound.NewCircuitBreaker(2, 1, time.Hour)
	client := outbound.NewClient()
	ctx := context.Background()

	for range 2 {
		_, err := client.PostJSON(ctx, srv.URL, map[string]int{"n": 1}, outbound.WithCircuitBreaker(cb))
		require.Error(t, err)
	}
	assert.Equal(t, outbound.CircuitOpen, cb.State())

	_, err := client.PostJSON(ctx, srv.URL, map[string]int{"n": 1}, outbound.WithCircuitBreaker(cb))
	require.ErrorIs(t, err, outbound.ErrCircuitOpen)
	assert.ErrorIs(t, outbound.Classify(err), channel.ErrProviderUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PostJSON_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := outbound.NewClient().PostJSON(context.Background(), srv.URL, map[string]int{"n": 1},
		outbound.WithTimeout(20*time.Millisecond),
	)
	require.ErrorIs(t, err, outbound.ErrRequestTimeout)
	assert.ErrorIs(t, outbound.Classify(err), channel.ErrTimeout)
}

func TestClient_PostJSON_InvalidInput(t *testing.T) {
	t.Parallel()

	client := outbound.NewClient()
	ctx := context.Background()

	_, err := client.PostJSON(ctx, "", map[string]int{"n": 1})
	require.ErrorIs(t, err, outbound.ErrInvalidURL)

	_, err = client.PostJSON(ctx, "ftp://example.com", map[string]int{"n": 1})
	require.ErrorIs(t, err, outbound.ErrInvalidURL)

	_, err = client.PostJSON(ctx, "https://example.com", nil)
	require.ErrorIs(t, err, outbound.ErrInvalidPayload)

	_, err = client.PostJSON(ctx, "https://example.com", func() {})
	require.ErrorIs(t, err, outbound.ErrInvalidPayload)
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, outbound.Classify(nil))
	assert.ErrorIs(t, outbound.Classify(errors.New("x")), channel.ErrUnknown)
}
