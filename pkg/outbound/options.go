package outbound

import (
	"net/http"
	"time"
)

// Attempt describes one HTTP round trip, reported to an AttemptHook.
type Attempt struct {
	Number     int
	StatusCode int
	Duration   time.Duration
	Err        error
}

// AttemptHook observes every HTTP round trip, including retries.
type AttemptHook func(Attempt)

type requestOptions struct {
	timeout    time.Duration
	headers    map[string]string
	maxRetries int
	backoff    Backoff
	breaker    *CircuitBreaker
	onAttempt  AttemptHook
}

func defaultRequestOptions() *requestOptions {
	return &requestOptions{
		timeout: 10 * time.Second,
		headers: make(map[string]string),
		backoff: DefaultBackoff(),
	}
}

// RequestOption configures a single provider call.
type RequestOption func(*requestOptions)

// WithTimeout bounds each HTTP round trip. Default is 10 seconds.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHeader sets a request header. Empty keys or values are ignored.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithBearerToken sets the Authorization header.
func WithBearerToken(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithRetries enables up to n retries for temporary failures.
// Default is 0: the engine never retries a delivery by itself.
func WithRetries(n int, backoff Backoff) RequestOption {
	return func(o *requestOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
		if backoff != nil {
			o.backoff = backoff
		}
	}
}

// WithCircuitBreaker guards the call with cb.
func WithCircuitBreaker(cb *CircuitBreaker) RequestOption {
	return func(o *requestOptions) {
		o.breaker = cb
	}
}

// WithAttemptHook registers a callback invoked after every round trip.
func WithAttemptHook(h AttemptHook) RequestOption {
	return func(o *requestOptions) {
		o.onAttempt = h
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}
