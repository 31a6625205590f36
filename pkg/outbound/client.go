package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize limits how much of a provider response is read.
const maxBodySize = 64 * 1024

// Response is a successful (2xx) provider answer.
type Response struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

// Decode unmarshals the response body into v.
func (r Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty response body", ErrInvalidPayload)
	}
	return json.Unmarshal(r.Body, v)
}

// Client posts JSON to provider APIs. The zero value is not usable; use NewClient.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a client with a pooled transport.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "notifykit/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON marshals payload and POSTs it to endpoint.
// Non-2xx answers are returned as *StatusError. 4xx answers other than
// 408, 425 and 429 are never retried.
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload any, opts ...RequestOption) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, errors.Join(ErrInvalidPayload, err)
	}
	if err := validate(endpoint, body); err != nil {
		return Response{}, err
	}

	o := defaultRequestOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.breaker != nil && !o.breaker.Allow() {
		return Response{}, ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, errors.Join(lastErr, ctx.Err())
			case <-time.After(o.backoff.NextInterval(attempt)):
			}
		}

		resp, err := c.do(ctx, endpoint, body, o)
		if o.onAttempt != nil {
			o.onAttempt(Attempt{Number: attempt + 1, StatusCode: resp.StatusCode, Duration: resp.duration, Err: err})
		}
		if o.breaker != nil {
			if err == nil {
				o.breaker.RecordSuccess()
			} else {
				o.breaker.RecordFailure()
			}
		}

		if err == nil {
			return Response{StatusCode: resp.StatusCode, Body: resp.body, Attempts: attempt + 1}, nil
		}
		lastErr = err

		if isPermanent(resp.StatusCode) {
			return Response{}, err
		}
	}

	if o.maxRetries == 0 {
		return Response{}, lastErr
	}
	return Response{}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, o.maxRetries+1, lastErr)
}

type rawResponse struct {
	StatusCode int
	body       []byte
	duration   time.Duration
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte, o *requestOptions) (rawResponse, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return rawResponse{duration: time.Since(start)}, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		raw := rawResponse{duration: time.Since(start)}
		// url.Error repeats the endpoint, which may carry a provider token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return raw, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
		}
		return raw, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	raw := rawResponse{StatusCode: resp.StatusCode, body: data, duration: time.Since(start)}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &StatusError{StatusCode: resp.StatusCode, Body: sanitize(data)}
	}
	return raw, nil
}

func validate(endpoint string, body []byte) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	if len(body) == 0 || string(body) == "null" {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	return nil
}

// sanitize flattens a response body for error messages and log lines.
func sanitize(body []byte) string {
	s := strings.TrimSpace(strings.ReplaceAll(string(body), "\n", " "))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
