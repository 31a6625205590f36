package outbound

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

var (
	ErrInvalidURL       = errors.New("outbound.invalid_url")
	ErrInvalidPayload   = errors.New("outbound.invalid_payload")
	ErrCircuitOpen      = errors.New("outbound.circuit_open")
	ErrRequestFailed    = errors.New("outbound.request_failed")
	ErrRequestTimeout   = errors.New("outbound.request_timeout")
	ErrRetriesExhausted = errors.New("outbound.retries_exhausted")
)

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 if there is none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Classify wraps err with the channel taxonomy error that best describes it.
// It returns nil for a nil error.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	switch code := StatusCode(err); {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return errors.Join(channel.ErrAuthenticationFailed, err)
	case code == http.StatusTooManyRequests:
		return errors.Join(channel.ErrRateLimited, err)
	case code == http.StatusRequestTimeout:
		return errors.Join(channel.ErrTimeout, err)
	case code >= 400 && code < 500:
		return errors.Join(channel.ErrAddressInvalid, err)
	case code >= 500:
		return errors.Join(channel.ErrProviderUnavailable, err)
	}

	switch {
	case errors.Is(err, ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return errors.Join(channel.ErrTimeout, err)
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrRequestFailed):
		return errors.Join(channel.ErrProviderUnavailable, err)
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrInvalidPayload):
		return errors.Join(channel.ErrUnknown, err)
	}
	return errors.Join(channel.ErrUnknown, err)
}

// isPermanent reports whether retrying cannot change the outcome.
// 408, 425 and 429 are 4xx codes that may succeed later.
func isPermanent(statusCode int) bool {
	if statusCode < 400 || statusCode >= 500 {
		return false
	}
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
