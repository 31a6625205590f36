package channel

import (
	"context"
	"errors"
)

// Delivery error taxonomy. The engine treats all of them the same way (the
// attempt is logged as failed and not retried) but keeps the classification
// in the delivery log for operators.
var (
	ErrAddressInvalid       = errors.New("channel.address_invalid")
	ErrProviderUnavailable  = errors.New("channel.provider_unavailable")
	ErrAuthenticationFailed = errors.New("channel.authentication_failed")
	ErrRateLimited          = errors.New("channel.rate_limited")
	ErrTimeout              = errors.New("channel.timeout")
	ErrUnknown              = errors.New("channel.unknown")
)

var (
	ErrUnknownChannel  = errors.New("channel.unknown_channel")
	ErrNotConfigured   = errors.New("channel.not_configured")
	ErrEmptyAddress    = errors.New("channel.empty_address")
	ErrDuplicateSender = errors.New("channel.duplicate_sender")
)

// Reason is the stable, storable form of a taxonomy error.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonAddressInvalid       Reason = "address_invalid"
	ReasonProviderUnavailable  Reason = "provider_unavailable"
	ReasonAuthenticationFailed Reason = "authentication_failed"
	ReasonRateLimited          Reason = "rate_limited"
	ReasonTimeout              Reason = "timeout"
	ReasonUnknown              Reason = "unknown"
)

// ReasonOf classifies err. Errors that do not wrap a taxonomy error are
// reported as ReasonUnknown, except for context deadlines which map to
// ReasonTimeout.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrAddressInvalid), errors.Is(err, ErrEmptyAddress):
		return ReasonAddressInvalid
	case errors.Is(err, ErrAuthenticationFailed):
		return ReasonAuthenticationFailed
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, ErrProviderUnavailable):
		return ReasonProviderUnavailable
	default:
		return ReasonUnknown
	}
}
