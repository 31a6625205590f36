package dispatch

import "errors"

var (
	// ErrConfiguration covers missing templates, adapters or backends.
	// It is informational; dispatch carries on with whatever is configured.
	ErrConfiguration = errors.New("dispatch.configuration")
	// ErrResolution is returned when some recipients could not be resolved.
	// The recipients that were resolved are still notified.
	ErrResolution = errors.New("dispatch.resolution_failed")
	// ErrRender marks a template that could not be rendered.
	ErrRender = errors.New("dispatch.render_failed")
	// ErrDelivery wraps adapter failures on individual attempts.
	ErrDelivery = errors.New("dispatch.delivery_failed")
	// ErrSuppressed marks notifications skipped because of quiet hours.
	// It is never returned as a failure.
	ErrSuppressed = errors.New("dispatch.suppressed_by_schedule")

	ErrTemplateNotFound = errors.New("dispatch.template_not_found")
	ErrInvalidEvent     = errors.New("dispatch.invalid_event")
	ErrInvalidRequest   = errors.New("dispatch.invalid_request")
	ErrInvalidTemplate  = errors.New("dispatch.invalid_template")
)
