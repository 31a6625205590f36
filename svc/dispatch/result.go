package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// Status is the outcome of one delivery attempt.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// LogEntry is one row of the delivery log.
type LogEntry struct {
	ID                string          `json:"id" bson:"_id"`
	TemplateID        string          `json:"template_id" bson:"template_id"`
	EventType         string          `json:"event_type" bson:"event_type"`
	Channel           channel.Channel `json:"channel" bson:"channel"`
	Recipient         string          `json:"recipient" bson:"recipient"`
	Subject           string          `json:"subject,omitempty" bson:"subject,omitempty"`
	Body              string          `json:"body" bson:"body"`
	Status            Status          `json:"status" bson:"status"`
	SentAt            *time.Time      `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	ErrorMessage      string          `json:"error_message,omitempty" bson:"error_message,omitempty"`
	ErrorCode         channel.Reason  `json:"error_code,omitempty" bson:"error_code,omitempty"`
	ProviderReference string          `json:"provider_reference,omitempty" bson:"provider_reference,omitempty"`
	ReferenceType     string          `json:"reference_type,omitempty" bson:"reference_type,omitempty"`
	ReferenceID       string          `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	IsTest            bool            `json:"is_test" bson:"is_test"`
	CreatedAt         time.Time       `json:"created_at" bson:"created_at"`
}

// Attempt is the outcome of one (template, channel, address) send.
type Attempt struct {
	TemplateID        string          `json:"template_id"`
	Channel           channel.Channel `json:"channel"`
	Address           string          `json:"address"`
	Status            Status          `json:"status"`
	Reason            channel.Reason  `json:"reason,omitempty"`
	Error             string          `json:"error,omitempty"`
	ProviderReference string          `json:"provider_reference,omitempty"`
	LogID             string          `json:"log_id,omitempty"`
	Duration          time.Duration   `json:"duration"`

	err error
}

// Err returns the failure wrapped with ErrDelivery, or nil for a sent attempt.
func (a Attempt) Err() error {
	return a.err
}

// SuppressedBySchedule is the Suppression reason for quiet hours.
var SuppressedBySchedule = strings.TrimPrefix(ErrSuppressed.Error(), "dispatch.")

// Suppression records a channel skipped because of quiet hours.
type Suppression struct {
	TemplateID string          `json:"template_id"`
	Channel    channel.Channel `json:"channel"`
	Recipients int             `json:"recipients"`
	Reason     string          `json:"reason"`
}

func newSuppression(templateID string, ch channel.Channel, recipients int) Suppression {
	return Suppression{TemplateID: templateID, Channel: ch, Recipients: recipients, Reason: SuppressedBySchedule}
}

// Err returns ErrSuppressed describing s. It is an indicator, not a failure.
func (s Suppression) Err() error {
	return fmt.Errorf("%w: template %s on %s", ErrSuppressed, s.TemplateID, s.Channel)
}

// ProblemKind classifies a non-delivery problem.
type ProblemKind string

const (
	ProblemConfiguration ProblemKind = "configuration"
	ProblemResolution    ProblemKind = "resolution"
	ProblemRender        ProblemKind = "render"
	ProblemInvalidEvent  ProblemKind = "invalid_event"
)

// Problem is something that went wrong outside a single send attempt.
type Problem struct {
	TemplateID string          `json:"template_id,omitempty"`
	Channel    channel.Channel `json:"channel,omitempty"`
	Kind       ProblemKind     `json:"kind"`
	Message    string          `json:"message"`
}

func newProblem(templateID string, ch channel.Channel, err error) Problem {
	kind := ProblemConfiguration
	switch {
	case errors.Is(err, ErrInvalidEvent):
		kind = ProblemInvalidEvent
	case errors.Is(err, ErrRender), errors.Is(err, ErrInvalidTemplate):
		kind = ProblemRender
	case errors.Is(err, ErrResolution):
		kind = ProblemResolution
	}
	return Problem{TemplateID: templateID, Channel: ch, Kind: kind, Message: errorMessage(err)}
}

// Result summarizes a dispatch.
type Result struct {
	EventType  string        `json:"event_type"`
	Reference  Reference     `json:"reference"`
	Templates  int           `json:"templates"`
	Attempts   []Attempt     `json:"attempts"`
	Suppressed []Suppression `json:"suppressed,omitempty"`
	Problems   []Problem     `json:"problems,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Sent counts successful attempts.
func (r Result) Sent() int {
	return r.count(StatusSent)
}

// Failed counts failed attempts.
func (r Result) Failed() int {
	return r.count(StatusFailed)
}

func (r Result) count(s Status) int {
	n := 0
	for _, a := range r.Attempts {
		if a.Status == s {
			n++
		}
	}
	return n
}

// HasProblem reports whether a problem of the given kind was recorded.
func (r Result) HasProblem(kind ProblemKind) bool {
	for _, p := range r.Problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// errorMessage flattens joined errors onto one line.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}
