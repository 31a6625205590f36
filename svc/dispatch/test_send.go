package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/placeholder"
)

// ReferenceTypeTestSend marks delivery log rows written by TestSend.
const ReferenceTypeTestSend = "test_send"

// TestRequest asks for one template to be rendered and sent to one address.
type TestRequest struct {
	TemplateID string            `json:"template_id"`
	Channel    channel.Channel   `json:"channel"`
	Address    string            `json:"recipient"`
	Variables  map[string]string `json:"variables"`
}

// Validate checks the request shape.
func (r TestRequest) Validate() error {
	var errs []error
	if strings.TrimSpace(r.TemplateID) == "" {
		errs = append(errs, errors.New("template_id is required"))
	}
	if !r.Channel.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", channel.ErrUnknownChannel, r.Channel))
	}
	if strings.TrimSpace(r.Address) == "" {
		errs = append(errs, channel.ErrEmptyAddress)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidRequest}, errs...)...)
	}
	return nil
}

// Preview is the rendered content of a test send.
type Preview struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// TestResult reports a test send.
type TestResult struct {
	Success           bool           `json:"success"`
	Preview           Preview        `json:"preview"`
	ProviderReference string         `json:"provider_reference,omitempty"`
	Error             string         `json:"error,omitempty"`
	Reason            channel.Reason `json:"reason,omitempty"`
	// MissingVariables lists placeholders the request gave no value for.
	MissingVariables []string `json:"missing_variables,omitempty"`
}

// TestSend renders a template against the supplied variables and sends it
// once to the given address, skipping matching, recipient resolution and
// quiet hours. Inactive templates can be tested.
//
// The returned error covers an invalid request, an unknown template or an
// unconfigured channel. An adapter failure is reported in TestResult.
func (d *Dispatcher) TestSend(ctx context.Context, req TestRequest) (TestResult, error) {
	if err := req.Validate(); err != nil {
		return TestResult{}, err
	}
	if d.templates == nil {
		return TestResult{}, fmt.Errorf("%w: no template store", ErrConfiguration)
	}

	tmpl, err := d.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return TestResult{}, err
	}

	sender, ok := d.lookup(req.Channel)
	if !ok {
		return TestResult{}, fmt.Errorf("%w: %w: %s", ErrConfiguration, channel.ErrNotConfigured, req.Channel)
	}

	vars := maps.Clone(req.Variables)
	if vars == nil {
		vars = map[string]string{}
	}

	msg := channel.Message{
		Address: strings.TrimSpace(req.Address),
		Body:    placeholder.Render(tmpl.BodyTemplate, vars),
	}
	missing := placeholder.Missing(tmpl.BodyTemplate, vars)
	if req.Channel.HasSubject() {
		msg.Subject = placeholder.Render(tmpl.SubjectTemplate, vars)
		for _, name := range placeholder.Missing(tmpl.SubjectTemplate, vars) {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
		}
	}

	receipt, sendErr := d.deliver(ctx, sender, msg)

	res := TestResult{
		Success:           sendErr == nil,
		Preview:           Preview{Subject: msg.Subject, Body: msg.Body},
		ProviderReference: receipt.ProviderReference,
		MissingVariables:  missing,
	}
	a := Attempt{TemplateID: tmpl.ID, Channel: req.Channel, Address: msg.Address, Status: StatusSent, ProviderReference: receipt.ProviderReference}
	if sendErr != nil {
		res.ProviderReference = ""
		res.Error = errorMessage(sendErr)
		res.Reason = channel.ReasonOf(sendErr)
		a.Status = StatusFailed
		a.Error = res.Error
		a.Reason = res.Reason
		a.ProviderReference = ""
	}

	if d.logTestSends {
		entry := d.entry(tmpl, req.Channel, msg, a)
		entry.IsTest = true
		entry.ReferenceType = ReferenceTypeTestSend
		entry.ReferenceID = tmpl.ID
		d.record(ctx, entry)
	}

	d.logger.LogAttrs(ctx, slog.LevelInfo, "test send",
		logger.TemplateID(tmpl.ID),
		logger.Channel(req.Channel),
		logger.Recipient(msg.Address),
		logger.Status(string(a.Status)),
		logger.Reason(string(res.Reason)),
		logger.Error(sendErr),
	)
	return res, nil
}
