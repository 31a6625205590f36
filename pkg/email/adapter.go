package email

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

// Adapter exposes an EmailSender as a channel.Sender.
type Adapter struct {
	sender EmailSender
	tag    string
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithTag sets the Postmark tag attached to every message.
func WithTag(tag string) AdapterOption {
	return func(a *Adapter) {
		a.tag = tag
	}
}

// NewAdapter wraps sender.
func NewAdapter(sender EmailSender, opts ...AdapterOption) *Adapter {
	a := &Adapter{sender: sender, tag: "notification"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send delivers msg. Plain-text bodies are escaped and line breaks preserved
// in the HTML part; bodies that already contain markup are sent as-is.
func (a *Adapter) Send(ctx context.Context, msg channel.Message) (channel.Receipt, error) {
	if err := channel.ValidateMessage(msg); err != nil {
		return channel.Receipt{}, err
	}
	if !ValidAddress(msg.Address) {
		return channel.Receipt{}, errors.Join(channel.ErrAddressInvalid, ErrInvalidParams)
	}

	subject := msg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = firstLine(msg.Body)
	}

	id, err := a.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   strings.TrimSpace(msg.Address),
		Subject:  subject,
		BodyHTML: toHTML(msg.Body),
		BodyText: msg.Body,
		Tag:      a.tag,
	})
	if err != nil {
		return channel.Receipt{}, classify(err)
	}
	return channel.Receipt{ProviderReference: id}, nil
}

func classify(err error) error {
	var pe *PostmarkError
	if errors.As(err, &pe) {
		switch pe.Code {
		case postmarkBadToken, postmarkAccountInactive, postmarkSenderNotVerified:
			return errors.Join(channel.ErrAuthenticationFailed, err)
		case postmarkInvalidEmail, postmarkInactiveRecipient:
			return errors.Join(channel.ErrAddressInvalid, err)
		case postmarkRateLimited:
			return errors.Join(channel.ErrRateLimited, err)
		}
		return errors.Join(channel.ErrUnknown, err)
	}

	switch {
	case errors.Is(err, ErrInvalidParams):
		return errors.Join(channel.ErrAddressInvalid, err)
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(channel.ErrTimeout, err)
	case errors.Is(err, ErrFailedToSendEmail):
		return errors.Join(channel.ErrProviderUnavailable, err)
	}
	return errors.Join(channel.ErrUnknown, err)
}

func toHTML(body string) string {
	if strings.Contains(body, "</") || strings.Contains(body, "<br") {
		return body
	}
	return strings.ReplaceAll(html.EscapeString(body), "\n", "<br>\n")
}

func firstLine(body string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	if len(line) > 78 {
		line = line[:78]
	}
	if line == "" {
		return "Notification"
	}
	return line
}
