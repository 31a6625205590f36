package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Postmark API error codes that matter for classification.
// See https://postmarkapp.com/developer/api/overview#error-codes.
const (
	postmarkBadToken          = 10
	postmarkInvalidEmail      = 300
	postmarkSenderNotVerified = 400
	postmarkAccountInactive   = 405
	postmarkInactiveRecipient = 406
	postmarkRateLimited       = 429
)

type postmarkClient struct {
	client *postmark.Client
	config Config
}

// NewPostmarkClient creates a Postmark-backed email sender.
func NewPostmarkClient(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if !ValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.SupportEmail != "" && !ValidAddress(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkClient{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// SendEmail implements EmailSender. Replies go to the support address when
// one is configured.
func (c *postmarkClient) SendEmail(ctx context.Context, params SendEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:          c.config.SenderEmail,
		ReplyTo:       c.config.SupportEmail,
		To:            params.SendTo,
		Subject:       params.Subject,
		Tag:           params.Tag,
		HTMLBody:      params.BodyHTML,
		TextBody:      params.BodyText,
		MessageStream: c.config.MessageStream,
		TrackOpens:    true,
	})
	if resp.ErrorCode > 0 {
		return "", errors.Join(
			ErrFailedToSendEmail,
			&PostmarkError{Code: int64(resp.ErrorCode), Message: resp.Message},
		)
	}
	if err != nil {
		return "", errors.Join(ErrFailedToSendEmail, err)
	}
	return resp.MessageID, nil
}

// PostmarkError is an error reported by the Postmark API.
type PostmarkError struct {
	Code    int64
	Message string
}

func (e *PostmarkError) Error() string {
	return fmt.Sprintf("postmark error: %d - %s", e.Code, e.Message)
}
