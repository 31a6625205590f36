package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/outbound"
)

// Sender implements channel.Sender over the Cloud API.
type Sender struct {
	client   *outbound.Client
	endpoint string
	cfg      Config
	breaker  *outbound.CircuitBreaker
}

// New creates a WhatsApp sender. A nil client gets a default outbound client.
func New(cfg Config, client *outbound.Client) (*Sender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: access token and phone number ID are required", ErrInvalidConfig)
	}
	if client == nil {
		client = outbound.NewClient()
	}
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = "https://graph.facebook.com/v20.0"
	}

	s := &Sender{
		client:   client,
		endpoint: fmt.Sprintf("%s/%s/messages", base, cfg.PhoneNumberID),
		cfg:      cfg,
	}
	if cfg.BreakerThreshold > 0 {
		s.breaker = outbound.NewCircuitBreaker(cfg.BreakerThreshold, 1, cfg.BreakerRecovery)
	}
	return s, nil
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url,omitempty"`
}

type messageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send delivers msg.Body to the phone number in msg.Address.
func (s *Sender) Send(ctx context.Context, msg channel.Message) (channel.Receipt, error) {
	if err := channel.ValidateMessage(msg); err != nil {
		return channel.Receipt{}, err
	}
	if !channel.ValidPhone(msg.Address) {
		return channel.Receipt{}, errors.Join(channel.ErrAddressInvalid, ErrInvalidPhone)
	}

	opts := []outbound.RequestOption{
		outbound.WithTimeout(s.cfg.Timeout),
		outbound.WithBearerToken(s.cfg.AccessToken),
	}
	if s.breaker != nil {
		opts = append(opts, outbound.WithCircuitBreaker(s.breaker))
	}

	// The Cloud API wants the number without the leading plus.
	to := strings.TrimPrefix(channel.NormalizePhone(msg.Address), "+")

	resp, err := s.client.PostJSON(ctx, s.endpoint, messageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: msg.Body, PreviewURL: s.cfg.PreviewURL},
	}, opts...)
	if err != nil {
		return channel.Receipt{}, outbound.Classify(err)
	}

	var out messageResponse
	if err := resp.Decode(&out); err != nil {
		return channel.Receipt{}, errors.Join(channel.ErrUnknown, ErrBadResponse, err)
	}
	if len(out.Messages) == 0 {
		return channel.Receipt{}, errors.Join(channel.ErrUnknown, fmt.Errorf("%w: no message id", ErrBadResponse))
	}
	return channel.Receipt{ProviderReference: out.Messages[0].ID}, nil
}
