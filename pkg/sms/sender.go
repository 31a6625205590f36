package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/outbound"
)

// Sender implements channel.Sender for an SMS gateway.
type Sender struct {
	client  *outbound.Client
	cfg     Config
	breaker *outbound.CircuitBreaker
}

// New creates an SMS sender. A nil client gets a default outbound client.
func New(cfg Config, client *outbound.Client) (*Sender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: gateway URL and API key are required", ErrInvalidConfig)
	}
	if client == nil {
		client = outbound.NewClient()
	}
	s := &Sender{client: client, cfg: cfg}
	if cfg.BreakerThreshold > 0 {
		s.breaker = outbound.NewCircuitBreaker(cfg.BreakerThreshold, 1, cfg.BreakerRecovery)
	}
	return s, nil
}

type sendRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendResponse struct {
	ID        string `json:"id"`
	MessageID string `json:"message_id"`
}

// Send delivers msg.Body to the phone number in msg.Address.
// Bodies longer than MaxLength are truncated.
func (s *Sender) Send(ctx context.Context, msg channel.Message) (channel.Receipt, error) {
	if err := channel.ValidateMessage(msg); err != nil {
		return channel.Receipt{}, err
	}
	if !channel.ValidPhone(msg.Address) {
		return channel.Receipt{}, errors.Join(channel.ErrAddressInvalid, ErrInvalidPhone)
	}

	opts := []outbound.RequestOption{
		outbound.WithTimeout(s.cfg.Timeout),
		outbound.WithBearerToken(s.cfg.APIKey),
	}
	if s.breaker != nil {
		opts = append(opts, outbound.WithCircuitBreaker(s.breaker))
	}

	resp, err := s.client.PostJSON(ctx, s.cfg.GatewayURL, sendRequest{
		From: s.cfg.SenderID,
		To:   channel.NormalizePhone(msg.Address),
		Text: truncate(msg.Body, s.cfg.MaxLength),
	}, opts...)
	if err != nil {
		return channel.Receipt{}, outbound.Classify(err)
	}

	var out sendResponse
	if len(resp.Body) > 0 {
		if err := resp.Decode(&out); err != nil {
			return channel.Receipt{}, errors.Join(channel.ErrUnknown, ErrBadResponse, err)
		}
	}
	ref := out.ID
	if ref == "" {
		ref = out.MessageID
	}
	return channel.Receipt{ProviderReference: ref}, nil
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
