package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/outbound"
)

// Sender implements channel.Sender over the Bot API.
type Sender struct {
	client   *outbound.Client
	endpoint string
	cfg      Config
	breaker  *outbound.CircuitBreaker
}

// New creates a Telegram sender. A nil client gets a default outbound client.
func New(cfg Config, client *outbound.Client) (*Sender, error) {
	if cfg.BotToken == "" {
		return nil, ErrMissingToken
	}
	if client == nil {
		client = outbound.NewClient()
	}
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}

	s := &Sender{
		client:   client,
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", base, cfg.BotToken),
		cfg:      cfg,
	}
	if cfg.BreakerThreshold > 0 {
		s.breaker = outbound.NewCircuitBreaker(cfg.BreakerThreshold, 1, cfg.BreakerRecovery)
	}
	return s, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send posts msg.Body to the chat in msg.Address. Subjects are ignored.
func (s *Sender) Send(ctx context.Context, msg channel.Message) (channel.Receipt, error) {
	if err := channel.ValidateMessage(msg); err != nil {
		return channel.Receipt{}, err
	}
	chatID := strings.TrimSpace(msg.Address)
	if !ValidChatID(chatID) {
		return channel.Receipt{}, errors.Join(channel.ErrAddressInvalid, ErrInvalidChatID)
	}

	opts := []outbound.RequestOption{outbound.WithTimeout(s.cfg.Timeout)}
	if s.breaker != nil {
		opts = append(opts, outbound.WithCircuitBreaker(s.breaker))
	}

	resp, err := s.client.PostJSON(ctx, s.endpoint, sendMessageRequest{
		ChatID:    chatID,
		Text:      msg.Body,
		ParseMode: s.cfg.ParseMode,
	}, opts...)
	if err != nil {
		return channel.Receipt{}, classify(err)
	}

	var out apiResponse
	if err := resp.Decode(&out); err != nil {
		return channel.Receipt{}, errors.Join(channel.ErrUnknown, ErrAPI, err)
	}
	if !out.OK {
		return channel.Receipt{}, errors.Join(channel.ErrUnknown, fmt.Errorf("%w: %s", ErrAPI, out.Description))
	}
	return channel.Receipt{ProviderReference: strconv.FormatInt(out.Result.MessageID, 10)}, nil
}

// classify maps Bot API failures onto the channel taxonomy. A 403 from
// sendMessage means the user blocked the bot or never started it, which
// is a recipient problem rather than a credential one.
func classify(err error) error {
	switch outbound.StatusCode(err) {
	case http.StatusForbidden:
		return errors.Join(channel.ErrAddressInvalid, ErrAPI, err)
	case http.StatusUnauthorized, http.StatusNotFound:
		// Bot API answers 404 for an unknown token.
		return errors.Join(channel.ErrAuthenticationFailed, ErrAPI, err)
	}
	return outbound.Classify(err)
}

// ValidChatID reports whether id is a numeric chat ID or an @username.
func ValidChatID(id string) bool {
	if id == "" {
		return false
	}
	if strings.HasPrefix(id, "@") {
		return len(id) > 1 && !strings.ContainsAny(id, " \t\n")
	}
	_, err := strconv.ParseInt(id, 10, 64)
	return err == nil
}
