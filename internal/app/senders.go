package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/internal/config"
	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/outbound"
	"github.com/dmitrymomot/notifykit/pkg/sms"
	"github.com/dmitrymomot/notifykit/pkg/telegram"
	"github.com/dmitrymomot/notifykit/pkg/whatsapp"
)

// Senders builds the adapter registry. Email is always available: without
// Postmark credentials messages are written to EMAIL_DEV_DIR. The other
// channels are registered only when configured.
func Senders(ctx context.Context, cfg config.Config, client *outbound.Client, log *slog.Logger) (*channel.Registry, error) {
	if client == nil {
		client = outbound.NewClient(outbound.WithUserAgent(cfg.App.Name + "/1.0"))
	}
	reg := channel.NewRegistry()

	var mailer email.EmailSender
	if cfg.Email.UsePostmark() {
		pm, err := email.NewPostmarkClient(cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
		mailer = pm
	} else {
		log.LogAttrs(ctx, slog.LevelWarn, "postmark not configured, writing emails to disk",
			logger.Channel(channel.Email), slog.String("dir", cfg.Email.DevDir))
		mailer = email.NewDevSender(cfg.Email.DevDir)
	}
	if err := reg.Register(channel.Email, channel.Throttle(email.NewAdapter(mailer), channel.PerSecond(cfg.Email.RatePerSecond))); err != nil {
		return nil, err
	}

	if cfg.Telegram.Enabled() {
		s, err := telegram.New(cfg.Telegram, client)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		if err := reg.Register(channel.Telegram, channel.Throttle(s, channel.PerSecond(cfg.Telegram.RatePerSecond))); err != nil {
			return nil, err
		}
	}
	if cfg.SMS.Enabled() {
		s, err := sms.New(cfg.SMS, client)
		if err != nil {
			return nil, fmt.Errorf("sms: %w", err)
		}
		if err := reg.Register(channel.SMS, channel.Throttle(s, channel.PerSecond(cfg.SMS.RatePerSecond))); err != nil {
			return nil, err
		}
	}
	if cfg.WhatsApp.Enabled() {
		s, err := whatsapp.New(cfg.WhatsApp, client)
		if err != nil {
			return nil, fmt.Errorf("whatsapp: %w", err)
		}
		if err := reg.Register(channel.WhatsApp, channel.Throttle(s, channel.PerSecond(cfg.WhatsApp.RatePerSecond))); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, 4)
	for _, ch := range reg.Channels() {
		names = append(names, string(ch))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "channels configured", slog.Any("channels", names))
	return reg, nil
}
