// Package telegram delivers notifications through the Telegram Bot API.
//
// Recipients are chat identifiers: a numeric chat ID, or an @username for
// public channels. Messages are sent with the sendMessage method and the
// returned message_id becomes the provider reference.
//
//	sender, err := telegram.New(cfg, client)
//	if err != nil {
//		return err
//	}
//	registry.MustRegister(channel.Telegram, sender)
package telegram
