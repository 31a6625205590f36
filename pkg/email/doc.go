// Package email delivers the email channel of the dispatch engine.
//
// EmailSender is the provider seam. Two implementations are provided:
//   - NewPostmarkClient sends through Postmark's transactional API and
//     returns the Postmark message ID.
//   - NewDevSender writes every message to a directory as an HTML file plus
//     a JSON metadata file, for local development.
//
// NewAdapter turns any EmailSender into a channel.Sender, so the engine sees
// email like every other transport:
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//		return err
//	}
//	registry.MustRegister(channel.Email, email.NewAdapter(sender))
//
// Postmark API error codes are mapped onto the channel error taxonomy, so the
// delivery log records whether a failure was caused by a bad address, bad
// credentials, throttling or an outage.
package email
