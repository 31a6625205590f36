// Package channel defines the uniform contract every notification transport
// implements, the error taxonomy adapters report through, and a registry that
// maps channel identifiers to their senders.
//
// The dispatch engine depends only on Sender. Transport specific request and
// response shapes stay inside the adapter packages (email, sms, telegram,
// whatsapp).
//
// Adapters classify failures by wrapping one of the taxonomy errors:
//
//	return channel.Receipt{}, fmt.Errorf("%w: %w", channel.ErrRateLimited, err)
//
// and callers recover the classification with ReasonOf:
//
//	reason := channel.ReasonOf(err) // channel.ReasonRateLimited
package channel
