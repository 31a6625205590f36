// Package outbound performs JSON calls to notification provider APIs
// (Telegram Bot API, SMS gateways, WhatsApp Cloud API) on behalf of channel
// adapters.
//
// A Client adds what every provider call needs: a per-request timeout,
// optional retries with backoff, an optional circuit breaker per provider,
// and errors that keep the HTTP status code so adapters can classify them:
//
//	client := outbound.NewClient()
//	resp, err := client.PostJSON(ctx, url, payload,
//		outbound.WithBearerToken(token),
//		outbound.WithCircuitBreaker(breaker),
//	)
//	if err != nil {
//		return channel.Receipt{}, outbound.Classify(err)
//	}
//
// Classify maps failures onto the pkg/channel error taxonomy: 401/403 become
// ErrAuthenticationFailed, 429 ErrRateLimited, other 4xx ErrAddressInvalid,
// and 5xx, network errors and an open circuit ErrProviderUnavailable.
package outbound
