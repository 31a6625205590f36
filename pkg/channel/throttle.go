package channel

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttle wraps s so that sends beyond the limiter's budget fail fast with
// ErrRateLimited instead of reaching the provider. A nil limiter returns s
// unchanged.
func Throttle(s Sender, limiter *rate.Limiter) Sender {
	if limiter == nil {
		return s
	}
	return &throttled{next: s, limiter: limiter}
}

type throttled struct {
	next    Sender
	limiter *rate.Limiter
}

func (t *throttled) Send(ctx context.Context, msg Message) (Receipt, error) {
	if !t.limiter.Allow() {
		return Receipt{}, fmt.Errorf("%w: local send budget exhausted", ErrRateLimited)
	}
	return t.next.Send(ctx, msg)
}

// PerSecond builds a limiter allowing n sends per second with a burst of n.
// It returns nil when n is not positive, which disables throttling.
func PerSecond(n float64) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	burst := int(n)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(n), burst)
}
