package dispatch

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/quiethours"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRoleOracle sets the source of admin addresses.
func WithRoleOracle(oracle RoleOracle) Option {
	return func(d *Dispatcher) {
		d.oracle = oracle
	}
}

// WithQuietHours sets the global quiet hours policy. Default is disabled.
func WithQuietHours(p quiethours.Policy) Option {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithTimeout bounds a whole dispatch. Attempts that have not started when
// it expires are logged as failed with reason timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout >= 0 {
			d.timeout = timeout
		}
	}
}

// WithSendTimeout bounds a single adapter call. Default is 30 seconds.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// WithMaxWorkers caps concurrent sends per dispatch. Zero, the default,
// sizes the pool to the number of attempts.
func WithMaxWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.maxWorkers = n
		}
	}
}

// WithTestSendLogging makes TestSend write its attempt to the delivery log,
// flagged with IsTest.
func WithTestSendLogging(enabled bool) Option {
	return func(d *Dispatcher) {
		d.logTestSends = enabled
	}
}

// WithClock replaces time.Now, for quiet hours and log timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
