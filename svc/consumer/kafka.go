package consumer

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

// NewReader creates a consumer group reader. Offsets are committed
// explicitly by Consumer.
func NewReader(cfg Config) (*kafka.Reader, error) {
	if !cfg.Enabled() {
		return nil, ErrNoBrokers
	}
	start := kafka.FirstOffset
	if cfg.StartFromLatest {
		start = kafka.LastOffset
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		SessionTimeout: cfg.SessionTimeout,
		StartOffset:    start,
	}), nil
}

// NewDeadLetterWriter returns nil when no dead letter topic is configured.
func NewDeadLetterWriter(cfg Config) *kafka.Writer {
	if cfg.DeadLetterTopic == "" || !cfg.Enabled() {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.DeadLetterTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
}

// Healthcheck returns a check that dials the first reachable broker.
func Healthcheck(cfg Config) func(context.Context) error {
	return func(ctx context.Context) error {
		if !cfg.Enabled() {
			return ErrNoBrokers
		}
		dialer := &kafka.Dialer{Timeout: cfg.DialTimeout}
		var errs []error
		for _, broker := range cfg.Brokers {
			conn, err := dialer.DialContext(ctx, "tcp", broker)
			if err == nil {
				return conn.Close()
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		return errors.Join(append([]error{ErrHealthcheckFailed}, errs...)...)
	}
}
