package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

// Reader is the part of *kafka.Reader used by Consumer.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Writer is the part of *kafka.Writer used for dead letters.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Dispatcher handles one decoded event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dispatch.Event) dispatch.Result
}

// HeaderError is set on dead letters to the reason the message was rejected.
const HeaderError = "notifykit-error"

// Consumer reads events and dispatches them sequentially.
type Consumer struct {
	reader     Reader
	dispatcher Dispatcher
	deadLetter Writer
	logger     *slog.Logger
}

type Option func(*Consumer)

// WithDeadLetter copies malformed messages to w before committing them.
func WithDeadLetter(w Writer) Option {
	return func(c *Consumer) {
		c.deadLetter = w
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(r Reader, d Dispatcher, opts ...Option) *Consumer {
	c := &Consumer{reader: r, dispatcher: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("consumer"))
	return c
}

// Run processes messages until ctx is cancelled, which returns nil.
// A message being dispatched when ctx is cancelled is finished and
// committed first.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.LogAttrs(ctx, slog.LevelInfo, "consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.LogAttrs(ctx, slog.LevelInfo, "consumer stopped")
				return nil
			}
			return errors.Join(ErrFetch, err)
		}

		if err := c.Handle(context.WithoutCancel(ctx), msg); err != nil {
			return err
		}
	}
}

// Handle dispatches one message and commits it. Only a commit failure is
// returned; everything else is logged.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	attrs := []slog.Attr{
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	}

	ev, err := decode(msg.Value)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "skipping malformed event", append(attrs, logger.Error(err))...)
		c.deadLetterize(ctx, msg, err)
	} else {
		start := time.Now()
		res := c.dispatcher.Dispatch(ctx, ev)
		c.logger.LogAttrs(ctx, slog.LevelInfo, "event consumed", append(attrs,
			logger.EventType(ev.Type),
			logger.Reference(ev.Reference.Type, ev.Reference.ID),
			logger.Count("sent", res.Sent()),
			logger.Count("failed", res.Failed()),
			logger.Count("problems", len(res.Problems)),
			logger.Duration(time.Since(start)),
		)...)
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return errors.Join(ErrCommit, err)
	}
	return nil
}

func (c *Consumer) deadLetterize(ctx context.Context, msg kafka.Message, cause error) {
	if c.deadLetter == nil {
		return
	}
	dl := kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: append(append([]kafka.Header(nil), msg.Headers...), kafka.Header{Key: HeaderError, Value: []byte(cause.Error())}),
	}
	if err := c.deadLetter.WriteMessages(ctx, dl); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "failed to write dead letter",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			logger.Error(err),
		)
	}
}

func decode(value []byte) (dispatch.Event, error) {
	var ev dispatch.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return ev, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if err := ev.Validate(); err != nil {
		return ev, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return ev, nil
}
