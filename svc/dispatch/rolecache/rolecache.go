// Package rolecache caches role oracle answers in Redis so that bursts of
// events do not hit the role directory for every dispatch.
package rolecache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
)

const (
	DefaultTTL    = time.Minute
	DefaultPrefix = "notifykit:roles"
)

// Client is the subset of redis.UniversalClient used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Oracle wraps another dispatch.RoleOracle. Redis failures are logged and
// the call falls through to the wrapped oracle; errors from the wrapped
// oracle are never cached.
type Oracle struct {
	next   dispatch.RoleOracle
	client Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

type Option func(*Oracle)

func WithTTL(ttl time.Duration) Option {
	return func(o *Oracle) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(o *Oracle) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Oracle) {
		if l != nil {
			o.logger = l
		}
	}
}

func New(next dispatch.RoleOracle, client Client, opts ...Option) *Oracle {
	o := &Oracle{
		next:   next,
		client: client,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(logger.Component("rolecache"))
	return o
}

// AddressesForRole implements dispatch.RoleOracle.
func (o *Oracle) AddressesForRole(ctx context.Context, role string, ch channel.Channel) ([]string, error) {
	key := o.key(role, ch)

	raw, err := o.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var addrs []string
		if err := json.Unmarshal(raw, &addrs); err == nil {
			return addrs, nil
		}
		o.logger.LogAttrs(ctx, slog.LevelWarn, "dropping corrupt role cache entry", slog.String("key", key))
		_ = o.client.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
	default:
		o.logger.LogAttrs(ctx, slog.LevelWarn, "role cache read failed", slog.String("key", key), logger.Error(err))
	}

	addrs, err := o.next.AddressesForRole(ctx, role, ch)
	if err != nil {
		return nil, err
	}
	if addrs == nil {
		addrs = []string{}
	}

	data, err := json.Marshal(addrs)
	if err == nil {
		err = o.client.Set(ctx, key, data, o.ttl).Err()
	}
	if err != nil {
		o.logger.LogAttrs(ctx, slog.LevelWarn, "role cache write failed", slog.String("key", key), logger.Error(err))
	}
	return addrs, nil
}

// Invalidate drops the cached answers of role on every channel.
func (o *Oracle) Invalidate(ctx context.Context, role string) error {
	keys := make([]string, 0, len(channel.All()))
	for _, ch := range channel.All() {
		keys = append(keys, o.key(role, ch))
	}
	return o.client.Del(ctx, keys...).Err()
}

func (o *Oracle) key(role string, ch channel.Channel) string {
	return o.prefix + ":" + role + ":" + string(ch)
}
