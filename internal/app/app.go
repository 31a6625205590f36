package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/notifykit/internal/config"
	"github.com/dmitrymomot/notifykit/pkg/channel"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/quiethours"
	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/svc/api"
	"github.com/dmitrymomot/notifykit/svc/consumer"
	"github.com/dmitrymomot/notifykit/svc/dispatch"
	"github.com/dmitrymomot/notifykit/svc/dispatch/mongolog"
	"github.com/dmitrymomot/notifykit/svc/dispatch/pgstore"
	"github.com/dmitrymomot/notifykit/svc/dispatch/rolecache"
	"github.com/dmitrymomot/notifykit/svc/dispatch/templatefile"
)

// App holds the wired dependencies of one notifyd process.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Dispatcher *dispatch.Dispatcher
	Templates  dispatch.TemplateStore
	History    dispatch.DeliveryHistory
	Senders    *channel.Registry
	Checks     map[string]httpserver.Check

	pool    *pgxpool.Pool
	redis   *goredis.Client
	mongo   *mongodriver.Client
	closers []func(context.Context) error
}

type Option func(*options)

type options struct {
	migrate bool
	senders *channel.Registry
}

// WithMigrations applies the Postgres schema during New.
func WithMigrations(enabled bool) Option {
	return func(o *options) { o.migrate = enabled }
}

// WithSenders replaces the adapters built from configuration.
func WithSenders(reg *channel.Registry) Option {
	return func(o *options) { o.senders = reg }
}

// New connects the configured backends and builds the dispatcher. On error
// everything opened so far is closed.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts ...Option) (_ *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = slog.Default()
	}

	a := &App{Config: cfg, Logger: log, Checks: make(map[string]httpserver.Check)}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if err := a.connect(ctx, o.migrate); err != nil {
		return nil, err
	}

	if a.Templates, err = a.templateStore(); err != nil {
		return nil, err
	}
	deliveries, err := a.deliveryLog(ctx)
	if err != nil {
		return nil, err
	}

	a.Senders = o.senders
	if a.Senders == nil {
		if a.Senders, err = Senders(ctx, cfg, nil, log); err != nil {
			return nil, err
		}
	}

	policy := quiethours.Disabled()
	if cfg.QuietHours.Enabled {
		if policy, err = cfg.QuietHours.Policy(); err != nil {
			return nil, fmt.Errorf("quiet hours: %w", err)
		}
	}

	a.Dispatcher = dispatch.New(a.Templates, a.Senders, deliveries,
		dispatch.WithRoleOracle(a.roleOracle()),
		dispatch.WithQuietHours(policy),
		dispatch.WithTimeout(cfg.Dispatch.Timeout),
		dispatch.WithSendTimeout(cfg.Dispatch.SendTimeout),
		dispatch.WithMaxWorkers(cfg.Dispatch.MaxWorkers),
		dispatch.WithTestSendLogging(cfg.Dispatch.LogTestSends),
		dispatch.WithLogger(log),
	)

	log.LogAttrs(ctx, slog.LevelInfo, "dispatcher ready",
		slog.String("templates", cfg.Storage.TemplateStore),
		slog.String("roles", cfg.Storage.RoleOracle),
		slog.String("delivery_log", cfg.Storage.DeliveryLog),
		slog.String("quiet_hours", policy.String()),
	)
	return a, nil
}

func (a *App) connect(ctx context.Context, migrate bool) error {
	cfg := a.Config

	if cfg.NeedsPostgres() || (migrate && cfg.Postgres.Enabled()) {
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		a.pool = pool
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		a.Checks["postgres"] = pg.Healthcheck(pool, pgstore.Tables...)

		if migrate {
			if err := pg.Migrate(ctx, pool, cfg.Postgres, pgstore.Migrations, a.Logger); err != nil {
				return err
			}
		}
	}

	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.redis = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.Checks["redis"] = redis.Healthcheck(client)
	}

	if cfg.Storage.DeliveryLog == config.BackendMongo {
		client, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		a.mongo = client
		a.closers = append(a.closers, client.Disconnect)
		a.Checks["mongo"] = mongo.Healthcheck(client)
	}

	if cfg.Kafka.Enabled() {
		a.Checks["kafka"] = consumer.Healthcheck(cfg.Kafka)
	}
	return nil
}

func (a *App) templateStore() (dispatch.TemplateStore, error) {
	switch a.Config.Storage.TemplateStore {
	case config.BackendPostgres:
		return pgstore.NewTemplateStore(a.pool), nil
	case config.BackendFile:
		return templatefile.Store(a.Config.Storage.TemplatesPath)
	default:
		return dispatch.NewMemoryTemplateStore(), nil
	}
}

func (a *App) roleOracle() dispatch.RoleOracle {
	var oracle dispatch.RoleOracle
	if a.Config.Storage.RoleOracle == config.BackendPostgres {
		oracle = pgstore.NewRoleOracle(a.pool)
	} else {
		oracle = dispatch.NewMemoryRoleOracle()
	}
	if a.redis != nil {
		oracle = rolecache.New(oracle, a.redis,
			rolecache.WithTTL(a.Config.Redis.RoleCacheTTL),
			rolecache.WithLogger(a.Logger),
		)
	}
	return oracle
}

func (a *App) deliveryLog(ctx context.Context) (dispatch.DeliveryLog, error) {
	switch a.Config.Storage.DeliveryLog {
	case config.BackendPostgres:
		l := pgstore.NewDeliveryLog(a.pool)
		a.History = l
		return l, nil
	case config.BackendMongo:
		l := mongolog.New(a.mongo.Database(a.Config.Mongo.Database), a.Config.Storage.MongoLogTable)
		if err := l.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		a.History = l
		return l, nil
	default:
		l := dispatch.NewMemoryDeliveryLog()
		a.History = l
		return l, nil
	}
}

// Router returns the HTTP API.
func (a *App) Router() http.Handler {
	opts := []api.Option{
		api.WithLogger(a.Logger),
		api.WithAPIToken(a.Config.App.APIToken),
		api.WithDeliveryHistory(a.History),
		api.WithClientIPHeaders(a.Config.App.TrustedIPHeaders...),
	}
	for name, check := range a.Checks {
		opts = append(opts, api.WithHealthCheck(name, check))
	}
	return api.NewRouter(a.Dispatcher, opts...)
}

// Consumer builds the Kafka consumer. The returned reader and dead letter
// writer are closed by Close.
func (a *App) Consumer() (*consumer.Consumer, error) {
	reader, err := consumer.NewReader(a.Config.Kafka)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return reader.Close() })

	opts := []consumer.Option{consumer.WithLogger(a.Logger)}
	if w := consumer.NewDeadLetterWriter(a.Config.Kafka); w != nil {
		a.closers = append(a.closers, func(context.Context) error { return w.Close() })
		opts = append(opts, consumer.WithDeadLetter(w))
	}
	return consumer.New(reader, a.Dispatcher, opts...), nil
}

// Pool returns the Postgres pool, or nil when Postgres is not used.
func (a *App) Pool() *pgxpool.Pool {
	return a.pool
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.Logger.LogAttrs(ctx, slog.LevelWarn, "error while closing resources", logger.Error(err))
		return err
	}
	return nil
}
