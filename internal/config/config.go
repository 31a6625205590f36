// Package config assembles the notifyd configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	pkgconfig "github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/quiethours"
	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/sms"
	"github.com/dmitrymomot/notifykit/pkg/telegram"
	"github.com/dmitrymomot/notifykit/pkg/whatsapp"
	"github.com/dmitrymomot/notifykit/svc/consumer"
)

// Backend names accepted by TEMPLATE_STORE, ROLE_ORACLE and DELIVERY_LOG_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

var ErrInvalid = errors.New("config.invalid")

type App struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	Name      string `env:"APP_NAME" envDefault:"notifyd"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
	APIToken  string `env:"API_TOKEN"`

	// TrustedIPHeaders are proxy headers believed for the caller address.
	TrustedIPHeaders []string `env:"TRUSTED_IP_HEADERS" envSeparator:","`
}

// Storage selects the backend of each store.
type Storage struct {
	TemplateStore string `env:"TEMPLATE_STORE" envDefault:"postgres"`
	TemplatesPath string `env:"TEMPLATES_PATH" envDefault:"templates"`
	RoleOracle    string `env:"ROLE_ORACLE" envDefault:"postgres"`
	DeliveryLog   string `env:"DELIVERY_LOG_BACKEND" envDefault:"postgres"`
	MongoLogTable string `env:"MONGODB_LOG_COLLECTION" envDefault:"notification_logs"`
}

type Dispatch struct {
	Timeout      time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"60s"`
	SendTimeout  time.Duration `env:"DISPATCH_SEND_TIMEOUT" envDefault:"30s"`
	MaxWorkers   int           `env:"DISPATCH_MAX_WORKERS" envDefault:"8"`
	LogTestSends bool          `env:"DISPATCH_LOG_TEST_SENDS" envDefault:"false"`
}

// Config is the complete process configuration.
type Config struct {
	App        App
	Storage    Storage
	Dispatch   Dispatch
	HTTP       httpserver.Config
	Postgres   pg.Config
	Redis      redis.Config
	Mongo      mongo.Config
	Kafka      consumer.Config
	Email      email.Config
	Telegram   telegram.Config
	SMS        sms.Config
	WhatsApp   whatsapp.Config
	QuietHours quiethours.Config
}

// Load reads envFiles, when present, then parses and validates the
// environment. Missing env files are ignored.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := pkgconfig.LoadEnv(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	cfg, err := pkgconfig.Load[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names and that every selected backend has its
// connection settings.
func (c Config) Validate() error {
	var errs []error
	check := func(name, value string, allowed ...string) {
		if !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Errorf("%s must be one of %v, got %q", name, allowed, value))
		}
	}
	check("TEMPLATE_STORE", c.Storage.TemplateStore, BackendPostgres, BackendFile, BackendMemory)
	check("ROLE_ORACLE", c.Storage.RoleOracle, BackendPostgres, BackendMemory)
	check("DELIVERY_LOG_BACKEND", c.Storage.DeliveryLog, BackendPostgres, BackendMongo, BackendMemory)
	if c.App.LogFormat != "" {
		check("LOG_FORMAT", c.App.LogFormat, "json", "text")
	}

	if c.NeedsPostgres() && !c.Postgres.Enabled() {
		errs = append(errs, errors.New("PG_CONN_URL is required by the selected backends"))
	}
	if c.Storage.DeliveryLog == BackendMongo && !c.Mongo.Enabled() {
		errs = append(errs, errors.New("MONGODB_URL is required when DELIVERY_LOG_BACKEND=mongo"))
	}
	if c.Storage.TemplateStore == BackendFile && c.Storage.TemplatesPath == "" {
		errs = append(errs, errors.New("TEMPLATES_PATH is required when TEMPLATE_STORE=file"))
	}
	if c.Dispatch.MaxWorkers < 0 {
		errs = append(errs, errors.New("DISPATCH_MAX_WORKERS must not be negative"))
	}
	if c.QuietHours.Enabled {
		if _, err := c.QuietHours.Policy(); err != nil {
			errs = append(errs, fmt.Errorf("quiet hours: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalid}, errs...)...)
	}
	return nil
}

// NeedsPostgres reports whether any backend is Postgres.
func (c Config) NeedsPostgres() bool {
	return c.Storage.TemplateStore == BackendPostgres ||
		c.Storage.RoleOracle == BackendPostgres ||
		c.Storage.DeliveryLog == BackendPostgres
}
