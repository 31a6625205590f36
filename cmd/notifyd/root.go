package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/internal/app"
	"github.com/dmitrymomot/notifykit/internal/config"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// cli carries state shared by subcommands.
type cli struct {
	envFile string
	cfg     config.Config
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "notifyd",
		Short: "Notification dispatch service",
		Long: `notifyd turns business events into notifications. Events arrive over
HTTP or Kafka, are matched against templates, rendered, and sent to email,
Telegram, SMS, and WhatsApp recipients. Every attempt is written to the
delivery log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "env file to load before reading the environment")

	root.AddCommand(
		c.serveCmd(),
		c.consumeCmd(),
		c.migrateCmd(),
		c.dispatchCmd(),
		c.testSendCmd(),
		c.templatesCmd(),
	)
	return root
}

// load reads the configuration and builds the process logger.
func (c *cli) load() error {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return err
	}
	c.cfg = cfg

	opts := []logger.Option{
		logger.WithEnvironment(cfg.App.Env, cfg.App.Name),
		logger.WithLevelName(cfg.App.LogLevel),
	}
	if cfg.App.LogFormat != "" {
		opts = append(opts, logger.WithFormat(logger.Format(cfg.App.LogFormat)))
	}
	c.log = logger.New(opts...)
	logger.SetAsDefault(c.log)
	return nil
}

// app loads the configuration and wires the application.
func (c *cli) app(ctx context.Context, opts ...app.Option) (*app.App, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return app.New(ctx, c.cfg, c.log, opts...)
}

func (c *cli) close(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	_ = a.Close(ctx)
}
