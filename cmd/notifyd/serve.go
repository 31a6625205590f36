package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifykit/internal/app"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/svc/consumer"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		migrate    bool
		noConsumer bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when Kafka is configured, the event consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.app(ctx, app.WithMigrations(migrate))
			if err != nil {
				return err
			}
			defer c.close(a)

			var cons *consumer.Consumer
			if c.cfg.Kafka.Enabled() && !noConsumer {
				if cons, err = a.Consumer(); err != nil {
					return err
				}
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return httpserver.New(c.cfg.HTTP, httpserver.WithLogger(c.log)).Run(ctx, a.Router())
			})
			if cons != nil {
				g.Go(func() error { return cons.Run(ctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	cmd.Flags().BoolVar(&noConsumer, "no-consumer", false, "do not consume Kafka events even when brokers are configured")
	return cmd
}

func (c *cli) consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Consume notification events from Kafka",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			defer c.close(a)

			cons, err := a.Consumer()
			if err != nil {
				return err
			}
			return cons.Run(ctx)
		},
	}
}
