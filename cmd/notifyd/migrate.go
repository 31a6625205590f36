package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/svc/dispatch/pgstore"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(); err != nil {
				return err
			}
			if !c.cfg.Postgres.Enabled() {
				return errors.New("PG_CONN_URL is not set")
			}

			ctx := cmd.Context()
			pool, err := pg.Connect(ctx, c.cfg.Postgres)
			if err != nil {
				return err
			}
			defer pool.Close()

			return pg.Migrate(ctx, pool, c.cfg.Postgres, pgstore.Migrations, c.log)
		},
	}
}
