package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/svc/dispatch/pgstore"
	"github.com/dmitrymomot/notifykit/svc/dispatch/templatefile"
)

func (c *cli) templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Work with YAML template files",
	}
	cmd.AddCommand(c.templatesValidateCmd(), c.templatesImportCmd())
	return cmd
}

func (c *cli) templatesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH",
		Short: "Parse and validate a template file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := templatefile.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range templates {
				state := "active"
				if !t.IsActive {
					state = "inactive"
				}
				channels := make([]string, len(t.Channels))
				for i, ch := range t.Channels {
					channels[i] = string(ch)
				}
				fmt.Fprintf(out, "%-32s %-24s %-28s %s\n", t.ID, t.EventType, strings.Join(channels, ","), state)
			}
			fmt.Fprintf(out, "%d templates ok\n", len(templates))
			return nil
		},
	}
}

func (c *cli) templatesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import PATH",
		Short: "Upsert templates from a file or directory into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := templatefile.Load(args[0])
			if err != nil {
				return err
			}
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

			store := pgstore.NewTemplateStore(pool)
			for _, t := range templates {
				if err := store.Upsert(ctx, t); err != nil {
					return fmt.Errorf("template %q: %w", t.ID, err)
				}
				c.log.LogAttrs(ctx, slog.LevelInfo, "template imported",
					logger.TemplateID(t.ID), logger.EventType(t.EventType))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d templates imported\n", len(templates))
			return nil
		},
	}
}
