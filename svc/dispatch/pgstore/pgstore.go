// Package pgstore implements the dispatch stores on PostgreSQL.
//
// The schema lives in Migrations and is applied with pg.Migrate.
package pgstore

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/notifykit/pkg/channel"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations holds the goose migrations for the notification tables.
var Migrations fs.FS = mustSub(embedded, "migrations")

// Tables lists the tables the stores read and write.
var Tables = []string{"notification_templates", "notification_logs", "user_roles", "user_contacts"}

// DB is the subset of *pgxpool.Pool the stores use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func channelOf(s string) channel.Channel {
	if ch, err := channel.Parse(s); err == nil {
		return ch
	}
	return channel.Channel(s)
}

func reasonOf(s string) channel.Reason {
	return channel.Reason(s)
}
