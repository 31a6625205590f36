// Package pg opens and migrates the PostgreSQL database behind the
// notification service.
//
// Connect builds a pgx pool from Config and retries until the database
// answers a ping. Migrate applies goose migrations read from an fs.FS, so
// callers ship their schema inside the binary with go:embed. Healthcheck
// adapts the pool to the health endpoint.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, log); err != nil {
//		return err
//	}
package pg
