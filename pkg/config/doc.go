// Package config loads typed configuration from environment variables,
// optionally seeded from .env files.
//
//	if err := config.LoadEnv(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
//		return err
//	}
//	cfg, err := config.Load[pg.Config]()
//
// Variables already present in the process environment win over values
// from files.
package config
