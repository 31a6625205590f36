package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Check tests one dependency.
type Check func(context.Context) error

// HealthReport is the body written by HealthHandler.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler runs every check concurrently with timeout and answers 200
// when all pass, 503 otherwise. Without checks it only reports liveness.
func HealthHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	names := slices.Sorted(maps.Keys(checks))

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		results := make([]error, len(names))
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = checks[name](ctx)
			}()
		}
		wg.Wait()

		report := HealthReport{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			report.Checks = make(map[string]string, len(names))
		}
		for i, name := range names {
			if err := results[i]; err != nil {
				report.Checks[name] = "error: " + err.Error()
				report.Status = "unavailable"
				status = http.StatusServiceUnavailable
				log.LogAttrs(ctx, slog.LevelError, "health check failed", slog.String("check", name), logger.Error(err))
				continue
			}
			report.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	}
}
