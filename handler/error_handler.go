package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// NewErrorHandler returns an ErrorHandler that logs the error and renders
// it as JSON. Client errors are logged at warn, server errors at error.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("http"))

	return func(ctx Context, err error) {
		detail, status := ErrorToDetail(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
			detail.RequestID = ctx.RequestID()
		}
		r := ctx.Request()
		log.LogAttrs(ctx, level, "request error",
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		resp := &jsonResponse{status: status, body: JSONResponse{Error: detail}}
		if rerr := resp.Render(ctx.ResponseWriter(), r); rerr != nil {
			log.LogAttrs(ctx, slog.LevelError, "failed to render error response", logger.Error(rerr))
		}
	}
}
