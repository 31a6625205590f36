// Package logger builds the service's *slog.Logger and provides attribute
// helpers so every component names the same facts the same way.
//
// New returns a JSON or text logger configured by options. Records are
// passed through a context handler that copies request-scoped values, such
// as the request ID stored by WithRequestID, onto every record logged with
// a context.
//
//	log := logger.New(logger.WithEnvironment(cfg.AppEnv, cfg.AppName))
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "notification sent",
//		logger.EventType("ticket_created"),
//		logger.Channel("email"),
//		logger.Recipient("x@agency.com"),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally. Recipient masks addresses before they reach the
// log stream; full addresses belong in the delivery log only.
package logger
