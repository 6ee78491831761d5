// Package logger builds the service's *slog.Logger and provides attribute
// helpers so that every component names its log keys the same way.
//
// New creates a logger from functional options. Output is JSON by default and
// text in development. Context extractors registered with WithContextExtractors
// run on every record, which is how request ids end up in handler logs.
//
// Usage:
//
//	log := logger.New(logger.WithEnvironment("production", "notifyd"))
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelWarn, "delivery failed",
//	    logger.NotificationID(n.ID),
//	    logger.UserID(n.UserID),
//	    logger.Error(err),
//	)
package logger
