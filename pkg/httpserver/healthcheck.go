package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/jobnotify/pkg/logger"
)

// Check is a named dependency check run by Readiness.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Liveness answers 200 "ALIVE" for as long as the process serves HTTP.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// Readiness runs every check with the request context. It answers 200
// "READY" when all pass and 503 "NOT_READY" on the first failure.
func Readiness(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, c := range checks {
			if err := c.Fn(ctx); err != nil {
				log.LogAttrs(ctx, slog.LevelError, "Readiness check failed",
					logger.Component(c.Name),
					logger.Error(err),
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
