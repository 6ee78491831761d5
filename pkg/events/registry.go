package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/jobnotify/pkg/logger"
)

// Handler processes one event payload.
type Handler func(ctx context.Context, payload any) error

// Registry maps event names to ordered handler lists. It is safe for concurrent use.
type Registry struct {
	handlers map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for handler failures.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string][]Handler),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// On appends h to the handlers of name.
func (r *Registry) On(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = append(r.handlers[name], h)
}

// Handle registers a handler that only accepts payloads of type T.
func Handle[T any](r *Registry, name string, fn func(ctx context.Context, payload T) error) {
	r.On(name, func(ctx context.Context, payload any) error {
		typed, ok := payload.(T)
		if !ok {
			var zero T
			return fmt.Errorf("%w: %s wants %T, got %T", ErrPayloadType, name, zero, payload)
		}
		return fn(ctx, typed)
	})
}

// Handlers returns the number of handlers registered for name.
func (r *Registry) Handlers(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[name])
}

// Dispatch runs every handler of name in order and returns their joined errors.
// A name without handlers is a no-op.
func (r *Registry) Dispatch(ctx context.Context, name string, payload any) error {
	r.mu.RLock()
	handlers := append([]Handler(nil), r.handlers[name]...)
	r.mu.RUnlock()

	var errs []error
	for i, h := range handlers {
		if err := r.run(ctx, name, h, payload); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "Event handler failed",
				logger.Event(name),
				slog.Int("handler_index", i),
				logger.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) run(ctx context.Context, name string, h Handler, payload any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, name, p)
		}
	}()
	return h(ctx, payload)
}
