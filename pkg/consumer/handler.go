package consumer

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
	"github.com/dmitrymomot/jobnotify/pkg/identity"
	"github.com/dmitrymomot/jobnotify/pkg/logger"
)

// Subprotocol is selected when the client offers it, so that browsers passing
// the token as a "bearer.<token>" subprotocol get a valid handshake.
const Subprotocol = "notifications"

// Handler serves the notifications WebSocket endpoint.
type Handler struct {
	verifier identity.Verifier
	layer    broadcast.Layer
	cfg      Config
	logger   *slog.Logger
	metrics  *Metrics
	upgrader websocket.Upgrader
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithConfig sets the WebSocket settings.
func WithConfig(cfg Config) HandlerOption {
	return func(h *Handler) {
		h.cfg = cfg
	}
}

// WithLogger sets the logger shared by the handler and its sessions.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.logger = log
		}
	}
}

// WithMetrics sets the consumer collectors.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates the endpoint handler. Sessions join and leave groups on layer.
func NewHandler(v identity.Verifier, layer broadcast.Layer, opts ...HandlerOption) *Handler {
	h := &Handler{
		verifier: v,
		layer:    layer,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    []string{Subprotocol},
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeHTTP verifies the caller, upgrades the connection and serves the
// session until it closes. Unverified requests get 401 and no upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := h.verifier.Verify(ctx, r)
	if err != nil {
		h.metrics.connectionRejected()
		h.logger.LogAttrs(ctx, slog.LevelDebug, "Rejected notifications connection",
			logger.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.LogAttrs(ctx, slog.LevelWarn, "WebSocket upgrade failed",
			logger.UserID(id.UserID),
			logger.Error(err),
		)
		return
	}

	transport := NewWebSocketTransport(conn, h.cfg)
	sess := NewSession(h.layer,
		WithSessionLogger(h.logger),
		WithSessionMetrics(h.metrics),
		WithOutboxSize(h.cfg.OutboxSize),
		WithPingInterval(h.cfg.PingInterval),
	)

	if err := sess.Authenticate(ctx, id); err != nil {
		h.logger.LogAttrs(ctx, slog.LevelError, "Failed to authenticate session",
			logger.ConnectionID(sess.ID()),
			logger.UserID(id.UserID),
			logger.Error(err),
		)
		_ = transport.Close()
		return
	}

	h.logger.LogAttrs(ctx, slog.LevelInfo, "Notifications connection opened",
		logger.ConnectionID(sess.ID()),
		logger.UserID(id.UserID),
		logger.Role(id.Role),
	)

	if err := sess.Serve(ctx, transport); err != nil {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "Notifications connection ended with error",
			logger.ConnectionID(sess.ID()),
			logger.UserID(id.UserID),
			logger.Error(err),
		)
		return
	}

	h.logger.LogAttrs(ctx, slog.LevelInfo, "Notifications connection closed",
		logger.ConnectionID(sess.ID()),
		logger.UserID(id.UserID),
	)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, "*") || slices.Contains(h.cfg.AllowedOrigins, origin)
}
