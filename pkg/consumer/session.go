package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
	"github.com/dmitrymomot/jobnotify/pkg/identity"
	"github.com/dmitrymomot/jobnotify/pkg/logger"
	"github.com/dmitrymomot/jobnotify/pkg/statemachine"
)

// Transport carries frames for one session.
// Read and Write are each called from a single goroutine; Ping may be called
// concurrently with Read. A clean end of the connection is reported as io.EOF.
type Transport interface {
	Read() ([]byte, error)
	Write(frame []byte) error
	Ping() error
	Close() error
}

// Session is the state of one connection. It implements broadcast.Member.
type Session struct {
	id           string
	layer        broadcast.Layer
	logger       *slog.Logger
	metrics      *Metrics
	pingInterval time.Duration
	lifecycle    *statemachine.Machine[State, event]

	mu       sync.Mutex
	live     bool
	identity identity.Identity
	joined   []broadcast.Address
	types    []string

	outbox chan broadcast.Payload
	done   chan struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session logger.
func WithSessionLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithOutboxSize sets the number of frames buffered before broadcasts are dropped.
func WithOutboxSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.outbox = make(chan broadcast.Payload, n)
		}
	}
}

// WithPingInterval enables protocol pings from Serve. Zero disables them.
func WithPingInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		s.pingInterval = d
	}
}

// WithSessionMetrics sets the collectors updated by the session.
func WithSessionMetrics(m *Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession creates a session in the connecting state.
func NewSession(layer broadcast.Layer, opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.New().String(),
		layer:  layer,
		logger: slog.Default(),
		outbox: make(chan broadcast.Payload, DefaultConfig().OutboxSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lifecycle = s.newLifecycle()
	return s
}

// ID returns the connection id. It is the member id used by the channel layer.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.lifecycle.Current() }

// Identity returns the authenticated identity, or the zero value.
func (s *Session) Identity() identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Subscriptions returns the subscribed types. Empty means all types.
func (s *Session) Subscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.types)
}

// Done is closed once the session reaches the closed state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Authenticate moves the session to authenticated, queues the
// connection_established frame and joins the identity's addresses.
// If a join fails the session is closed and the error returned.
func (s *Session) Authenticate(ctx context.Context, id identity.Identity) error {
	err := s.lifecycle.Fire(ctx, eventAuthenticate, id)
	if errors.Is(err, statemachine.ErrActionFailed) {
		return errors.Join(err, s.Close(ctx))
	}
	if err != nil {
		return err
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "Session authenticated",
		logger.ConnectionID(s.id),
		logger.UserID(id.UserID),
		logger.Role(id.Role),
	)
	return nil
}

// joinAddresses runs on connecting → authenticated with the identity as data.
func (s *Session) joinAddresses(ctx context.Context, _, _ State, _ event, data any) error {
	id, _ := data.(identity.Identity)

	s.mu.Lock()
	s.identity = id
	// The outbox is empty here, so the first frame always fits.
	s.outbox <- establishedFrame(s.id, id)
	s.live = true
	s.mu.Unlock()

	for _, addr := range broadcast.AddressesFor(id) {
		if err := s.layer.Join(ctx, addr, s); err != nil {
			s.mu.Lock()
			s.live = false
			joined := s.joined
			s.joined = nil
			s.mu.Unlock()
			return errors.Join(fmt.Errorf("failed to join %s: %w", addr, err), s.leave(ctx, joined))
		}
		s.mu.Lock()
		s.joined = append(s.joined, addr)
		s.mu.Unlock()
	}

	s.metrics.sessionOpened()
	return nil
}

// leaveAddresses runs on every transition to closed. Leave failures do not
// block the transition; they are reported through data, an *error.
func (s *Session) leaveAddresses(ctx context.Context, from, _ State, _ event, data any) error {
	// The session lock is released before leaving: a publish holding a group
	// lock may be waiting in Deliver.
	s.mu.Lock()
	s.live = false
	joined := s.joined
	s.joined = nil
	s.mu.Unlock()

	err := s.leave(ctx, joined)
	if out, ok := data.(*error); ok {
		*out = err
	}

	close(s.done)
	if from == StateAuthenticated {
		s.metrics.sessionClosed()
	}
	return nil
}

func (s *Session) leave(ctx context.Context, joined []broadcast.Address) error {
	var errs []error
	for i := len(joined) - 1; i >= 0; i-- {
		if err := s.layer.Leave(context.WithoutCancel(ctx), joined[i], s); err != nil {
			errs = append(errs, fmt.Errorf("failed to leave %s: %w", joined[i], err))
		}
	}
	return errors.Join(errs...)
}

// Deliver queues a broadcast for the client. It never blocks and reports
// false when the session is not authenticated, the payload's type is not
// subscribed, or the outbox is full.
func (s *Session) Deliver(p broadcast.Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return false
	}
	if len(s.types) > 0 && !slices.Contains(s.types, p.Type()) {
		return false
	}

	select {
	case s.outbox <- p:
		return true
	default:
		s.metrics.frameDropped()
		s.logger.Warn("Session outbox full, dropping broadcast",
			logger.ConnectionID(s.id),
			logger.NotificationType(p.Type()),
		)
		return false
	}
}

// HandleFrame processes one client frame. Malformed or unknown frames are
// answered with an error frame; they do not end the session.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) error {
	switch s.State() {
	case StateClosed:
		return ErrSessionClosed
	case StateConnecting:
		return ErrNotAuthenticated
	}

	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return s.send(ctx, errorFrame("invalid JSON frame"))
	}

	switch in.Type {
	case FramePing:
		return s.send(ctx, pongFrame(in.Timestamp))
	case FrameSubscribe:
		types := uniqueTypes(in.NotificationTypes)
		s.mu.Lock()
		s.types = types
		s.mu.Unlock()
		return s.send(ctx, subscriptionFrame(types))
	case "":
		return s.send(ctx, errorFrame("frame type is required"))
	default:
		return s.send(ctx, errorFrame(fmt.Sprintf("unknown frame type %q", in.Type)))
	}
}

// send queues a reply. Unlike Deliver it waits for room in the outbox.
func (s *Session) send(ctx context.Context, p broadcast.Payload) error {
	select {
	case s.outbox <- p:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close leaves every joined address, then moves the session to closed.
// Concurrent and repeated calls wait for the first one to finish.
func (s *Session) Close(ctx context.Context) error {
	var leaveErr error
	if err := s.lifecycle.Fire(ctx, eventClose, &leaveErr); err != nil {
		if errors.Is(err, ErrNoTransition) {
			return nil
		}
		return err
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "Session closed",
		logger.ConnectionID(s.id),
		logger.UserID(s.Identity().UserID),
	)
	return leaveErr
}

// Serve relays the outbox to t and client frames to HandleFrame until either
// side fails, ctx is done or the session is closed. It always closes the
// session and the transport before returning. A clean client close returns nil.
func (s *Session) Serve(ctx context.Context, t Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readErr := make(chan error, 1)
	go func() {
		defer cancel()
		readErr <- s.readLoop(ctx, t)
	}()

	writeErr := s.writeLoop(ctx, t)
	cancel()
	_ = t.Close()
	rerr := <-readErr

	closeErr := s.Close(context.WithoutCancel(ctx))

	var errs []error
	if writeErr != nil {
		errs = append(errs, writeErr)
	}
	if rerr != nil && !isClosedErr(rerr) {
		errs = append(errs, rerr)
	}
	if closeErr != nil {
		errs = append(errs, closeErr)
	}
	return errors.Join(errs...)
}

func (s *Session) readLoop(ctx context.Context, t Transport) error {
	for {
		raw, err := t.Read()
		if err != nil {
			return err
		}
		if err := s.HandleFrame(ctx, raw); err != nil {
			return err
		}
	}
}

func (s *Session) writeLoop(ctx context.Context, t Transport) error {
	var ping <-chan time.Time
	if s.pingInterval > 0 {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case p := <-s.outbox:
			frame, err := json.Marshal(p)
			if err != nil {
				s.logger.LogAttrs(ctx, slog.LevelError, "Failed to encode frame",
					logger.ConnectionID(s.id),
					logger.Error(err),
				)
				continue
			}
			if err := t.Write(frame); err != nil {
				return fmt.Errorf("failed to write frame: %w", err)
			}
		case <-ping:
			if err := t.Ping(); err != nil {
				return fmt.Errorf("failed to send ping: %w", err)
			}
		}
	}
}

func uniqueTypes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, context.Canceled)
}
