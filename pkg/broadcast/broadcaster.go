package broadcast

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/jobnotify/pkg/logger"
)

// Notification types stamped by the event wrappers.
const (
	TypeJobPosted                = "job_posted"
	TypeApplicationReceived      = "application_received"
	TypeApplicationStatusChanged = "application_status_changed"
	TypeMatchScoreCalculated     = "match_score_calculated"
)

// Broadcaster addresses payloads at users and roles through a Layer.
// It holds no per-connection state and is safe for concurrent use.
type Broadcaster struct {
	layer   Layer
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithLogger sets the logger used for publish failures.
func WithLogger(log *slog.Logger) Option {
	return func(b *Broadcaster) {
		if log != nil {
			b.logger = log
		}
	}
}

// WithMetrics records publish and delivery counts on m.
// Layers implementing DeliveryReporter report delivery counts directly.
func WithMetrics(m *Metrics) Option {
	return func(b *Broadcaster) {
		b.metrics = m
	}
}

// NewBroadcaster creates a Broadcaster publishing through layer.
func NewBroadcaster(layer Layer, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		layer:  layer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if r, ok := layer.(DeliveryReporter); ok && b.metrics != nil {
		r.SetDeliveryHook(b.metrics.observeDelivery)
	}
	return b
}

// NotifyUser publishes p to every live connection of userID.
// No connections is not an error.
func (b *Broadcaster) NotifyUser(ctx context.Context, userID string, p Payload) error {
	return b.publish(ctx, UserAddress(userID), p)
}

// NotifyRole publishes p to every live connection whose identity holds role.
func (b *Broadcaster) NotifyRole(ctx context.Context, role string, p Payload) error {
	return b.publish(ctx, RoleAddress(role), p)
}

// NotifyJobPosted pushes a job_posted payload about jobID to userID.
func (b *Broadcaster) NotifyJobPosted(ctx context.Context, userID, jobID string, p Payload) error {
	return b.NotifyUser(ctx, userID, stamp(p, TypeJobPosted, "job_id", jobID))
}

// NotifyApplicationReceived pushes an application_received payload to the recruiter.
func (b *Broadcaster) NotifyApplicationReceived(ctx context.Context, recruiterID, applicationID string, p Payload) error {
	return b.NotifyUser(ctx, recruiterID, stamp(p, TypeApplicationReceived, "application_id", applicationID))
}

// NotifyApplicationStatusChanged pushes an application_status_changed payload to the seeker.
func (b *Broadcaster) NotifyApplicationStatusChanged(ctx context.Context, seekerID, applicationID string, p Payload) error {
	return b.NotifyUser(ctx, seekerID, stamp(p, TypeApplicationStatusChanged, "application_id", applicationID))
}

// NotifyMatchScore pushes a match_score_calculated payload about jobID to the seeker.
func (b *Broadcaster) NotifyMatchScore(ctx context.Context, seekerID, jobID string, p Payload) error {
	return b.NotifyUser(ctx, seekerID, stamp(p, TypeMatchScoreCalculated, "job_id", jobID))
}

func (b *Broadcaster) publish(ctx context.Context, addr Address, p Payload) error {
	err := b.layer.Publish(ctx, addr, p)
	b.metrics.observePublish(addr, err)
	if err == nil {
		return nil
	}

	b.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to publish notification",
		logger.Address(addr),
		logger.NotificationType(p.Type()),
		logger.Error(err),
	)
	if errors.Is(err, ErrPublishFailed) {
		return err
	}
	return errors.Join(ErrPublishFailed, err)
}

// stamp returns a copy of p with the type and entity id set.
func stamp(p Payload, typ, key, id string) Payload {
	out := p.clone()
	out["type"] = typ
	if id != "" {
		out[key] = id
	}
	return out
}
