package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobnotify/pkg/logger"
	"github.com/dmitrymomot/jobnotify/pkg/template"
)

// Request describes one notification for one recipient.
type Request struct {
	UserID   string
	Type     Type
	Priority Priority // PriorityNormal when empty
	Related  *EntityRef
	Context  map[string]string // Template context, also stored as Notification.Data
}

// Announcer pushes a notification to every live connection holding a role.
type Announcer interface {
	Announce(ctx context.Context, role string, notif Notification) error
}

// Manager orchestrates preference resolution, rendering, storage and delivery.
type Manager struct {
	storage    Storage
	prefs      PreferenceStorage
	templates  TemplateStorage
	resolver   *Resolver
	deliverers map[Channel]Deliverer
	announcer  Announcer
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
	expiry     time.Duration
	location   *time.Location
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithDeliverer sets the deliverer for channel.
func WithDeliverer(channel Channel, d Deliverer) ManagerOption {
	return func(m *Manager) {
		m.deliverers[channel] = d
	}
}

// WithAnnouncer sets the target of Announce.
func WithAnnouncer(a Announcer) ManagerOption {
	return func(m *Manager) {
		m.announcer = a
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithExpiry makes notifications expire d after creation. Zero disables expiry.
func WithExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.expiry = d
		}
	}
}

// WithLocation sets the time zone used for quiet hours. Default is UTC.
func WithLocation(loc *time.Location) ManagerOption {
	return func(m *Manager) {
		if loc != nil {
			m.location = loc
		}
	}
}

// WithManagerMetrics records pipeline outcomes on metrics.
func WithManagerMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a new notification manager.
func NewManager(storage Storage, prefs PreferenceStorage, templates TemplateStorage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage:    storage,
		prefs:      prefs,
		templates:  templates,
		deliverers: make(map[Channel]Deliverer),
		logger:     slog.Default(),
		now:        time.Now,
		location:   time.UTC,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.resolver = NewResolver(prefs, WithResolverLocation(m.location))
	return m
}

// Notify runs the pipeline for one recipient.
//
// The notification is persisted whatever the resolver decides. A delivery
// failure is logged and leaves the notification unsent; it is not returned.
// Errors are returned only when nothing was stored.
func (m *Manager) Notify(ctx context.Context, req Request) (Notification, error) {
	if req.UserID == "" || req.Type == "" {
		return Notification{}, fmt.Errorf("%w: user id and type are required", ErrInvalidNotification)
	}

	now := m.now()
	decision, err := m.resolver.Resolve(ctx, req.UserID, req.Type, now)
	if err != nil {
		return Notification{}, err
	}

	content := m.content(ctx, req.Type, decision.Channel)
	title, message := template.Render(content, req.Context)

	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	notif := Notification{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Type:      req.Type,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Related:   req.Related,
		Data:      copyContext(req.Context),
		CreatedAt: now,
	}
	if m.expiry > 0 {
		exp := now.Add(m.expiry)
		notif.ExpiresAt = &exp
	}

	// Store first to ensure persistence even if real-time delivery fails
	if err := m.storage.Create(ctx, notif); err != nil {
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}
	m.metrics.incCreated(notif.Type)

	switch {
	case decision.SuppressedByQuietHours:
		m.metrics.incSuppressed(reasonQuietHours)
		return notif, nil
	case !decision.Deliver:
		m.metrics.incSuppressed(reasonDisabled)
		return notif, nil
	case notif.IsExpired(now):
		m.metrics.incSuppressed(reasonExpired)
		return notif, nil
	}

	m.deliver(ctx, &notif, decision.Channel)
	return notif, nil
}

func (m *Manager) deliver(ctx context.Context, notif *Notification, channel Channel) {
	d, ok := m.deliverers[channel]
	if !ok {
		m.metrics.incFailed(channel)
		m.logger.LogAttrs(ctx, slog.LevelWarn, "Notification stored but not delivered",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Channel(channel),
			logger.Error(ErrNoDeliverer),
		)
		return
	}

	// Log delivery failure but don't fail the entire operation.
	// The notification stays unsent and can be read by listing.
	if err := d.Deliver(ctx, *notif); err != nil {
		m.metrics.incFailed(channel)
		m.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to deliver notification, but it was stored successfully",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Channel(channel),
			logger.Error(err),
		)
		return
	}

	sentAt := m.now()
	if err := m.storage.MarkSent(ctx, notif.UserID, notif.ID, sentAt); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelError, "Failed to mark notification as sent",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
		return
	}
	notif.MarkSent(sentAt)
	m.metrics.incSent(channel)
}

// content picks the template for typ and channel, or the generic fallback.
func (m *Manager) content(ctx context.Context, typ Type, channel Channel) template.Template {
	if m.templates == nil {
		return FallbackContent(typ)
	}

	candidates, err := m.templates.FindTemplates(ctx, typ)
	if err != nil && !errors.Is(err, ErrTemplateNotFound) {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to load notification templates, using fallback",
			logger.NotificationType(typ),
			logger.Error(err),
		)
		return FallbackContent(typ)
	}

	tpl, err := SelectTemplate(candidates, typ, channel)
	if err != nil {
		return FallbackContent(typ)
	}
	return tpl.Content()
}

// Announce renders a system announcement and pushes it to every live
// connection holding role. Announcements are not persisted.
func (m *Manager) Announce(ctx context.Context, role, title, message string) error {
	if m.announcer == nil {
		return ErrNoDeliverer
	}

	data := map[string]string{"title": title, "message": message}
	renderedTitle, renderedMessage := template.Render(m.content(ctx, TypeSystemAnnouncement, ChannelRealtime), data)

	return m.announcer.Announce(ctx, role, Notification{
		ID:        uuid.New().String(),
		Type:      TypeSystemAnnouncement,
		Priority:  PriorityNormal,
		Title:     renderedTitle,
		Message:   renderedMessage,
		Data:      data,
		CreatedAt: m.now(),
	})
}

// Get returns one notification of the user.
func (m *Manager) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	return m.storage.Get(ctx, userID, notifID)
}

// List returns the user's notifications, newest first unless opts.Ascending.
func (m *Manager) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	if opts.Now.IsZero() {
		opts.Now = m.now()
	}
	return m.storage.List(ctx, userID, opts)
}

// ListHistory returns every notification of the user, expired ones included, in creation order.
func (m *Manager) ListHistory(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	opts.IncludeExpired = true
	opts.Ascending = true
	return m.List(ctx, userID, opts)
}

// MarkRead marks the given notifications as read.
func (m *Manager) MarkRead(ctx context.Context, userID string, notifIDs ...string) error {
	if len(notifIDs) == 0 {
		return nil
	}
	return m.storage.MarkRead(ctx, userID, m.now(), notifIDs...)
}

// MarkAllRead marks all notifications as read for a user.
func (m *Manager) MarkAllRead(ctx context.Context, userID string) error {
	notifications, err := m.storage.List(ctx, userID, ListOptions{
		OnlyUnread:     true,
		IncludeExpired: true,
		Now:            m.now(),
	})
	if err != nil {
		return err
	}

	ids := make([]string, len(notifications))
	for i, n := range notifications {
		ids[i] = n.ID
	}
	return m.MarkRead(ctx, userID, ids...)
}

// CountUnread returns the number of unread, unexpired notifications.
func (m *Manager) CountUnread(ctx context.Context, userID string) (int, error) {
	return m.storage.CountUnread(ctx, userID, m.now())
}

// EnsurePreference creates the default preference for userID unless one exists.
func (m *Manager) EnsurePreference(ctx context.Context, userID string) error {
	if err := m.prefs.CreatePreference(ctx, DefaultPreference(userID)); err != nil {
		return fmt.Errorf("failed to create preference for user %s: %w", userID, err)
	}
	return nil
}

// Preference returns the user's preference.
func (m *Manager) Preference(ctx context.Context, userID string) (Preference, error) {
	return m.prefs.GetPreference(ctx, userID)
}

// UpdatePreference replaces the user's preference.
func (m *Manager) UpdatePreference(ctx context.Context, p Preference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return m.prefs.UpdatePreference(ctx, p)
}

func copyContext(ctx map[string]string) map[string]string {
	if len(ctx) == 0 {
		return nil
	}
	out := make(map[string]string, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
