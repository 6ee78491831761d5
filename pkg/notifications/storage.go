package notifications

import (
	"context"
	"time"
)

// Storage handles notification persistence and retrieval.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notification of the user.
	Get(ctx context.Context, userID, notifID string) (*Notification, error)

	// List returns notifications for a user.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// MarkRead marks notification(s) as read at now. Already read ones are left alone.
	MarkRead(ctx context.Context, userID string, now time.Time, notifIDs ...string) error

	// MarkSent records a completed push attempt at now.
	MarkSent(ctx context.Context, userID, notifID string, now time.Time) error

	// CountUnread returns the number of unread notifications not expired at now.
	CountUnread(ctx context.Context, userID string, now time.Time) (int, error)
}

// PreferenceStorage persists one Preference per user.
type PreferenceStorage interface {
	// CreatePreference stores p unless the user already has one; it is idempotent.
	CreatePreference(ctx context.Context, p Preference) error

	// GetPreference returns ErrPreferenceNotFound when the user has none.
	GetPreference(ctx context.Context, userID string) (Preference, error)

	// UpdatePreference replaces an existing preference or returns ErrPreferenceNotFound.
	UpdatePreference(ctx context.Context, p Preference) error
}

// TemplateStorage holds seeded notification templates.
type TemplateStorage interface {
	// SaveTemplate inserts or replaces a template by name.
	// A second default for the same type and channel fails with ErrDuplicateDefaultTemplate.
	SaveTemplate(ctx context.Context, t Template) error

	// FindTemplates returns every template of typ, on any channel.
	FindTemplates(ctx context.Context, typ Type) ([]Template, error)
}

// ListOptions provides filtering and pagination options for listing notifications.
type ListOptions struct {
	Limit          int        // Maximum number of notifications to return (0 = no limit)
	Offset         int        // Number of notifications to skip for pagination
	OnlyUnread     bool       // When true, only return unread notifications
	Types          []Type     // If specified, only return notifications of these types
	Since          *time.Time // If specified, only return notifications created at or after this time
	IncludeExpired bool       // When true, expired notifications are returned too
	Ascending      bool       // Oldest first instead of newest first
	Now            time.Time  // Reference time for expiry; zero means time.Now()
}

// At returns the reference time for expiry checks.
func (o ListOptions) At() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}
