package notifications

import "time"

// Type identifies what happened.
type Type string

const (
	TypeJobPosted                Type = "job_posted"
	TypeApplicationReceived      Type = "application_received"
	TypeApplicationStatusChanged Type = "application_status_changed"
	TypeMatchScoreCalculated     Type = "match_score_calculated"
	TypeSystemAnnouncement       Type = "system_announcement"
)

// Types returns the notification types that have a preference entry by default.
func Types() []Type {
	return []Type{
		TypeJobPosted,
		TypeApplicationReceived,
		TypeApplicationStatusChanged,
		TypeMatchScoreCalculated,
		TypeSystemAnnouncement,
	}
}

// Priority represents the notification priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Channel is the mechanism used to deliver a notification.
type Channel string

const (
	ChannelRealtime Channel = "realtime"
	ChannelEmail    Channel = "email"
	ChannelNone     Channel = "none"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelRealtime, ChannelEmail, ChannelNone:
		return true
	}
	return false
}

// Entity kinds used in EntityRef.
const (
	EntityJob         = "job"
	EntityApplication = "application"
)

// EntityRef points at the domain object a notification is about.
type EntityRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Notification is one message for one recipient about one event occurrence.
//
// IsRead and IsSent must only change through MarkRead and MarkSent so that
// ReadAt and SentAt stay in step with them.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      Type              `json:"type"`
	Priority  Priority          `json:"priority"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Related   *EntityRef        `json:"related,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	IsRead    bool              `json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	IsSent    bool              `json:"is_sent"`
	SentAt    *time.Time        `json:"sent_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// IsExpired reports whether the notification has expired at now.
func (n *Notification) IsExpired(now time.Time) bool {
	if n.ExpiresAt == nil {
		return false
	}
	return !now.Before(*n.ExpiresAt)
}

// MarkRead marks the notification as read at now. Already read notifications keep their ReadAt.
func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
}

// MarkSent records that a push attempt completed at now.
func (n *Notification) MarkSent(now time.Time) {
	if n.IsSent {
		return
	}
	n.IsSent = true
	n.SentAt = &now
}
