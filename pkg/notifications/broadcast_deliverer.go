package notifications

import (
	"context"
	"time"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
)

// BroadcastDeliverer pushes notifications to the recipient's live connections.
type BroadcastDeliverer struct {
	broadcaster *broadcast.Broadcaster
}

// NewBroadcastDeliverer creates a realtime deliverer publishing through b.
func NewBroadcastDeliverer(b *broadcast.Broadcaster) *BroadcastDeliverer {
	return &BroadcastDeliverer{broadcaster: b}
}

// Deliver publishes notif to the recipient's address.
// No live connections is not an error.
func (d *BroadcastDeliverer) Deliver(ctx context.Context, notif Notification) error {
	p := PushPayload(notif)
	id := ""
	if notif.Related != nil {
		id = notif.Related.ID
	}

	switch notif.Type {
	case TypeJobPosted:
		return d.broadcaster.NotifyJobPosted(ctx, notif.UserID, id, p)
	case TypeApplicationReceived:
		return d.broadcaster.NotifyApplicationReceived(ctx, notif.UserID, id, p)
	case TypeApplicationStatusChanged:
		return d.broadcaster.NotifyApplicationStatusChanged(ctx, notif.UserID, id, p)
	case TypeMatchScoreCalculated:
		return d.broadcaster.NotifyMatchScore(ctx, notif.UserID, id, p)
	default:
		return d.broadcaster.NotifyUser(ctx, notif.UserID, p)
	}
}

// Announce publishes notif to every live connection holding role.
func (d *BroadcastDeliverer) Announce(ctx context.Context, role string, notif Notification) error {
	return d.broadcaster.NotifyRole(ctx, role, PushPayload(notif))
}

// PushPayload is the wire form of a notification push.
func PushPayload(n Notification) broadcast.Payload {
	p := broadcast.Payload{
		"type":       string(n.Type),
		"id":         n.ID,
		"title":      n.Title,
		"message":    n.Message,
		"priority":   string(n.Priority),
		"created_at": n.CreatedAt.UTC().Format(time.RFC3339),
		"is_read":    n.IsRead,
	}
	if n.Related != nil {
		p["related"] = map[string]any{"kind": n.Related.Kind, "id": n.Related.ID}
	}
	if len(n.Data) > 0 {
		data := make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		p["data"] = data
	}
	if n.ExpiresAt != nil {
		p["expires_at"] = n.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return p
}
