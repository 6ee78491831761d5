package broadcast

import "context"

// Payload is one JSON-object frame pushed to clients.
// The "type" key carries the notification type.
type Payload map[string]any

// Type returns the payload's "type" value or "".
func (p Payload) Type() string {
	s, _ := p["type"].(string)
	return s
}

// clone returns a shallow copy so that each member gets an independent map.
func (p Payload) clone() Payload {
	c := make(Payload, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Member is a live connection that can join address groups.
// Deliver must not block; it reports whether the payload was accepted.
type Member interface {
	ID() string
	Deliver(p Payload) bool
}

// Layer is the channel layer shared by publishers and connections.
// Implementations must be safe for concurrent use. After Leave returns, no
// Publish may reach the member for that address; a single Publish hands each
// member at most one copy.
type Layer interface {
	Join(ctx context.Context, addr Address, m Member) error
	Leave(ctx context.Context, addr Address, m Member) error
	Publish(ctx context.Context, addr Address, p Payload) error
}

// DeliveryReporter is implemented by layers that can report per-publish
// delivery counts to a Broadcaster.
type DeliveryReporter interface {
	SetDeliveryHook(fn func(addr Address, delivered, dropped int))
}
