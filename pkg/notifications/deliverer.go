package notifications

import "context"

// Deliverer pushes a stored notification over one channel.
type Deliverer interface {
	Deliver(ctx context.Context, notif Notification) error
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, notif Notification) error

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, notif Notification) error {
	return f(ctx, notif)
}

// NoOpDeliverer is a deliverer that does nothing.
// Useful for testing or when real-time delivery is not needed.
type NoOpDeliverer struct{}

// Deliver does nothing and returns nil.
func (NoOpDeliverer) Deliver(context.Context, Notification) error {
	return nil
}
