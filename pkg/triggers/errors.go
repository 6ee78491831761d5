package triggers

import "errors"

var (
	// ErrRecipientPanic wraps a recovered panic while notifying one recipient.
	ErrRecipientPanic = errors.New("triggers: recipient processing panicked")
	// ErrMissingRecipient is returned when an event names no recipient.
	ErrMissingRecipient = errors.New("triggers: event has no recipient")
)
