package events

import "errors"

var (
	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("events: handler panicked")
	// ErrPayloadType is returned when a typed handler receives a payload of another type.
	ErrPayloadType = errors.New("events: unexpected payload type")
)
