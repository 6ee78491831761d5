package consumer

import (
	"errors"

	"github.com/dmitrymomot/jobnotify/pkg/statemachine"
)

var (
	// ErrNoTransition is returned for an event the current state does not accept.
	ErrNoTransition = statemachine.ErrNoTransition
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("consumer: session closed")
	// ErrNotAuthenticated is returned for frames received before authentication.
	ErrNotAuthenticated = errors.New("consumer: session not authenticated")
)
