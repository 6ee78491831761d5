package statemachine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTransition is matched by errors for events the current state does not accept.
	ErrNoTransition = errors.New("statemachine: no transition available")
	// ErrTransitionRejected is matched by errors for transitions vetoed by every guard set.
	ErrTransitionRejected = errors.New("statemachine: transition rejected by guards")
	// ErrActionFailed wraps the error returned by a transition action.
	ErrActionFailed = errors.New("statemachine: action failed")
)

// TransitionError names the state and event of a failed Fire.
type TransitionError struct {
	State string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: event %q in state %q", e.Err, e.Event, e.State)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func newTransitionError[S, E comparable](state S, event E, err error) *TransitionError {
	return &TransitionError{State: fmt.Sprint(state), Event: fmt.Sprint(event), Err: err}
}
