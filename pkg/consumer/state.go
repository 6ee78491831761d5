package consumer

import "github.com/dmitrymomot/jobnotify/pkg/statemachine"

// State is a session's lifecycle state.
type State string

const (
	StateConnecting    State = "connecting"
	StateAuthenticated State = "authenticated"
	StateClosed        State = "closed"
)

type event string

const (
	eventAuthenticate event = "authenticate"
	eventClose        event = "close"
)

// newLifecycle builds the session's state machine. Group membership changes
// are transition actions: authenticate joins the identity's addresses and
// close leaves them.
func (s *Session) newLifecycle() *statemachine.Machine[State, event] {
	return statemachine.New(StateConnecting,
		statemachine.WithTransition(StateConnecting, StateAuthenticated, eventAuthenticate,
			statemachine.WithAction[State, event](s.joinAddresses),
		),
		statemachine.WithTransition(StateConnecting, StateClosed, eventClose,
			statemachine.WithAction[State, event](s.leaveAddresses),
		),
		statemachine.WithTransition(StateAuthenticated, StateClosed, eventClose,
			statemachine.WithAction[State, event](s.leaveAddresses),
		),
	)
}
