// Package statemachine is a small finite-state machine with guards and
// actions, generic over comparable state and event types.
//
// Transitions are looked up in a map[from][event][]Transition. The first
// transition whose guards all pass wins; its actions run in order before the
// state changes, and any action error aborts the transition.
//
//	const (
//	    Open   State = "open"
//	    Closed State = "closed"
//	)
//
//	m := statemachine.New(Open,
//	    statemachine.WithTransition(Open, Closed, Close,
//	        statemachine.WithAction[State, Event](releaseResources),
//	    ),
//	)
//	err := m.Fire(ctx, Close, nil)
//
// Fire holds the machine's lock while guards and actions run, so concurrent
// Fire calls are serialized and each observes the state left by the previous
// one. Actions must not call back into the same machine.
//
// Fire reports an undefined transition with an error matching ErrNoTransition
// and a guard veto with one matching ErrTransitionRejected.
package statemachine
