package statemachine

import (
	"context"
	"errors"
	"sync"
)

// Action runs a side effect during a transition. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Guard decides at runtime whether a transition may proceed.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Transition is a state change triggered by an event.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order before the state changes
}

// Machine is a concurrency-safe in-memory state machine.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	current     S
	transitions map[S]map[E][]Transition[S, E]
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// AddTransition registers a transition. Several transitions for the same
// state and event are tried in registration order.
func (m *Machine[S, E]) AddTransition(t Transition[S, E]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return newTransitionError(from, event, ErrNoTransition)
	}

	var chosen *Transition[S, E]
	for i := range candidates {
		if guardsPass(ctx, candidates[i], from, event, data) {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return newTransitionError(from, event, ErrTransitionRejected)
	}

	for _, action := range chosen.Actions {
		if err := action(ctx, from, chosen.To, event, data); err != nil {
			return newTransitionError(from, event, errors.Join(ErrActionFailed, err))
		}
	}

	m.current = chosen.To
	return nil
}

func guardsPass[S, E comparable](ctx context.Context, t Transition[S, E], from S, event E, data any) bool {
	for _, g := range t.Guards {
		if !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E])

// TransitionOption configures a single transition.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m := &Machine[S, E]{
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTransition adds the transition from → to on event.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		t := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		m.AddTransition(t)
	}
}

// WithGuard adds a guard to a transition.
func WithGuard[S, E comparable](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if g != nil {
			t.Guards = append(t.Guards, g)
		}
	}
}

// WithAction adds an action to a transition.
func WithAction[S, E comparable](a Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
}
