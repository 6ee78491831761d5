package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobnotify/pkg/statemachine"
)

type state string

type event string

const (
	draft     state = "draft"
	review    state = "in_review"
	published state = "published"
	rejected  state = "rejected"

	submit  event = "submit"
	approve event = "approve"
)

func TestMachine_Transitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := statemachine.New(draft,
		statemachine.WithTransition(draft, review, submit),
		statemachine.WithTransition(review, published, approve),
	)
	assert.Equal(t, draft, m.Current())

	require.NoError(t, m.Fire(ctx, submit, nil))
	assert.Equal(t, review, m.Current())
	require.NoError(t, m.Fire(ctx, approve, nil))
	assert.Equal(t, published, m.Current())

	err := m.Fire(ctx, submit, nil)
	require.ErrorIs(t, err, statemachine.ErrNoTransition)
	var terr *statemachine.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "published", terr.State)
	assert.Equal(t, "submit", terr.Event)
	assert.Equal(t, published, m.Current())
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	isOwner := func(_ context.Context, _ state, _ event, data any) bool {
		return data == "owner"
	}
	never := func(context.Context, state, event, any) bool { return false }

	t.Run("first passing transition wins", func(t *testing.T) {
		t.Parallel()

		m := statemachine.New(review,
			statemachine.WithTransition(review, published, approve, statemachine.WithGuard[state, event](isOwner)),
			statemachine.WithTransition(review, rejected, approve),
		)
		require.NoError(t, m.Fire(ctx, approve, "guest"))
		assert.Equal(t, rejected, m.Current())

		m = statemachine.New(review,
			statemachine.WithTransition(review, published, approve, statemachine.WithGuard[state, event](isOwner)),
			statemachine.WithTransition(review, rejected, approve),
		)
		require.NoError(t, m.Fire(ctx, approve, "owner"))
		assert.Equal(t, published, m.Current())
	})

	t.Run("all rejected", func(t *testing.T) {
		t.Parallel()

		m := statemachine.New(review,
			statemachine.WithTransition(review, published, approve, statemachine.WithGuard[state, event](never)),
		)
		assert.ErrorIs(t, m.Fire(ctx, approve, nil), statemachine.ErrTransitionRejected)
		assert.Equal(t, review, m.Current())
	})
}

func TestMachine_Actions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("run in order before the state changes", func(t *testing.T) {
		t.Parallel()

		var calls []string
		record := func(name string) statemachine.Action[state, event] {
			return func(_ context.Context, from, to state, ev event, data any) error {
				assert.Equal(t, draft, from)
				assert.Equal(t, review, to)
				assert.Equal(t, submit, ev)
				assert.Equal(t, 42, data)
				calls = append(calls, name)
				return nil
			}
		}
		m := statemachine.New(draft,
			statemachine.WithTransition(draft, review, submit,
				statemachine.WithAction(record("first")),
				statemachine.WithAction(record("second")),
			),
		)
		require.NoError(t, m.Fire(ctx, submit, 42))
		assert.Equal(t, []string{"first", "second"}, calls)
		assert.Equal(t, review, m.Current())
	})

	t.Run("failure aborts the transition", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		ran := false
		m := statemachine.New(draft,
			statemachine.WithTransition(draft, review, submit,
				statemachine.WithAction[state, event](func(context.Context, state, state, event, any) error { return boom }),
				statemachine.WithAction[state, event](func(context.Context, state, state, event, any) error {
					ran = true
					return nil
				}),
			),
		)
		err := m.Fire(ctx, submit, nil)
		require.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, statemachine.ErrActionFailed)
		assert.False(t, ran)
		assert.Equal(t, draft, m.Current())
	})
}

func TestMachine_ConcurrentFireIsSerialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var transitions atomic.Int32
	m := statemachine.New(draft,
		statemachine.WithTransition(draft, review, submit,
			statemachine.WithAction[state, event](func(context.Context, state, state, event, any) error {
				transitions.Add(1)
				return nil
			}),
		),
	)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Fire(ctx, submit, nil) == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(1), transitions.Load())
	assert.Equal(t, review, m.Current())
}
