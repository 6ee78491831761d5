// Package events is an explicit dispatch table from event names to ordered
// handler lists.
//
// The component that commits a state change calls Dispatch synchronously.
// Every handler registered for the name runs, in registration order, even
// when an earlier one fails or panics; failures come back joined.
//
//	reg := events.NewRegistry()
//	events.Handle(reg, "job_posted", func(ctx context.Context, e JobPosted) error {
//	    return notifySeekers(ctx, e)
//	})
//
//	err := reg.Dispatch(ctx, "job_posted", JobPosted{JobID: "j1"})
package events
