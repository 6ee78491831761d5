// Package triggers turns committed domain events into notifications.
//
// One handler exists per event. Each picks the recipients, builds the
// template context and calls the notification pipeline once per recipient.
// A failure for one recipient is logged and collected; the remaining
// recipients are still processed, and the handler returns the joined errors.
//
//	t := triggers.New(manager, triggers.WithSeekerMatcher(matcher))
//	t.Register(registry)
//
//	_ = registry.Dispatch(ctx, triggers.EventJobPosted, triggers.JobPosted{...})
package triggers
