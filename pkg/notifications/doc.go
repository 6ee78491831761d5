// Package notifications turns domain events into persisted, user-facing
// notifications and hands them to delivery channels.
//
// # Architecture
//
//   - Notification, Preference and Template are the data model.
//   - Storage, PreferenceStorage and TemplateStorage handle persistence.
//     MemoryStorage implements all three; see the pgstore subpackage for
//     PostgreSQL.
//   - Resolver decides per user and type whether to push now, and on which
//     channel, honouring quiet hours.
//   - Deliverer pushes a stored notification over a channel.
//     BroadcastDeliverer publishes to live connections, EmailDeliverer sends
//     mail.
//   - Manager runs the pipeline: resolve, pick a template, render, persist,
//     deliver, mark sent.
//
// A notification is always persisted before any delivery is attempted, so a
// user who missed the live push can still find it by listing.
//
// # Basic Usage
//
//	store := notifications.NewMemoryStorage()
//	layer := broadcast.NewMemoryLayer()
//
//	manager := notifications.NewManager(store, store, store,
//	    notifications.WithDeliverer(notifications.ChannelRealtime,
//	        notifications.NewBroadcastDeliverer(broadcast.NewBroadcaster(layer))),
//	)
//
//	_ = manager.EnsurePreference(ctx, "user123")
//
//	n, err := manager.Notify(ctx, notifications.Request{
//	    UserID: "user123",
//	    Type:   notifications.TypeJobPosted,
//	    Context: map[string]string{
//	        "job_title":    "Software Engineer",
//	        "company_name": "Tech Corp",
//	    },
//	})
//
// # Quiet hours
//
// Quiet hours suppress realtime pushes only. The notification is still stored
// and IsSent stays false.
package notifications
