// Package broadcast addresses real-time pushes at users and roles.
//
// The package is split in two layers:
//
//   - Layer is the channel layer: named address groups that members join and
//     leave, and a Publish primitive that hands every current member one copy
//     of a payload. MemoryLayer keeps groups in process; RedisLayer relays
//     publishes between processes over Redis pub/sub and keeps membership in a
//     local MemoryLayer.
//   - Broadcaster computes addresses for users, roles and domain events and
//     publishes through a Layer.
//
// Publishing is fire-and-forget: an address with no members is a no-op, and a
// member whose buffer is full misses the payload instead of blocking the
// publisher.
//
// Basic usage:
//
//	layer := broadcast.NewMemoryLayer()
//	b := broadcast.NewBroadcaster(layer)
//
//	_ = layer.Join(ctx, broadcast.UserAddress("u1"), member)
//	_ = b.NotifyUser(ctx, "u1", broadcast.Payload{"type": "job_posted", "title": "New job"})
package broadcast
