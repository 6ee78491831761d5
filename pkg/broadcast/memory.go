package broadcast

import (
	"context"
	"sync"
)

// MemoryLayer is an in-process channel layer.
//
// Each address has its own lock. Publish holds the group's read lock while it
// hands out copies and Leave takes the write lock, so a Publish that starts
// after Leave returns can never reach the departed member.
// All methods are safe for concurrent use.
type MemoryLayer struct {
	groups map[Address]*group
	hook   func(addr Address, delivered, dropped int)
	mu     sync.RWMutex
}

type group struct {
	members map[string]Member
	mu      sync.RWMutex
}

// NewMemoryLayer creates an empty in-process layer.
func NewMemoryLayer() *MemoryLayer {
	return &MemoryLayer{groups: make(map[Address]*group)}
}

// SetDeliveryHook registers fn to be called after every Publish with the
// number of members that accepted and dropped the payload.
func (l *MemoryLayer) SetDeliveryHook(fn func(addr Address, delivered, dropped int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hook = fn
}

// Join adds m to addr. Joining twice with the same member ID is a no-op.
func (l *MemoryLayer) Join(_ context.Context, addr Address, m Member) error {
	if addr == "" {
		return ErrInvalidAddress
	}
	if m == nil {
		return ErrNilMember
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.groups[addr]
	if !ok {
		g = &group{members: make(map[string]Member)}
		l.groups[addr] = g
	}

	g.mu.Lock()
	g.members[m.ID()] = m
	g.mu.Unlock()
	return nil
}

// Leave removes m from addr. Leaving a group the member is not in is a no-op.
// Empty groups are dropped.
func (l *MemoryLayer) Leave(_ context.Context, addr Address, m Member) error {
	if m == nil {
		return ErrNilMember
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	g, ok := l.groups[addr]
	if !ok {
		return nil
	}

	g.mu.Lock()
	delete(g.members, m.ID())
	empty := len(g.members) == 0
	g.mu.Unlock()

	if empty {
		delete(l.groups, addr)
	}
	return nil
}

// Publish hands every current member of addr its own copy of p.
// It never blocks on members and returns nil when addr has none.
func (l *MemoryLayer) Publish(ctx context.Context, addr Address, p Payload) error {
	if addr == "" {
		return ErrInvalidAddress
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.RLock()
	g, ok := l.groups[addr]
	hook := l.hook
	if ok {
		// Taken before releasing the layer lock so a concurrent Leave waits
		// for this publish to finish.
		g.mu.RLock()
	}
	l.mu.RUnlock()

	if !ok {
		if hook != nil {
			hook(addr, 0, 0)
		}
		return nil
	}

	delivered, dropped := 0, 0
	for _, m := range g.members {
		if m.Deliver(p.clone()) {
			delivered++
		} else {
			dropped++
		}
	}
	g.mu.RUnlock()

	if hook != nil {
		hook(addr, delivered, dropped)
	}
	return nil
}

// Members returns the number of members currently joined to addr.
func (l *MemoryLayer) Members(addr Address) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	g, ok := l.groups[addr]
	if !ok {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// Addresses returns the addresses that currently have at least one member.
func (l *MemoryLayer) Addresses() []Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	addrs := make([]Address, 0, len(l.groups))
	for a := range l.groups {
		addrs = append(addrs, a)
	}
	return addrs
}
