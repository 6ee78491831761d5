package broadcast_test

import (
	"sync"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
)

type testMember struct {
	id     string
	mu     sync.Mutex
	got    []broadcast.Payload
	reject bool
}

func newMember(id string) *testMember {
	return &testMember{id: id}
}

func (m *testMember) ID() string { return m.id }

func (m *testMember) Deliver(p broadcast.Payload) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reject {
		return false
	}
	m.got = append(m.got, p)
	return true
}

func (m *testMember) received() []broadcast.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]broadcast.Payload, len(m.got))
	copy(out, m.got)
	return out
}
