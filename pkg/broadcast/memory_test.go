package broadcast_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
	"github.com/dmitrymomot/jobnotify/pkg/identity"
)

func TestMemoryLayer_PublishWithoutMembers(t *testing.T) {
	t.Parallel()

	layer := broadcast.NewMemoryLayer()
	err := layer.Publish(context.Background(), broadcast.UserAddress("nobody"), broadcast.Payload{"type": "job_posted"})
	assert.NoError(t, err)
}

func TestMemoryLayer_EveryMemberGetsOwnCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	addr := broadcast.UserAddress("u1")

	a, b := newMember("a"), newMember("b")
	require.NoError(t, layer.Join(ctx, addr, a))
	require.NoError(t, layer.Join(ctx, addr, b))
	require.NoError(t, layer.Join(ctx, addr, a))
	assert.Equal(t, 2, layer.Members(addr))

	require.NoError(t, layer.Publish(ctx, addr, broadcast.Payload{"type": "job_posted", "title": "Go dev"}))

	require.Len(t, a.received(), 1)
	require.Len(t, b.received(), 1)

	a.received()[0]["title"] = "changed"
	assert.Equal(t, "Go dev", b.received()[0]["title"])
}

func TestMemoryLayer_LeaveStopsDelivery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	addr := broadcast.RoleAddress("recruiter")
	m := newMember("m")

	require.NoError(t, layer.Join(ctx, addr, m))
	require.NoError(t, layer.Leave(ctx, addr, m))
	require.NoError(t, layer.Publish(ctx, addr, broadcast.Payload{"type": "system_announcement"}))

	assert.Empty(t, m.received())
	assert.Equal(t, 0, layer.Members(addr))
	assert.Empty(t, layer.Addresses())
	assert.NoError(t, layer.Leave(ctx, addr, m))
}

func TestMemoryLayer_InvalidArguments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()

	assert.ErrorIs(t, layer.Join(ctx, "", newMember("x")), broadcast.ErrInvalidAddress)
	assert.ErrorIs(t, layer.Join(ctx, broadcast.UserAddress("u"), nil), broadcast.ErrNilMember)
	assert.ErrorIs(t, layer.Leave(ctx, broadcast.UserAddress("u"), nil), broadcast.ErrNilMember)
	assert.ErrorIs(t, layer.Publish(ctx, "", broadcast.Payload{}), broadcast.ErrInvalidAddress)
}

func TestMemoryLayer_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	layer := broadcast.NewMemoryLayer()
	assert.ErrorIs(t, layer.Publish(ctx, broadcast.UserAddress("u"), broadcast.Payload{}), context.Canceled)
}

func TestMemoryLayer_DeliveryHook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	addr := broadcast.UserAddress("u1")

	var delivered, dropped int
	layer.SetDeliveryHook(func(_ broadcast.Address, d, r int) {
		delivered += d
		dropped += r
	})

	full := newMember("full")
	full.reject = true
	require.NoError(t, layer.Join(ctx, addr, newMember("ok")))
	require.NoError(t, layer.Join(ctx, addr, full))
	require.NoError(t, layer.Publish(ctx, addr, broadcast.Payload{"type": "job_posted"}))

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, dropped)
}

func TestMemoryLayer_ConcurrentJoinLeavePublish(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	addr := broadcast.UserAddress("busy")

	stable := newMember("stable")
	require.NoError(t, layer.Join(ctx, addr, stable))

	const publishers, churners, rounds = 8, 8, 50

	var wg sync.WaitGroup
	for i := range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range rounds {
				_ = layer.Publish(ctx, addr, broadcast.Payload{"type": "job_posted", "n": fmt.Sprintf("%d-%d", i, j)})
			}
		}()
	}
	for i := range churners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := newMember(fmt.Sprintf("churn-%d", i))
			for range rounds {
				_ = layer.Join(ctx, addr, m)
				_ = layer.Leave(ctx, addr, m)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, stable.received(), publishers*rounds)
	assert.Equal(t, 1, layer.Members(addr))
}

func TestMemoryLayer_NoPublishAfterLeave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	addr := broadcast.UserAddress("u1")

	for i := range 100 {
		m := newMember(fmt.Sprintf("m-%d", i))
		require.NoError(t, layer.Join(ctx, addr, m))

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = layer.Publish(ctx, addr, broadcast.Payload{"type": "before"})
		}()

		require.NoError(t, layer.Leave(ctx, addr, m))
		require.NoError(t, layer.Publish(ctx, addr, broadcast.Payload{"type": "after"}))
		<-done

		for _, p := range m.received() {
			assert.Equal(t, "before", p.Type())
		}
	}
}

func TestAddresses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, broadcast.Address("notifications.user.42"), broadcast.UserAddress("42"))
	assert.Equal(t, broadcast.Address("notifications.role.recruiter"), broadcast.RoleAddress("recruiter"))
	assert.Equal(t, "user", broadcast.UserAddress("42").Scope())
	assert.Equal(t, "role", broadcast.RoleAddress("admin").Scope())
	assert.Equal(t, "other", broadcast.Address("misc").Scope())
}

func TestAddressesFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]broadcast.Address{"notifications.user.u1", "notifications.role.recruiter"},
		broadcast.AddressesFor(identity.Identity{UserID: "u1", Role: identity.RoleRecruiter}),
	)
	assert.Equal(t,
		[]broadcast.Address{"notifications.user.u2"},
		broadcast.AddressesFor(identity.Identity{UserID: "u2"}),
	)
}
