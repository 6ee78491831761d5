package broadcast_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobnotify/pkg/broadcast"
)

type failingLayer struct {
	*broadcast.MemoryLayer
	err error
}

func (l failingLayer) Publish(context.Context, broadcast.Address, broadcast.Payload) error {
	return l.err
}

func TestBroadcaster_NotifyUserReachesEveryConnection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	b := broadcast.NewBroadcaster(layer)

	phone, laptop, other := newMember("phone"), newMember("laptop"), newMember("other")
	require.NoError(t, layer.Join(ctx, broadcast.UserAddress("u1"), phone))
	require.NoError(t, layer.Join(ctx, broadcast.UserAddress("u1"), laptop))
	require.NoError(t, layer.Join(ctx, broadcast.UserAddress("u2"), other))

	require.NoError(t, b.NotifyUser(ctx, "u1", broadcast.Payload{"type": "job_posted"}))

	assert.Len(t, phone.received(), 1)
	assert.Len(t, laptop.received(), 1)
	assert.Empty(t, other.received())
}

func TestBroadcaster_NotifyRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	b := broadcast.NewBroadcaster(layer)

	recruiter := newMember("r")
	require.NoError(t, layer.Join(ctx, broadcast.RoleAddress("recruiter"), recruiter))

	require.NoError(t, b.NotifyRole(ctx, "recruiter", broadcast.Payload{"type": "system_announcement"}))
	require.NoError(t, b.NotifyRole(ctx, "job_seeker", broadcast.Payload{"type": "system_announcement"}))

	assert.Len(t, recruiter.received(), 1)
}

func TestBroadcaster_EventWrappers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	layer := broadcast.NewMemoryLayer()
	b := broadcast.NewBroadcaster(layer)

	m := newMember("m")
	require.NoError(t, layer.Join(ctx, broadcast.UserAddress("u1"), m))

	in := broadcast.Payload{"title": "t"}
	require.NoError(t, b.NotifyJobPosted(ctx, "u1", "job-1", in))
	require.NoError(t, b.NotifyApplicationReceived(ctx, "u1", "app-1", in))
	require.NoError(t, b.NotifyApplicationStatusChanged(ctx, "u1", "app-2", in))
	require.NoError(t, b.NotifyMatchScore(ctx, "u1", "job-2", in))

	got := m.received()
	require.Len(t, got, 4)
	assert.Equal(t, broadcast.Payload{"type": broadcast.TypeJobPosted, "title": "t", "job_id": "job-1"}, got[0])
	assert.Equal(t, broadcast.Payload{"type": broadcast.TypeApplicationReceived, "title": "t", "application_id": "app-1"}, got[1])
	assert.Equal(t, broadcast.Payload{"type": broadcast.TypeApplicationStatusChanged, "title": "t", "application_id": "app-2"}, got[2])
	assert.Equal(t, broadcast.Payload{"type": broadcast.TypeMatchScoreCalculated, "title": "t", "job_id": "job-2"}, got[3])

	assert.Equal(t, broadcast.Payload{"title": "t"}, in, "input payload must not be mutated")
}

func TestBroadcaster_PublishFailure(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := broadcast.NewMetrics(reg)
	cause := errors.New("connection reset")
	b := broadcast.NewBroadcaster(
		failingLayer{MemoryLayer: broadcast.NewMemoryLayer(), err: cause},
		broadcast.WithMetrics(metrics),
	)

	err := b.NotifyUser(context.Background(), "u1", broadcast.Payload{"type": "job_posted"})
	require.Error(t, err)
	assert.ErrorIs(t, err, broadcast.ErrPublishFailed)
	assert.ErrorIs(t, err, cause)

	n, err := testutil.GatherAndCount(reg, "notify_broadcast_publish_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBroadcaster_Metrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	layer := broadcast.NewMemoryLayer()
	b := broadcast.NewBroadcaster(layer, broadcast.WithMetrics(broadcast.NewMetrics(reg)))

	saturated := newMember("slow")
	saturated.reject = true
	require.NoError(t, layer.Join(ctx, broadcast.UserAddress("u1"), newMember("fast")))
	require.NoError(t, layer.Join(ctx, broadcast.UserAddress("u1"), saturated))

	require.NoError(t, b.NotifyUser(ctx, "u1", broadcast.Payload{"type": "job_posted"}))
	require.NoError(t, b.NotifyRole(ctx, "admin", broadcast.Payload{"type": "system_announcement"}))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			values[f.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["notify_broadcast_published_total"])
	assert.Equal(t, 1.0, values["notify_broadcast_delivered_total"])
	assert.Equal(t, 1.0, values["notify_broadcast_dropped_total"])
}
