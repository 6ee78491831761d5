package notifications_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobnotify/pkg/notifications"
)

type prefStore struct {
	notifications.PreferenceStorage
	err error
}

func (p prefStore) GetPreference(context.Context, string) (notifications.Preference, error) {
	return notifications.Preference{}, p.err
}

func quietPreference(userID string) notifications.Preference {
	p := notifications.DefaultPreference(userID)
	p.QuietHours = notifications.QuietHours{
		Enabled: true,
		Start:   notifications.MustParseClock("22:00"),
		End:     notifications.MustParseClock("08:00"),
	}
	return p
}

func at(clock string) time.Time {
	c := notifications.MustParseClock(clock)
	return time.Date(2024, 5, 1, int(c)/60, int(c)%60, 0, 0, time.UTC)
}

func TestResolver_MissingPreference(t *testing.T) {
	t.Parallel()

	r := notifications.NewResolver(notifications.NewMemoryStorage())
	_, err := r.Resolve(context.Background(), "ghost", notifications.TypeJobPosted, at("12:00"))
	require.ErrorIs(t, err, notifications.ErrPreferenceMissing)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolver_StorageFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	r := notifications.NewResolver(prefStore{err: cause})
	_, err := r.Resolve(context.Background(), "u1", notifications.TypeJobPosted, at("12:00"))
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, notifications.ErrPreferenceMissing)
}

func TestResolver_Decisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()

	require.NoError(t, store.CreatePreference(ctx, notifications.DefaultPreference("default")))
	require.NoError(t, store.CreatePreference(ctx, quietPreference("quiet")))

	disabled := notifications.DefaultPreference("disabled")
	disabled.Types[notifications.TypeJobPosted] = notifications.TypeSetting{Enabled: false, Channel: notifications.ChannelRealtime}
	disabled.Types[notifications.TypeMatchScoreCalculated] = notifications.TypeSetting{Enabled: true, Channel: notifications.ChannelNone}
	require.NoError(t, store.CreatePreference(ctx, disabled))

	emailer := quietPreference("emailer")
	emailer.Types[notifications.TypeApplicationReceived] = notifications.TypeSetting{Enabled: true, Channel: notifications.ChannelEmail}
	require.NoError(t, store.CreatePreference(ctx, emailer))

	sparse := notifications.Preference{UserID: "sparse", Types: map[notifications.Type]notifications.TypeSetting{}}
	require.NoError(t, store.CreatePreference(ctx, sparse))

	r := notifications.NewResolver(store)

	tests := []struct {
		name  string
		user  string
		typ   notifications.Type
		clock string
		want  notifications.Decision
	}{
		{"enabled realtime", "default", notifications.TypeJobPosted, "23:30", notifications.Decision{Deliver: true, Channel: notifications.ChannelRealtime}},
		{"quiet at 23:30", "quiet", notifications.TypeJobPosted, "23:30", notifications.Decision{Channel: notifications.ChannelRealtime, SuppressedByQuietHours: true}},
		{"quiet at 06:00", "quiet", notifications.TypeJobPosted, "06:00", notifications.Decision{Channel: notifications.ChannelRealtime, SuppressedByQuietHours: true}},
		{"not quiet at 12:00", "quiet", notifications.TypeJobPosted, "12:00", notifications.Decision{Deliver: true, Channel: notifications.ChannelRealtime}},
		{"type disabled", "disabled", notifications.TypeJobPosted, "12:00", notifications.Decision{Channel: notifications.ChannelNone}},
		{"channel none", "disabled", notifications.TypeMatchScoreCalculated, "12:00", notifications.Decision{Channel: notifications.ChannelNone}},
		{"other types unaffected", "disabled", notifications.TypeApplicationReceived, "12:00", notifications.Decision{Deliver: true, Channel: notifications.ChannelRealtime}},
		{"email ignores quiet hours", "emailer", notifications.TypeApplicationReceived, "23:30", notifications.Decision{Deliver: true, Channel: notifications.ChannelEmail}},
		{"missing type entry uses default", "sparse", notifications.TypeApplicationStatusChanged, "12:00", notifications.Decision{Deliver: true, Channel: notifications.ChannelRealtime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Resolve(ctx, tt.user, tt.typ, at(tt.clock))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Location(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifications.NewMemoryStorage()
	require.NoError(t, store.CreatePreference(ctx, quietPreference("u1")))

	// 20:30 UTC is 23:30 in UTC+3.
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC)

	utc, err := notifications.NewResolver(store).Resolve(ctx, "u1", notifications.TypeJobPosted, now)
	require.NoError(t, err)
	assert.True(t, utc.Deliver)

	local, err := notifications.NewResolver(store, notifications.WithResolverLocation(loc)).Resolve(ctx, "u1", notifications.TypeJobPosted, now)
	require.NoError(t, err)
	assert.True(t, local.SuppressedByQuietHours)
}
