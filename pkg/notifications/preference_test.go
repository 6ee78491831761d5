package notifications_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobnotify/pkg/notifications"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	c, err := notifications.ParseClock("22:30")
	require.NoError(t, err)
	assert.Equal(t, notifications.Clock(22*60+30), c)
	assert.Equal(t, "22:30", c.String())

	for _, bad := range []string{"", "24:00", "7pm", "12:60"} {
		_, err := notifications.ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClock_JSON(t *testing.T) {
	t.Parallel()

	q := notifications.QuietHours{
		Enabled: true,
		Start:   notifications.MustParseClock("22:00"),
		End:     notifications.MustParseClock("08:00"),
	}
	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"start":"22:00","end":"08:00"}`, string(data))

	var back notifications.QuietHours
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, q, back)
}

func TestQuietHours_Active(t *testing.T) {
	t.Parallel()

	at := notifications.MustParseClock
	tests := []struct {
		name  string
		q     notifications.QuietHours
		clock string
		want  bool
	}{
		{"wrapping window late evening", notifications.QuietHours{Enabled: true, Start: at("22:00"), End: at("08:00")}, "23:30", true},
		{"wrapping window early morning", notifications.QuietHours{Enabled: true, Start: at("22:00"), End: at("08:00")}, "06:00", true},
		{"wrapping window midday", notifications.QuietHours{Enabled: true, Start: at("22:00"), End: at("08:00")}, "12:00", false},
		{"start is inclusive", notifications.QuietHours{Enabled: true, Start: at("22:00"), End: at("08:00")}, "22:00", true},
		{"end is exclusive", notifications.QuietHours{Enabled: true, Start: at("22:00"), End: at("08:00")}, "08:00", false},
		{"same-day window inside", notifications.QuietHours{Enabled: true, Start: at("12:00"), End: at("14:00")}, "13:00", true},
		{"same-day window outside", notifications.QuietHours{Enabled: true, Start: at("12:00"), End: at("14:00")}, "14:30", false},
		{"empty window", notifications.QuietHours{Enabled: true, Start: at("09:00"), End: at("09:00")}, "09:00", false},
		{"disabled", notifications.QuietHours{Start: at("00:00"), End: at("23:59")}, "12:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.q.Active(at(tt.clock)))
		})
	}
}

func TestClockOf(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 1, 23, 45, 10, 0, time.UTC)
	assert.Equal(t, "23:45", notifications.ClockOf(ts).String())
}

func TestDefaultPreference(t *testing.T) {
	t.Parallel()

	p := notifications.DefaultPreference("u1")
	assert.Equal(t, "u1", p.UserID)
	assert.False(t, p.QuietHours.Enabled)
	for _, typ := range notifications.Types() {
		assert.Equal(t, notifications.DefaultTypeSetting, p.Setting(typ), typ)
	}
	assert.Equal(t, notifications.DefaultTypeSetting, p.Setting("unknown_type"))
	assert.NoError(t, p.Validate())
}

func TestPreference_Validate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, notifications.Preference{}.Validate(), notifications.ErrInvalidPreference)

	p := notifications.DefaultPreference("u1")
	p.Types[notifications.TypeJobPosted] = notifications.TypeSetting{Enabled: true, Channel: "sms"}
	assert.ErrorIs(t, p.Validate(), notifications.ErrInvalidPreference)
}
