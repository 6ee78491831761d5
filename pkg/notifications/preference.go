package notifications

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day with minute precision, as minutes since midnight.
type Clock int

const minutesPerDay = 24 * 60

// ParseClock parses "HH:MM" in 24-hour notation.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustParseClock is like ParseClock but panics on error.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the wall-clock time of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// String formats c as "HH:MM".
func (c Clock) String() string {
	m := int(c) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// QuietHours is a daily window, [Start, End), during which realtime pushes are held back.
// Start after End wraps past midnight; Start equal to End is an empty window.
type QuietHours struct {
	Enabled bool  `json:"enabled"`
	Start   Clock `json:"start"`
	End     Clock `json:"end"`
}

// Active reports whether c falls inside the window.
func (q QuietHours) Active(c Clock) bool {
	if !q.Enabled || q.Start == q.End {
		return false
	}
	if q.Start < q.End {
		return c >= q.Start && c < q.End
	}
	return c >= q.Start || c < q.End
}

// TypeSetting is a user's choice for one notification type.
type TypeSetting struct {
	Enabled bool    `json:"enabled"`
	Channel Channel `json:"channel"`
}

// DefaultTypeSetting is used for types a preference has no entry for.
var DefaultTypeSetting = TypeSetting{Enabled: true, Channel: ChannelRealtime}

// Preference holds one user's delivery choices. Every user has exactly one.
type Preference struct {
	UserID     string               `json:"user_id"`
	Types      map[Type]TypeSetting `json:"types"`
	QuietHours QuietHours           `json:"quiet_hours"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// DefaultPreference enables every known type on the realtime channel with quiet hours off.
func DefaultPreference(userID string) Preference {
	types := make(map[Type]TypeSetting, len(Types()))
	for _, t := range Types() {
		types[t] = DefaultTypeSetting
	}
	return Preference{
		UserID: userID,
		Types:  types,
	}
}

// Setting returns the user's setting for t, or DefaultTypeSetting.
func (p Preference) Setting(t Type) TypeSetting {
	if s, ok := p.Types[t]; ok {
		return s
	}
	return DefaultTypeSetting
}

// Validate checks the user id and every configured channel.
func (p Preference) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidPreference)
	}
	for t, s := range p.Types {
		if !s.Channel.Valid() {
			return fmt.Errorf("%w: unknown channel %q for %s", ErrInvalidPreference, s.Channel, t)
		}
	}
	return nil
}

func (p Preference) clone() Preference {
	types := make(map[Type]TypeSetting, len(p.Types))
	for k, v := range p.Types {
		types[k] = v
	}
	p.Types = types
	return p
}
