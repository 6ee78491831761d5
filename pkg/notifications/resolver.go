package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Decision is the resolver's verdict for one recipient and type.
type Decision struct {
	Deliver                bool
	Channel                Channel
	SuppressedByQuietHours bool
}

// Resolver applies a user's preference and quiet hours to a notification type.
type Resolver struct {
	prefs    PreferenceStorage
	location *time.Location
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLocation sets the time zone used to read quiet hours. Default is UTC.
func WithResolverLocation(loc *time.Location) ResolverOption {
	return func(r *Resolver) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewResolver creates a resolver reading preferences from prefs.
func NewResolver(prefs PreferenceStorage, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		prefs:    prefs,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides whether a notification of typ for userID is pushed at now.
// A user without a preference is an integrity fault reported as ErrPreferenceMissing.
func (r *Resolver) Resolve(ctx context.Context, userID string, typ Type, now time.Time) (Decision, error) {
	pref, err := r.prefs.GetPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPreferenceNotFound) {
			return Decision{}, fmt.Errorf("%w: user %s", ErrPreferenceMissing, userID)
		}
		return Decision{}, fmt.Errorf("failed to load preference for user %s: %w", userID, err)
	}
	return r.decide(pref, typ, now), nil
}

func (r *Resolver) decide(pref Preference, typ Type, now time.Time) Decision {
	setting := pref.Setting(typ)
	if !setting.Enabled || setting.Channel == ChannelNone || setting.Channel == "" {
		return Decision{Channel: ChannelNone}
	}

	if setting.Channel == ChannelRealtime && pref.QuietHours.Active(ClockOf(now.In(r.location))) {
		return Decision{Channel: setting.Channel, SuppressedByQuietHours: true}
	}

	return Decision{Deliver: true, Channel: setting.Channel}
}
