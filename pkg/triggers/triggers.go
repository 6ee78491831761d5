package triggers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/dmitrymomot/jobnotify/pkg/events"
	"github.com/dmitrymomot/jobnotify/pkg/logger"
	"github.com/dmitrymomot/jobnotify/pkg/notifications"
)

// HighMatchScore is the score from which a match notification is high priority.
const HighMatchScore = 80

// Notifier is the notification pipeline used by the triggers.
type Notifier interface {
	Notify(ctx context.Context, req notifications.Request) (notifications.Notification, error)
	EnsurePreference(ctx context.Context, userID string) error
}

// SeekerMatcher finds the job seekers a new job should be announced to.
type SeekerMatcher interface {
	MatchingSeekers(ctx context.Context, job JobPosted) ([]string, error)
}

// SeekerMatcherFunc adapts a function to the SeekerMatcher interface.
type SeekerMatcherFunc func(ctx context.Context, job JobPosted) ([]string, error)

// MatchingSeekers calls f.
func (f SeekerMatcherFunc) MatchingSeekers(ctx context.Context, job JobPosted) ([]string, error) {
	return f(ctx, job)
}

// Triggers holds one handler per domain event.
type Triggers struct {
	notifier Notifier
	matcher  SeekerMatcher
	book     notifications.AddressBook
	logger   *slog.Logger
}

// Option configures Triggers.
type Option func(*Triggers)

// WithSeekerMatcher sets an additional recipient source for job_posted.
// Without one, job_posted notifies only the event's SeekerIDs.
func WithSeekerMatcher(m SeekerMatcher) Option {
	return func(t *Triggers) {
		t.matcher = m
	}
}

// WithAddressBook stores the email address carried by user_created.
func WithAddressBook(b notifications.AddressBook) Option {
	return func(t *Triggers) {
		t.book = b
	}
}

// WithLogger sets the logger for per-recipient failures.
func WithLogger(log *slog.Logger) Option {
	return func(t *Triggers) {
		if log != nil {
			t.logger = log
		}
	}
}

// New creates the trigger set.
func New(n Notifier, opts ...Option) *Triggers {
	t := &Triggers{
		notifier: n,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds every trigger to reg.
func (t *Triggers) Register(reg *events.Registry) {
	events.Handle(reg, EventUserCreated, t.UserCreated)
	events.Handle(reg, EventJobPosted, t.JobPosted)
	events.Handle(reg, EventApplicationReceived, t.ApplicationReceived)
	events.Handle(reg, EventApplicationStatusChanged, t.ApplicationStatusChanged)
	events.Handle(reg, EventMatchScoreCalculated, t.MatchScoreCalculated)
}

// UserCreated creates the default preference for the new user and records
// their email address when an address book is configured.
func (t *Triggers) UserCreated(ctx context.Context, e UserCreated) error {
	if e.UserID == "" {
		return ErrMissingRecipient
	}
	if err := t.notifier.EnsurePreference(ctx, e.UserID); err != nil {
		return err
	}
	if t.book == nil || e.Email == "" {
		return nil
	}
	if err := t.book.SetEmailAddress(ctx, e.UserID, e.Email); err != nil {
		return fmt.Errorf("failed to store email address for %s: %w", e.UserID, err)
	}
	return nil
}

// JobPosted notifies the event's SeekerIDs and every seeker the matcher
// returns, except the poster.
func (t *Triggers) JobPosted(ctx context.Context, e JobPosted) error {
	seekers := slices.Clone(e.SeekerIDs)
	if t.matcher != nil {
		matched, err := t.matcher.MatchingSeekers(ctx, e)
		if err != nil {
			return fmt.Errorf("failed to match seekers for job %s: %w", e.JobID, err)
		}
		seekers = append(seekers, matched...)
	}

	recipients := make([]string, 0, len(seekers))
	seen := make(map[string]struct{}, len(seekers))
	for _, id := range seekers {
		if id == "" || id == e.PostedBy {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	return t.fanOut(ctx, EventJobPosted, recipients, notifications.Request{
		Type:    notifications.TypeJobPosted,
		Related: &notifications.EntityRef{Kind: notifications.EntityJob, ID: e.JobID},
		Context: map[string]string{
			"job_id":       e.JobID,
			"job_title":    e.Title,
			"company_name": e.CompanyName,
			"job_type":     e.JobType,
			"location":     e.Location,
		},
	})
}

// ApplicationReceived notifies the job's recruiter.
func (t *Triggers) ApplicationReceived(ctx context.Context, e ApplicationReceived) error {
	if e.RecruiterID == "" {
		return ErrMissingRecipient
	}
	return t.fanOut(ctx, EventApplicationReceived, []string{e.RecruiterID}, notifications.Request{
		Type:     notifications.TypeApplicationReceived,
		Priority: notifications.PriorityHigh,
		Related:  &notifications.EntityRef{Kind: notifications.EntityApplication, ID: e.ApplicationID},
		Context: map[string]string{
			"application_id": e.ApplicationID,
			"job_id":         e.JobID,
			"job_title":      e.JobTitle,
			"applicant_id":   e.ApplicantID,
			"applicant_name": e.ApplicantName,
		},
	})
}

// ApplicationStatusChanged notifies the applying seeker. An unchanged status is ignored.
func (t *Triggers) ApplicationStatusChanged(ctx context.Context, e ApplicationStatusChanged) error {
	if e.OldStatus == e.NewStatus {
		return nil
	}
	if e.SeekerID == "" {
		return ErrMissingRecipient
	}
	return t.fanOut(ctx, EventApplicationStatusChanged, []string{e.SeekerID}, notifications.Request{
		Type:    notifications.TypeApplicationStatusChanged,
		Related: &notifications.EntityRef{Kind: notifications.EntityApplication, ID: e.ApplicationID},
		Context: map[string]string{
			"application_id": e.ApplicationID,
			"job_id":         e.JobID,
			"job_title":      e.JobTitle,
			"company_name":   e.CompanyName,
			"old_status":     e.OldStatus,
			"new_status":     e.NewStatus,
		},
	})
}

// MatchScoreCalculated notifies the scored seeker.
func (t *Triggers) MatchScoreCalculated(ctx context.Context, e MatchScoreCalculated) error {
	if e.SeekerID == "" {
		return ErrMissingRecipient
	}
	priority := notifications.PriorityNormal
	if e.Score >= HighMatchScore {
		priority = notifications.PriorityHigh
	}
	return t.fanOut(ctx, EventMatchScoreCalculated, []string{e.SeekerID}, notifications.Request{
		Type:     notifications.TypeMatchScoreCalculated,
		Priority: priority,
		Related:  &notifications.EntityRef{Kind: notifications.EntityJob, ID: e.JobID},
		Context: map[string]string{
			"job_id":       e.JobID,
			"job_title":    e.JobTitle,
			"company_name": e.CompanyName,
			"score":        strconv.FormatFloat(e.Score, 'f', -1, 64),
		},
	})
}

// fanOut runs req once per recipient. Failures are isolated per recipient.
func (t *Triggers) fanOut(ctx context.Context, event string, recipients []string, req notifications.Request) error {
	var errs []error
	for _, userID := range recipients {
		r := req
		r.UserID = userID
		if err := t.notifyOne(ctx, r); err != nil {
			t.logger.LogAttrs(ctx, slog.LevelError, "Failed to notify recipient",
				logger.Event(event),
				logger.UserID(userID),
				logger.NotificationType(req.Type),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s for user %s: %w", event, userID, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Triggers) notifyOne(ctx context.Context, req notifications.Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrRecipientPanic, p)
		}
	}()
	_, err = t.notifier.Notify(ctx, req)
	return err
}
