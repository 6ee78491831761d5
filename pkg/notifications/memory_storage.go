package notifications

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of Storage, PreferenceStorage,
// TemplateStorage and AddressBook. Suitable for development and testing.
type MemoryStorage struct {
	notifications map[string][]storedNotification // userID -> notifications in insertion order
	preferences   map[string]Preference
	templates     map[string]Template // name -> template
	addresses     map[string]string   // userID -> email
	seq           int64
	mu            sync.RWMutex
}

type storedNotification struct {
	Notification
	seq int64
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string][]storedNotification),
		preferences:   make(map[string]Preference),
		templates:     make(map[string]Template),
		addresses:     make(map[string]string),
	}
}

func (s *MemoryStorage) Create(_ context.Context, notif Notification) error {
	if notif.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidNotification)
	}
	if notif.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidNotification)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}
	s.seq++
	s.notifications[notif.UserID] = append(s.notifications[notif.UserID], storedNotification{
		Notification: notif,
		seq:          s.seq,
	})
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, userID, notifID string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications[userID] {
		if n.ID == notifID {
			// Return a copy to prevent external mutation of stored data
			notif := n.Notification
			return &notif, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(_ context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := opts.At()
	var filtered []storedNotification
	for _, n := range s.notifications[userID] {
		if !opts.IncludeExpired && n.IsExpired(now) {
			continue
		}
		if opts.OnlyUnread && n.IsRead {
			continue
		}
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, n.Type) {
			continue
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, n)
	}

	slices.SortFunc(filtered, func(a, b storedNotification) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	if !opts.Ascending {
		slices.Reverse(filtered)
	}

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}

	out := make([]Notification, 0, end-start)
	for _, n := range filtered[start:end] {
		out = append(out, n.Notification)
	}
	return out, nil
}

func (s *MemoryStorage) MarkRead(_ context.Context, userID string, now time.Time, notifIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := s.notifications[userID]
	for i := range notifications {
		if slices.Contains(notifIDs, notifications[i].ID) {
			notifications[i].MarkRead(now)
		}
	}
	return nil
}

func (s *MemoryStorage) MarkSent(_ context.Context, userID, notifID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := s.notifications[userID]
	for i := range notifications {
		if notifications[i].ID == notifID {
			notifications[i].MarkSent(now)
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (s *MemoryStorage) CountUnread(_ context.Context, userID string, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if !n.IsRead && !n.IsExpired(now) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) CreatePreference(_ context.Context, p Preference) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.preferences[p.UserID]; ok {
		return nil
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	s.preferences[p.UserID] = p.clone()
	return nil
}

func (s *MemoryStorage) GetPreference(_ context.Context, userID string) (Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.preferences[userID]
	if !ok {
		return Preference{}, ErrPreferenceNotFound
	}
	return p.clone(), nil
}

func (s *MemoryStorage) UpdatePreference(_ context.Context, p Preference) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.preferences[p.UserID]; !ok {
		return ErrPreferenceNotFound
	}
	p.UpdatedAt = time.Now()
	s.preferences[p.UserID] = p.clone()
	return nil
}

func (s *MemoryStorage) SaveTemplate(_ context.Context, t Template) error {
	if t.Name == "" {
		t.Name = fmt.Sprintf("%s_%s", t.Type, t.Channel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.IsDefault {
		for name, existing := range s.templates {
			if name != t.Name && existing.IsDefault && existing.Type == t.Type && existing.Channel == t.Channel {
				return fmt.Errorf("%w: %s/%s", ErrDuplicateDefaultTemplate, t.Type, t.Channel)
			}
		}
	}
	if t.ID == "" {
		t.ID = t.Name
	}
	s.templates[t.Name] = t
	return nil
}

func (s *MemoryStorage) FindTemplates(_ context.Context, typ Type) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Template
	for _, t := range s.templates {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrTemplateNotFound
	}
	slices.SortFunc(out, func(a, b Template) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// SetEmailAddress records the address notifications are emailed to.
func (s *MemoryStorage) SetEmailAddress(_ context.Context, userID, address string) error {
	if userID == "" || address == "" {
		return fmt.Errorf("%w: user id and address are required", ErrInvalidEmailAddress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[userID] = address
	return nil
}

// EmailAddress returns the recorded address or ErrEmailAddressNotFound.
func (s *MemoryStorage) EmailAddress(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr, ok := s.addresses[userID]
	if !ok {
		return "", ErrEmailAddressNotFound
	}
	return addr, nil
}
