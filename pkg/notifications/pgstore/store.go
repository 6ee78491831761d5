package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/jobnotify/pkg/notifications"
	"github.com/dmitrymomot/jobnotify/pkg/pg"
)

const defaultTemplateIndex = "notification_templates_default_idx"

const notificationColumns = `id, user_id, type, priority, title, message, related_kind, related_id, data,
	is_read, read_at, is_sent, sent_at, created_at, expires_at`

// Store is a PostgreSQL implementation of notifications.Storage,
// notifications.PreferenceStorage, notifications.TemplateStorage and
// notifications.AddressBook.
type Store struct {
	db *sql.DB
}

// New creates a store on db. The schema must be migrated first.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	_ notifications.Storage           = (*Store)(nil)
	_ notifications.PreferenceStorage = (*Store)(nil)
	_ notifications.TemplateStorage   = (*Store)(nil)
	_ notifications.AddressBook       = (*Store)(nil)
)

func (s *Store) Create(ctx context.Context, n notifications.Notification) error {
	if n.ID == "" || n.UserID == "" {
		return fmt.Errorf("%w: id and user id are required", notifications.ErrInvalidNotification)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data, err := json.Marshal(nonNil(n.Data))
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	var relatedKind, relatedID sql.NullString
	if n.Related != nil {
		relatedKind = sql.NullString{String: n.Related.Kind, Valid: true}
		relatedID = sql.NullString{String: n.Related.ID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		n.ID, n.UserID, string(n.Type), string(n.Priority), n.Title, n.Message,
		relatedKind, relatedID, data,
		n.IsRead, nullTime(n.ReadAt), n.IsSent, nullTime(n.SentAt), n.CreatedAt, nullTime(n.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID, notifID string) (*notifications.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 AND id = $2`,
		userID, notifID,
	)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notifications.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) List(ctx context.Context, userID string, opts notifications.ListOptions) ([]notifications.Notification, error) {
	q := &query{}
	q.where("user_id = %s", userID)
	if !opts.IncludeExpired {
		q.where("(expires_at IS NULL OR expires_at > %s)", opts.At())
	}
	if opts.OnlyUnread {
		q.where("NOT is_read")
	}
	if len(opts.Types) > 0 {
		types := make([]any, len(opts.Types))
		for i, t := range opts.Types {
			types[i] = string(t)
		}
		q.whereIn("type", types)
	}
	if opts.Since != nil {
		q.where("created_at >= %s", *opts.Since)
	}

	order := "DESC"
	if opts.Ascending {
		order = "ASC"
	}
	stmt := fmt.Sprintf("SELECT %s FROM notifications WHERE %s ORDER BY created_at %s, seq %s",
		notificationColumns, q.clause(), order, order)
	if opts.Limit > 0 {
		stmt += " LIMIT " + q.arg(opts.Limit)
	}
	if opts.Offset > 0 {
		stmt += " OFFSET " + q.arg(opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []notifications.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, userID string, now time.Time, notifIDs ...string) error {
	if len(notifIDs) == 0 {
		return nil
	}

	q := &query{}
	q.where("user_id = %s", userID)
	q.where("NOT is_read")
	ids := make([]any, len(notifIDs))
	for i, id := range notifIDs {
		ids[i] = id
	}
	q.whereIn("id", ids)
	set := q.arg(now)

	if _, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE, read_at = "+set+" WHERE "+q.clause(),
		q.args...,
	); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *Store) MarkSent(ctx context.Context, userID, notifID string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_sent = TRUE, sent_at = COALESCE(sent_at, $3) WHERE user_id = $1 AND id = $2`,
		userID, notifID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return requireRow(res, notifications.ErrNotificationNotFound)
}

func (s *Store) CountUnread(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM notifications
		WHERE user_id = $1 AND NOT is_read AND (expires_at IS NULL OR expires_at > $2)`,
		userID, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *Store) CreatePreference(ctx context.Context, p notifications.Preference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	types, err := json.Marshal(p.Types)
	if err != nil {
		return fmt.Errorf("failed to encode preference types: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO notification_preferences
		(user_id, types, quiet_hours_enabled, quiet_hours_start, quiet_hours_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, types, p.QuietHours.Enabled, int(p.QuietHours.Start), int(p.QuietHours.End),
	)
	if err != nil {
		return fmt.Errorf("failed to create preference: %w", err)
	}
	return nil
}

func (s *Store) GetPreference(ctx context.Context, userID string) (notifications.Preference, error) {
	var (
		types      []byte
		start, end int
		p          = notifications.Preference{UserID: userID}
	)
	err := s.db.QueryRowContext(ctx, `SELECT types, quiet_hours_enabled, quiet_hours_start, quiet_hours_end, updated_at
		FROM notification_preferences WHERE user_id = $1`, userID,
	).Scan(&types, &p.QuietHours.Enabled, &start, &end, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return notifications.Preference{}, notifications.ErrPreferenceNotFound
	}
	if err != nil {
		return notifications.Preference{}, fmt.Errorf("failed to load preference: %w", err)
	}

	if err := json.Unmarshal(types, &p.Types); err != nil {
		return notifications.Preference{}, fmt.Errorf("failed to decode preference types: %w", err)
	}
	p.QuietHours.Start = notifications.Clock(start)
	p.QuietHours.End = notifications.Clock(end)
	return p, nil
}

func (s *Store) UpdatePreference(ctx context.Context, p notifications.Preference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	types, err := json.Marshal(p.Types)
	if err != nil {
		return fmt.Errorf("failed to encode preference types: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE notification_preferences
		SET types = $2, quiet_hours_enabled = $3, quiet_hours_start = $4, quiet_hours_end = $5, updated_at = now()
		WHERE user_id = $1`,
		p.UserID, types, p.QuietHours.Enabled, int(p.QuietHours.Start), int(p.QuietHours.End),
	)
	if err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}
	return requireRow(res, notifications.ErrPreferenceNotFound)
}

func (s *Store) SaveTemplate(ctx context.Context, t notifications.Template) error {
	if t.Name == "" {
		t.Name = fmt.Sprintf("%s_%s", t.Type, t.Channel)
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO notification_templates
		(name, type, channel, title_template, message_template, is_default)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			type = EXCLUDED.type,
			channel = EXCLUDED.channel,
			title_template = EXCLUDED.title_template,
			message_template = EXCLUDED.message_template,
			is_default = EXCLUDED.is_default`,
		t.Name, string(t.Type), string(t.Channel), t.TitleTemplate, t.MessageTemplate, t.IsDefault,
	)
	if pg.IsDuplicateKeyError(err) && pg.ConstraintName(err) == defaultTemplateIndex {
		return fmt.Errorf("%w: %s/%s", notifications.ErrDuplicateDefaultTemplate, t.Type, t.Channel)
	}
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

func (s *Store) FindTemplates(ctx context.Context, typ notifications.Type) ([]notifications.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, channel, title_template, message_template, is_default
		FROM notification_templates WHERE type = $1 ORDER BY name`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []notifications.Template
	for rows.Next() {
		var t notifications.Template
		if err := rows.Scan(&t.Name, &t.Type, &t.Channel, &t.TitleTemplate, &t.MessageTemplate, &t.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.ID = t.Name
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	if len(out) == 0 {
		return nil, notifications.ErrTemplateNotFound
	}
	return out, nil
}

func (s *Store) SetEmailAddress(ctx context.Context, userID, address string) error {
	if userID == "" || address == "" {
		return fmt.Errorf("%w: user id and address are required", notifications.ErrInvalidEmailAddress)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO notification_recipients (user_id, email, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()`,
		userID, address,
	)
	if err != nil {
		return fmt.Errorf("failed to save email address: %w", err)
	}
	return nil
}

func (s *Store) EmailAddress(ctx context.Context, userID string) (string, error) {
	var addr string
	err := s.db.QueryRowContext(ctx, `SELECT email FROM notification_recipients WHERE user_id = $1`, userID).Scan(&addr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notifications.ErrEmailAddressNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load email address: %w", err)
	}
	return addr, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (notifications.Notification, error) {
	var (
		n                       notifications.Notification
		relatedKind, relatedID  sql.NullString
		data                    []byte
		readAt, sentAt, expires sql.NullTime
	)
	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Priority, &n.Title, &n.Message,
		&relatedKind, &relatedID, &data,
		&n.IsRead, &readAt, &n.IsSent, &sentAt, &n.CreatedAt, &expires,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return n, err
		}
		return n, fmt.Errorf("failed to scan notification: %w", err)
	}

	if relatedKind.Valid {
		n.Related = &notifications.EntityRef{Kind: relatedKind.String, ID: relatedID.String}
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return n, fmt.Errorf("failed to decode notification data: %w", err)
		}
		if len(n.Data) == 0 {
			n.Data = nil
		}
	}
	n.ReadAt = timePtr(readAt)
	n.SentAt = timePtr(sentAt)
	n.ExpiresAt = timePtr(expires)
	return n, nil
}

// query accumulates a WHERE clause with numbered placeholders.
type query struct {
	conds []string
	args  []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// where adds a condition; a %s in cond is replaced by the placeholder for arg.
func (q *query) where(cond string, arg ...any) {
	if len(arg) == 0 {
		q.conds = append(q.conds, cond)
		return
	}
	q.conds = append(q.conds, fmt.Sprintf(cond, q.arg(arg[0])))
}

func (q *query) whereIn(column string, values []any) {
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = q.arg(v)
	}
	q.conds = append(q.conds, fmt.Sprintf("%s IN (%s)", column, strings.Join(ph, ", ")))
}

func (q *query) clause() string {
	return strings.Join(q.conds, " AND ")
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
