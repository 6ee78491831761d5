package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/jobnotify/pkg/pg"
)

type pinger func(ctx context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ok := pg.Healthcheck(pinger(func(context.Context) error { return nil }))
	assert.NoError(t, ok(context.Background()))

	cause := errors.New("connection refused")
	bad := pg.Healthcheck(pinger(func(context.Context) error { return cause }))
	err := bad(context.Background())
	assert.ErrorIs(t, err, pg.ErrHealthcheckFailed)
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "postgres:")
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "notification_templates_default_idx"})
	assert.True(t, pg.IsDuplicateKeyError(dup))
	assert.Equal(t, "notification_templates_default_idx", pg.ConstraintName(dup))

	other := &pgconn.PgError{Code: "23503"}
	assert.False(t, pg.IsDuplicateKeyError(other))
	assert.False(t, pg.IsDuplicateKeyError(nil))
	assert.Empty(t, pg.ConstraintName(errors.New("plain")))
}
