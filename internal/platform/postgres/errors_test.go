package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/devprep/interview-bot/internal/platform/postgres"
	"github.com/devprep/interview-bot/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("sql.ErrNoRows maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		err := postgres.MapError(sql.ErrNoRows)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unique violation maps to ErrDuplicate", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "questions_content_hash_key"}
		err := postgres.MapError(fmt.Errorf("insert failed: %w", pgErr))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("foreign key violation maps to ErrInvalidEntity", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "answer_records_user_id_fkey"}
		err := postgres.MapError(pgErr)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("check violation maps to ErrInvalidEntity", func(t *testing.T) {
		t.Parallel()
		pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "questions_difficulty_check"}
		err := postgres.MapError(pgErr)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("unrelated errors pass through unchanged", func(t *testing.T) {
		t.Parallel()
		original := errors.New("connection refused")
		assert.Equal(t, original, postgres.MapError(original))
	})
}

func TestIsViolationHelpers(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: "23505"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, postgres.IsUniqueViolation(unique))
	assert.False(t, postgres.IsUniqueViolation(fk))
	assert.True(t, postgres.IsForeignKeyViolation(fk))
	assert.False(t, postgres.IsForeignKeyViolation(unique))
	assert.False(t, postgres.IsUniqueViolation(errors.New("plain")))
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("affected rows pass", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.CheckRowsAffected(fakeResult{rows: 1}, "user"))
	})

	t.Run("zero rows yields ErrNotFound", func(t *testing.T) {
		t.Parallel()
		err := postgres.CheckRowsAffected(fakeResult{rows: 0}, "user")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("nil result errors", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, postgres.CheckRowsAffected(nil, "user"))
	})

	t.Run("rows affected failure propagates", func(t *testing.T) {
		t.Parallel()
		err := postgres.CheckRowsAffected(fakeResult{err: errors.New("not supported")}, "user")
		assert.Error(t, err)
	})
}
