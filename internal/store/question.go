package store

import (
	"context"
	"database/sql"

	"github.com/devprep/interview-bot/internal/domain"
)

// QuestionFilter narrows and bounds a catalog listing. All conditions are
// combined with AND. Results are always ordered difficulty descending,
// ID ascending, so a given filter produces the same list every time; the
// selection engine depends on that for reproducible picks.
type QuestionFilter struct {
	// ExcludeAnsweredBy, when non-zero, excludes questions the given user has
	// already answered. Questions merely sent but unanswered stay eligible.
	ExcludeAnsweredBy int64

	// ExcludeIDs excludes specific question IDs regardless of answer state.
	ExcludeIDs []int64

	// DifficultyAbove, when set, keeps only questions with difficulty
	// strictly greater than the value.
	DifficultyAbove *int

	// DifficultyAtMost, when set, keeps only questions with difficulty less
	// than or equal to the value.
	DifficultyAtMost *int

	// Limit bounds the number of rows returned. Zero means no limit.
	Limit int
}

// QuestionStore defines the interface for question catalog persistence.
type QuestionStore interface {
	// GetByID retrieves a question by its unique ID.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Question, error)

	// GetByHash retrieves a question by its content hash.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetByHash(ctx context.Context, hash string) (*domain.Question, error)

	// Upsert inserts the question, or updates text and difficulty of the
	// existing row with the same content hash. Reports whether a new row was
	// created. This is the import path's idempotency guarantee.
	Upsert(ctx context.Context, q *domain.Question) (created bool, err error)

	// List returns catalog entries matching the filter, ordered by
	// difficulty descending then ID ascending.
	List(ctx context.Context, filter QuestionFilter) ([]domain.Question, error)

	// Count returns the total number of catalog entries.
	Count(ctx context.Context) (int64, error)

	// WithTx returns a QuestionStore bound to the provided transaction, so
	// that catalog reads see the same snapshot as the surrounding per-user
	// state transition.
	WithTx(tx *sql.Tx) QuestionStore
}
