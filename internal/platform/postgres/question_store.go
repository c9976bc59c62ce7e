package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/platform/logger"
	"github.com/devprep/interview-bot/internal/store"
)

// PostgresQuestionStore implements the store.QuestionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the
// QuestionStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// WithTx implements store.QuestionStore.WithTx
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID implements store.QuestionStore.GetByID
// Returns store.ErrQuestionNotFound if the question does not exist.
func (s *PostgresQuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, text, difficulty, content_hash, created_at
		FROM questions
		WHERE id = $1
	`

	var q domain.Question
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&q.ID,
		&q.Text,
		&q.Difficulty,
		&q.ContentHash,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question by ID",
			slog.String("error", err.Error()),
			slog.Int64("question_id", id))
		return nil, MapError(err)
	}

	return &q, nil
}

// GetByHash implements store.QuestionStore.GetByHash
// Returns store.ErrQuestionNotFound if the question does not exist.
func (s *PostgresQuestionStore) GetByHash(ctx context.Context, hash string) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, text, difficulty, content_hash, created_at
		FROM questions
		WHERE content_hash = $1
	`

	var q domain.Question
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&q.ID,
		&q.Text,
		&q.Difficulty,
		&q.ContentHash,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question by hash",
			slog.String("error", err.Error()),
			slog.String("content_hash", hash))
		return nil, MapError(err)
	}

	return &q, nil
}

// Upsert implements store.QuestionStore.Upsert
// It inserts the question, or updates text and difficulty of the existing row
// with the same content hash, keeping re-imports idempotent.
func (s *PostgresQuestionStore) Upsert(ctx context.Context, q *domain.Question) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := q.Validate(); err != nil {
		log.Warn("question validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("content_hash", q.ContentHash))
		return false, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO questions (text, difficulty, content_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_hash)
		DO UPDATE SET text = EXCLUDED.text, difficulty = EXCLUDED.difficulty
		RETURNING id, (xmax = 0)
	`

	var created bool
	err := s.db.QueryRowContext(
		ctx,
		query,
		q.Text,
		q.Difficulty,
		q.ContentHash,
		q.CreatedAt,
	).Scan(&q.ID, &created)
	if err != nil {
		log.Error("failed to upsert question",
			slog.String("error", err.Error()),
			slog.String("content_hash", q.ContentHash))
		return false, MapError(err)
	}

	return created, nil
}

// List implements store.QuestionStore.List
// Results are ordered by difficulty descending then ID ascending, which keeps
// selection deterministic and reproducible.
func (s *PostgresQuestionStore) List(ctx context.Context, filter store.QuestionFilter) ([]domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ExcludeAnsweredBy != 0 {
		conds = append(conds, fmt.Sprintf(`NOT EXISTS (
			SELECT 1 FROM answer_records ar
			WHERE ar.question_id = questions.id
			  AND ar.user_id = %s
			  AND ar.status = 'answered'
		)`, arg(filter.ExcludeAnsweredBy)))
	}

	if len(filter.ExcludeIDs) > 0 {
		conds = append(conds, fmt.Sprintf("NOT (id = ANY(%s))", arg(filter.ExcludeIDs)))
	}

	if filter.DifficultyAbove != nil {
		conds = append(conds, fmt.Sprintf("difficulty > %s", arg(*filter.DifficultyAbove)))
	}

	if filter.DifficultyAtMost != nil {
		conds = append(conds, fmt.Sprintf("difficulty <= %s", arg(*filter.DifficultyAtMost)))
	}

	query := "SELECT id, text, difficulty, content_hash, created_at FROM questions"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY difficulty DESC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %s", arg(filter.Limit))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list questions",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Difficulty, &q.ContentHash, &q.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return questions, nil
}

// Count implements store.QuestionStore.Count
func (s *PostgresQuestionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}
