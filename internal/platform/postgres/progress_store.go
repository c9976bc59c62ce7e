package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/platform/logger"
	"github.com/devprep/interview-bot/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend. It owns the
// answer_records table and the user_sessions singleton rows.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// WithTx implements store.ProgressStore.WithTx
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

// MarkSent implements store.ProgressStore.MarkSent
// Records are upserted into the sent state before any message is pushed; this
// is the delivery commitment that makes retries after a crash idempotent.
func (s *PostgresProgressStore) MarkSent(ctx context.Context, userID int64, questionIDs []int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO answer_records (user_id, question_id, status, sent_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET status = EXCLUDED.status, sent_at = EXCLUDED.sent_at
	`

	now := time.Now().UTC()
	for _, questionID := range questionIDs {
		if _, err := s.db.ExecContext(ctx, query, userID, questionID, domain.StatusSent, now); err != nil {
			log.Error("failed to mark question sent",
				slog.String("error", err.Error()),
				slog.Int64("user_id", userID),
				slog.Int64("question_id", questionID))
			return MapError(err)
		}
	}

	return nil
}

// SaveAnswer implements store.ProgressStore.SaveAnswer
func (s *PostgresProgressStore) SaveAnswer(ctx context.Context, userID, questionID int64, text string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO answer_records (user_id, question_id, status, sent_at, answered_at, answer_text)
		VALUES ($1, $2, $3, $4, $4, $5)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET status = EXCLUDED.status,
		              answered_at = EXCLUDED.answered_at,
		              answer_text = EXCLUDED.answer_text
	`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query, userID, questionID, domain.StatusAnswered, now, text)
	if err != nil {
		log.Error("failed to save answer",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("question_id", questionID))
		return MapError(err)
	}

	return nil
}

// SaveHint implements store.ProgressStore.SaveHint
// Creates a sent-status record when none exists: hints can be requested
// before the question is answered.
func (s *PostgresProgressStore) SaveHint(ctx context.Context, userID, questionID int64, text string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO answer_records (user_id, question_id, status, sent_at, hint_text)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, question_id)
		DO UPDATE SET hint_text = EXCLUDED.hint_text
	`

	_, err := s.db.ExecContext(ctx, query, userID, questionID, domain.StatusSent, time.Now().UTC(), text)
	if err != nil {
		log.Error("failed to save hint",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("question_id", questionID))
		return MapError(err)
	}

	return nil
}

// SaveFeedback implements store.ProgressStore.SaveFeedback
// Feedback only attaches to an answered record with a non-empty answer;
// returns store.ErrRecordNotFound otherwise.
func (s *PostgresProgressStore) SaveFeedback(ctx context.Context, userID, questionID int64, text string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE answer_records
		SET feedback_text = $1
		WHERE user_id = $2
		  AND question_id = $3
		  AND status = 'answered'
		  AND COALESCE(answer_text, '') <> ''
	`

	result, err := s.db.ExecContext(ctx, query, text, userID, questionID)
	if err != nil {
		log.Error("failed to save feedback",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("question_id", questionID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "answer record"); err != nil {
		return store.ErrRecordNotFound
	}

	return nil
}

// GetRecord implements store.ProgressStore.GetRecord
// Returns store.ErrRecordNotFound if the record does not exist.
func (s *PostgresProgressStore) GetRecord(ctx context.Context, userID, questionID int64) (*domain.AnswerRecord, error) {
	query := `
		SELECT user_id, question_id, status, sent_at, answered_at,
		       COALESCE(answer_text, ''), COALESCE(feedback_text, ''), COALESCE(hint_text, '')
		FROM answer_records
		WHERE user_id = $1 AND question_id = $2
	`

	var rec domain.AnswerRecord
	err := s.db.QueryRowContext(ctx, query, userID, questionID).Scan(
		&rec.UserID,
		&rec.QuestionID,
		&rec.Status,
		&rec.SentAt,
		&rec.AnsweredAt,
		&rec.AnswerText,
		&rec.FeedbackText,
		&rec.HintText,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRecordNotFound
		}
		return nil, MapError(err)
	}

	return &rec, nil
}

// ListAnswered implements store.ProgressStore.ListAnswered
func (s *PostgresProgressStore) ListAnswered(ctx context.Context, userID int64) ([]store.AnsweredQuestion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ar.user_id, ar.question_id, ar.status, ar.sent_at, ar.answered_at,
		       COALESCE(ar.answer_text, ''), COALESCE(ar.feedback_text, ''), COALESCE(ar.hint_text, ''),
		       q.id, q.text, q.difficulty, q.content_hash, q.created_at
		FROM answer_records ar
		JOIN questions q ON q.id = ar.question_id
		WHERE ar.user_id = $1 AND ar.status = 'answered'
		ORDER BY ar.answered_at ASC, ar.question_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list answered records",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var result []store.AnsweredQuestion
	for rows.Next() {
		var aq store.AnsweredQuestion
		err := rows.Scan(
			&aq.Record.UserID,
			&aq.Record.QuestionID,
			&aq.Record.Status,
			&aq.Record.SentAt,
			&aq.Record.AnsweredAt,
			&aq.Record.AnswerText,
			&aq.Record.FeedbackText,
			&aq.Record.HintText,
			&aq.Question.ID,
			&aq.Question.Text,
			&aq.Question.Difficulty,
			&aq.Question.ContentHash,
			&aq.Question.CreatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		result = append(result, aq)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return result, nil
}

// CountByStatus implements store.ProgressStore.CountByStatus
func (s *PostgresProgressStore) CountByStatus(ctx context.Context, userID int64) (store.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'answered'),
			COUNT(*) FILTER (WHERE status = 'sent')
		FROM answer_records
		WHERE user_id = $1
	`

	var counts store.StatusCounts
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&counts.Answered, &counts.Sent)
	if err != nil {
		return store.StatusCounts{}, MapError(err)
	}

	return counts, nil
}

// DeleteRecords implements store.ProgressStore.DeleteRecords
// Deleting nothing is not an error: a fresh user resetting progress is a no-op.
func (s *PostgresProgressStore) DeleteRecords(ctx context.Context, userID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `DELETE FROM answer_records WHERE user_id = $1`, userID)
	if err != nil {
		log.Error("failed to delete answer records",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return MapError(err)
	}

	return nil
}

// GetSession implements store.ProgressStore.GetSession
// A user without a session row yields an empty state, not an error.
func (s *PostgresProgressStore) GetSession(ctx context.Context, userID int64) (*domain.SessionState, error) {
	query := `
		SELECT user_id, awaiting_question_id, pending_question_ids
		FROM user_sessions
		WHERE user_id = $1
	`

	session := domain.NewSessionState(userID)
	var pendingRaw []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&session.UserID,
		&session.AwaitingQuestionID,
		&pendingRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session, nil
		}
		return nil, MapError(err)
	}

	if len(pendingRaw) > 0 {
		if err := json.Unmarshal(pendingRaw, &session.PendingQuestionIDs); err != nil {
			return nil, fmt.Errorf("%w: malformed pending queue: %v", store.ErrInvalidEntity, err)
		}
	}

	return session, nil
}

// SetAwaiting implements store.ProgressStore.SetAwaiting
func (s *PostgresProgressStore) SetAwaiting(ctx context.Context, userID int64, questionID *int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO user_sessions (user_id, awaiting_question_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET awaiting_question_id = EXCLUDED.awaiting_question_id
	`

	_, err := s.db.ExecContext(ctx, query, userID, questionID)
	if err != nil {
		log.Error("failed to set awaiting question",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return MapError(err)
	}

	return nil
}

// SetPending implements store.ProgressStore.SetPending
func (s *PostgresProgressStore) SetPending(ctx context.Context, userID int64, questionIDs []int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var pending any
	if len(questionIDs) > 0 {
		raw, err := json.Marshal(questionIDs)
		if err != nil {
			return fmt.Errorf("failed to encode pending queue: %w", err)
		}
		pending = raw
	}

	query := `
		INSERT INTO user_sessions (user_id, pending_question_ids)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET pending_question_ids = EXCLUDED.pending_question_ids
	`

	_, err := s.db.ExecContext(ctx, query, userID, pending)
	if err != nil {
		log.Error("failed to set pending queue",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return MapError(err)
	}

	return nil
}

// PopPending implements store.ProgressStore.PopPending
// Must run inside the caller's transaction: the read-modify-write of the
// queue is only safe under the per-user serializing boundary.
func (s *PostgresProgressStore) PopPending(ctx context.Context, userID int64) (int64, bool, error) {
	session, err := s.GetSession(ctx, userID)
	if err != nil {
		return 0, false, err
	}

	head, ok := session.PopPending()
	if !ok {
		return 0, false, nil
	}

	if err := s.SetPending(ctx, userID, session.PendingQuestionIDs); err != nil {
		return 0, false, err
	}

	return head, true, nil
}
