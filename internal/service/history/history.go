// Package history exposes a user's quiz progress: statistics, the answered
// question log, and a full progress reset.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/devprep/interview-bot/internal/store"
)

// Stats summarizes a user's progress through the catalog.
type Stats struct {
	TotalQuestions int64
	Answered       int
	Sent           int
	Remaining      int64
}

// Service implements progress queries and reset.
type Service struct {
	db        *sql.DB
	progress  store.ProgressStore
	questions store.QuestionStore
	logger    *slog.Logger

	// runTx wraps the transactional body; replaced in tests.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewService creates a history service.
func NewService(db *sql.DB, progress store.ProgressStore, questions store.QuestionStore, log *slog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress store cannot be nil")
	}
	if questions == nil {
		return nil, fmt.Errorf("question store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		db:        db,
		progress:  progress,
		questions: questions,
		logger:    log.With(slog.String("component", "history_service")),
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, s.db, fn)
	}
	return s, nil
}

// Stats returns the user's progress counters.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	total, err := s.questions.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count questions: %w", err)
	}

	counts, err := s.progress.CountByStatus(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count records: %w", err)
	}

	remaining := total - int64(counts.Answered)
	if remaining < 0 {
		remaining = 0
	}

	return Stats{
		TotalQuestions: total,
		Answered:       counts.Answered,
		Sent:           counts.Sent,
		Remaining:      remaining,
	}, nil
}

// ListAnswered returns the user's answered questions in answer order.
func (s *Service) ListAnswered(ctx context.Context, userID int64) ([]store.AnsweredQuestion, error) {
	return s.progress.ListAnswered(ctx, userID)
}

// Reset wipes the user's answer records and session state. Every answered
// question becomes eligible for selection again.
func (s *Service) Reset(ctx context.Context, userID int64) error {
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progress := s.progress.WithTx(tx)

		if err := progress.DeleteRecords(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete records: %w", err)
		}
		if err := progress.SetAwaiting(ctx, userID, nil); err != nil {
			return fmt.Errorf("failed to clear awaited question: %w", err)
		}
		if err := progress.SetPending(ctx, userID, nil); err != nil {
			return fmt.Errorf("failed to clear pending queue: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("progress reset", slog.Int64("user_id", userID))
	return nil
}
