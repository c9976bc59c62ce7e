// Package intake records user answers against the awaited question and
// attaches generated annotations (hints, feedback) to answer records.
package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/store"
)

// Outcome classifies what happened to a submitted answer.
type Outcome int

const (
	// OutcomeRecorded means the answer was stored and the awaited pointer cleared.
	OutcomeRecorded Outcome = iota

	// OutcomeNothingAwaited means the user has no question awaiting an answer.
	OutcomeNothingAwaited

	// OutcomeEmpty means the submitted text was blank after trimming.
	OutcomeEmpty
)

// Result reports the outcome of an answer submission. QuestionID is set
// only when the outcome is OutcomeRecorded.
type Result struct {
	Outcome    Outcome
	QuestionID int64
}

// ErrFeedbackUnavailable indicates feedback cannot attach because the
// record is missing, unanswered, or has an empty answer.
var ErrFeedbackUnavailable = errors.New("no answered record to attach feedback to")

// Service implements answer recording and annotation.
type Service struct {
	db       *sql.DB
	progress store.ProgressStore
	logger   *slog.Logger

	// runTx wraps the transactional body; replaced in tests.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewService creates an intake service.
func NewService(db *sql.DB, progress store.ProgressStore, log *slog.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		db:       db,
		progress: progress,
		logger:   log.With(slog.String("component", "intake_service")),
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, s.db, fn)
	}
	return s, nil
}

// SubmitAnswer records free text against the user's awaited question.
//
// When nothing is awaited or the text is blank, the session is left
// untouched and the outcome says why. A recorded answer clears the awaited
// pointer in the same transaction, so the at-most-one-awaited invariant
// holds across the transition.
func (s *Service) SubmitAnswer(ctx context.Context, user *domain.User, text string) (Result, error) {
	var result Result

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progress := s.progress.WithTx(tx)

		session, err := progress.GetSession(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		if !session.Awaiting() {
			result = Result{Outcome: OutcomeNothingAwaited}
			return nil
		}

		if strings.TrimSpace(text) == "" {
			result = Result{Outcome: OutcomeEmpty}
			return nil
		}

		questionID := *session.AwaitingQuestionID
		if err := progress.SaveAnswer(ctx, user.ID, questionID, text); err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}
		if err := progress.SetAwaiting(ctx, user.ID, nil); err != nil {
			return fmt.Errorf("failed to clear awaited question: %w", err)
		}

		// The awaited question should never sit in the pending queue, but a
		// violated invariant must not deliver the same question twice.
		if session.RemovePending(questionID) {
			s.logger.Warn("awaited question found in pending queue",
				slog.Int64("user_id", user.ID),
				slog.Int64("question_id", questionID))
			if err := progress.SetPending(ctx, user.ID, session.PendingQuestionIDs); err != nil {
				return fmt.Errorf("failed to repair pending queue: %w", err)
			}
		}

		result = Result{Outcome: OutcomeRecorded, QuestionID: questionID}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if result.Outcome == OutcomeRecorded {
		s.logger.Info("answer recorded",
			slog.Int64("user_id", user.ID),
			slog.Int64("question_id", result.QuestionID))
	}

	return result, nil
}

// ReopenAnswer re-awaits an already delivered question so the user can
// replace their answer. The question must exist in the catalog.
func (s *Service) ReopenAnswer(ctx context.Context, userID, questionID int64) error {
	return s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progress := s.progress.WithTx(tx)

		if _, err := progress.GetRecord(ctx, userID, questionID); err != nil {
			return fmt.Errorf("failed to load record for reopen: %w", err)
		}
		if err := progress.SetAwaiting(ctx, userID, &questionID); err != nil {
			return fmt.Errorf("failed to re-await question: %w", err)
		}
		return nil
	})
}

// CancelAwaiting clears the awaited pointer without recording anything,
// e.g. when the user backs out to the menu.
func (s *Service) CancelAwaiting(ctx context.Context, userID int64) error {
	return s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.progress.WithTx(tx).SetAwaiting(ctx, userID, nil)
	})
}

// AttachHint stores a generated hint on the record for (user, question),
// creating a sent-status record when none exists yet.
func (s *Service) AttachHint(ctx context.Context, userID, questionID int64, text string) error {
	return s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.progress.WithTx(tx).SaveHint(ctx, userID, questionID, text); err != nil {
			return fmt.Errorf("failed to save hint: %w", err)
		}
		return nil
	})
}

// AttachFeedback stores generated feedback on an answered record.
// Returns ErrFeedbackUnavailable when the record is not in a state that
// accepts feedback.
func (s *Service) AttachFeedback(ctx context.Context, userID, questionID int64, text string) error {
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.progress.WithTx(tx).SaveFeedback(ctx, userID, questionID, text)
	})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrFeedbackUnavailable
		}
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// Record returns the answer record for (user, question).
func (s *Service) Record(ctx context.Context, userID, questionID int64) (*domain.AnswerRecord, error) {
	return s.progress.GetRecord(ctx, userID, questionID)
}
