// Package delivery drives the question delivery state machine: starting a
// daily cycle for a user and advancing through the pending queue one
// question at a time.
//
// The invariant the package maintains is that a user awaits at most one
// question at any moment. Every transition (start, advance) updates the
// awaited pointer and the pending queue inside a single transaction, so a
// crash leaves the user in a consistent state.
package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/service/selection"
	"github.com/devprep/interview-bot/internal/store"
)

// Common sentinel errors for the delivery service
var (
	// ErrNoQuestionsLeft indicates the user has answered the whole catalog.
	ErrNoQuestionsLeft = errors.New("no unanswered questions left")

	// ErrQueueEmpty indicates the pending queue is exhausted for this cycle.
	ErrQueueEmpty = errors.New("question queue is empty")
)

// Messenger pushes questions to the user's chat. Implemented by the bot
// transport; declared here so the service does not depend on it.
type Messenger interface {
	// SendQuestion delivers a question to the chat.
	SendQuestion(ctx context.Context, chatID int64, question domain.Question) error
}

// Service implements cycle start and queue advancement.
type Service struct {
	db        *sql.DB
	progress  store.ProgressStore
	questions store.QuestionStore
	engine    *selection.Engine
	messenger Messenger
	logger    *slog.Logger

	// runTx wraps the transactional body; replaced in tests.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewService creates a delivery service.
// It returns an error if any of the required dependencies are nil.
func NewService(
	db *sql.DB,
	progress store.ProgressStore,
	questions store.QuestionStore,
	engine *selection.Engine,
	messenger Messenger,
	log *slog.Logger,
) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress store cannot be nil")
	}
	if questions == nil {
		return nil, fmt.Errorf("question store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("selection engine cannot be nil")
	}
	if messenger == nil {
		return nil, fmt.Errorf("messenger cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		db:        db,
		progress:  progress,
		questions: questions,
		engine:    engine,
		messenger: messenger,
		logger:    log.With(slog.String("component", "delivery_service")),
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, s.db, fn)
	}
	return s, nil
}

// StartCycle selects a fresh batch for the user, commits it as sent, and
// pushes the first question. Any previous pending queue and awaited pointer
// are replaced; re-running the cycle is how a stuck user recovers.
//
// Returns ErrNoQuestionsLeft when the catalog holds nothing new for the
// user.
func (s *Service) StartCycle(ctx context.Context, user *domain.User) error {
	var first domain.Question

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		batch, err := s.engine.WithTx(tx).Select(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("selection failed: %w", err)
		}
		if len(batch) == 0 {
			return ErrNoQuestionsLeft
		}

		progress := s.progress.WithTx(tx)

		ids := make([]int64, len(batch))
		for i, q := range batch {
			ids[i] = q.ID
		}

		// The sent commitment happens before any message is pushed, so a
		// crash between commit and push never re-selects a different batch.
		if err := progress.MarkSent(ctx, user.ID, ids); err != nil {
			return fmt.Errorf("failed to mark batch sent: %w", err)
		}

		first = batch[0]
		if err := progress.SetAwaiting(ctx, user.ID, &first.ID); err != nil {
			return fmt.Errorf("failed to set awaited question: %w", err)
		}
		if err := progress.SetPending(ctx, user.ID, ids[1:]); err != nil {
			return fmt.Errorf("failed to set pending queue: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("daily cycle started",
		slog.Int64("user_id", user.ID),
		slog.Int64("first_question_id", first.ID))

	if err := s.messenger.SendQuestion(ctx, user.ChatID, first); err != nil {
		return fmt.Errorf("failed to deliver first question: %w", err)
	}

	return nil
}

// Advance pops the user's pending queue until it finds a deliverable
// question, then marks it awaited and pushes it. Queue entries whose
// question has been deleted from the catalog are skipped; the loop is
// bounded because every pop shrinks the persisted queue.
//
// Returns ErrQueueEmpty when nothing deliverable remains. The awaited
// pointer is left as it is: an answer still in flight closes normally
// through intake.
func (s *Service) Advance(ctx context.Context, user *domain.User) error {
	var (
		next      domain.Question
		exhausted bool
	)

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progress := s.progress.WithTx(tx)
		questions := s.questions.WithTx(tx)

		for {
			id, ok, err := progress.PopPending(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to pop pending queue: %w", err)
			}
			if !ok {
				// Queue exhausted. The pops above must commit, so the signal
				// travels via a flag rather than an error. The awaited
				// pointer stays untouched.
				exhausted = true
				return nil
			}

			q, err := questions.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					s.logger.Warn("skipping queued question missing from catalog",
						slog.Int64("user_id", user.ID),
						slog.Int64("question_id", id))
					continue
				}
				return fmt.Errorf("failed to load queued question: %w", err)
			}

			next = *q
			if err := progress.SetAwaiting(ctx, user.ID, &next.ID); err != nil {
				return fmt.Errorf("failed to set awaited question: %w", err)
			}
			return nil
		}
	})
	if err != nil {
		return err
	}
	if exhausted {
		return ErrQueueEmpty
	}

	s.logger.Info("advanced to next question",
		slog.Int64("user_id", user.ID),
		slog.Int64("question_id", next.ID))

	if err := s.messenger.SendQuestion(ctx, user.ChatID, next); err != nil {
		return fmt.Errorf("failed to deliver next question: %w", err)
	}

	return nil
}
