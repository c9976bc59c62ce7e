// Package selection implements the daily question picking algorithm: a
// deterministic difficulty-weighted split over the catalog of questions the
// user has not answered yet.
package selection

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/platform/logger"
	"github.com/devprep/interview-bot/internal/store"
)

// Engine picks the day's questions for a user.
//
// The pick is deterministic: pools are ordered by difficulty descending then
// ID ascending, so the same catalog state always yields the same batch. Any
// already-answered question is excluded permanently; sent-but-unanswered
// questions stay eligible and will be picked again.
type Engine struct {
	questions store.QuestionStore
	perDay    int
	threshold int
	logger    *slog.Logger
}

// NewEngine creates a selection engine.
// perDay is the batch size; threshold splits the catalog into the
// high-difficulty pool (difficulty strictly above it) and the low pool
// (difficulty at or below it).
func NewEngine(questions store.QuestionStore, perDay, threshold int, log *slog.Logger) (*Engine, error) {
	if questions == nil {
		return nil, fmt.Errorf("question store cannot be nil")
	}
	if perDay <= 0 {
		return nil, fmt.Errorf("questions per day must be positive, got %d", perDay)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		questions: questions,
		perDay:    perDay,
		threshold: threshold,
		logger:    log.With(slog.String("component", "selection_engine")),
	}, nil
}

// WithTx returns an Engine whose question store is bound to the given
// transaction. Selection must run inside the same transaction that records
// the sends, so the picked set and the sent set cannot diverge.
func (e *Engine) WithTx(tx *sql.Tx) *Engine {
	return &Engine{
		questions: e.questions.WithTx(tx),
		perDay:    e.perDay,
		threshold: e.threshold,
		logger:    e.logger,
	}
}

// highCount returns how many of the batch come from the high-difficulty
// pool. The default batch of five splits 4/1; other sizes use an 80% share
// rounded half away from zero.
func (e *Engine) highCount() int {
	if e.perDay == 5 {
		return 4
	}
	return int(math.Round(float64(e.perDay) * 0.8))
}

// Select picks up to perDay unanswered questions for the user.
// Returns fewer (possibly zero) questions when the catalog is nearly
// exhausted; an empty result is not an error.
func (e *Engine) Select(ctx context.Context, userID int64) ([]domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	highN := e.highCount()
	lowN := e.perDay - highN

	threshold := e.threshold

	// High pool: hardest unanswered questions above the threshold.
	high, err := e.questions.List(ctx, store.QuestionFilter{
		ExcludeAnsweredBy: userID,
		DifficultyAbove:   &threshold,
		Limit:             highN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list high-difficulty pool: %w", err)
	}

	picked := high
	chosen := questionIDs(picked)

	// Low pool: questions at or below the threshold, skipping already
	// picked ones.
	if lowN > 0 {
		low, err := e.questions.List(ctx, store.QuestionFilter{
			ExcludeAnsweredBy: userID,
			ExcludeIDs:        chosen,
			DifficultyAtMost:  &threshold,
			Limit:             lowN,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list low-difficulty pool: %w", err)
		}
		picked = append(picked, low...)
		chosen = questionIDs(picked)
	}

	// Top-up: when either pool ran short, fill the deficit from whatever
	// unanswered questions remain regardless of difficulty.
	if deficit := e.perDay - len(picked); deficit > 0 {
		extra, err := e.questions.List(ctx, store.QuestionFilter{
			ExcludeAnsweredBy: userID,
			ExcludeIDs:        chosen,
			Limit:             deficit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list top-up pool: %w", err)
		}
		picked = append(picked, extra...)
	}

	if len(picked) > e.perDay {
		picked = picked[:e.perDay]
	}

	log.Debug("selected daily questions",
		slog.Int64("user_id", userID),
		slog.Int("count", len(picked)),
		slog.Int("high_pool", len(high)))

	return picked, nil
}

func questionIDs(questions []domain.Question) []int64 {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}
