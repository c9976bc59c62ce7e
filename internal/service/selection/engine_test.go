package selection_test

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/service/selection"
	"github.com/devprep/interview-bot/internal/store"
)

// fakeQuestionStore is an in-memory QuestionStore honoring the filter
// semantics of the real store.
type fakeQuestionStore struct {
	questions []domain.Question
	answered  map[int64]map[int64]bool // userID -> questionID -> answered
}

func newFakeQuestionStore(difficulties ...int) *fakeQuestionStore {
	s := &fakeQuestionStore{answered: make(map[int64]map[int64]bool)}
	for i, d := range difficulties {
		s.questions = append(s.questions, domain.Question{
			ID:         int64(i + 1),
			Text:       "question",
			Difficulty: d,
		})
	}
	return s
}

func (s *fakeQuestionStore) markAnswered(userID int64, questionIDs ...int64) {
	if s.answered[userID] == nil {
		s.answered[userID] = make(map[int64]bool)
	}
	for _, id := range questionIDs {
		s.answered[userID][id] = true
	}
}

func (s *fakeQuestionStore) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	for _, q := range s.questions {
		if q.ID == id {
			q := q
			return &q, nil
		}
	}
	return nil, store.ErrQuestionNotFound
}

func (s *fakeQuestionStore) GetByHash(ctx context.Context, hash string) (*domain.Question, error) {
	return nil, store.ErrQuestionNotFound
}

func (s *fakeQuestionStore) Upsert(ctx context.Context, q *domain.Question) (bool, error) {
	s.questions = append(s.questions, *q)
	return true, nil
}

func (s *fakeQuestionStore) List(ctx context.Context, filter store.QuestionFilter) ([]domain.Question, error) {
	excluded := make(map[int64]bool)
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}

	var result []domain.Question
	for _, q := range s.questions {
		if excluded[q.ID] {
			continue
		}
		if filter.ExcludeAnsweredBy != 0 && s.answered[filter.ExcludeAnsweredBy][q.ID] {
			continue
		}
		if filter.DifficultyAbove != nil && q.Difficulty <= *filter.DifficultyAbove {
			continue
		}
		if filter.DifficultyAtMost != nil && q.Difficulty > *filter.DifficultyAtMost {
			continue
		}
		result = append(result, q)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Difficulty != result[j].Difficulty {
			return result[i].Difficulty > result[j].Difficulty
		}
		return result[i].ID < result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *fakeQuestionStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.questions)), nil
}

func (s *fakeQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return s
}

func ids(questions []domain.Question) []int64 {
	var out []int64
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func TestEngineSelect(t *testing.T) {
	t.Parallel()

	const userID = int64(1)

	t.Run("splits four hard one easy for default batch", func(t *testing.T) {
		t.Parallel()

		// IDs 1..10 with descending difficulty; threshold 5 puts IDs 1-5
		// in the high pool and 6-10 in the low pool.
		qs := newFakeQuestionStore(9, 9, 8, 7, 6, 5, 4, 3, 2, 1)
		engine, err := selection.NewEngine(qs, 5, 5, nil)
		require.NoError(t, err)

		picked, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4, 6}, ids(picked))
	})

	t.Run("is deterministic across calls", func(t *testing.T) {
		t.Parallel()

		qs := newFakeQuestionStore(9, 9, 8, 7, 6, 5, 4, 3, 2, 1)
		engine, err := selection.NewEngine(qs, 5, 5, nil)
		require.NoError(t, err)

		first, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		second, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, ids(first), ids(second))
	})

	t.Run("threshold boundary question goes to the low pool", func(t *testing.T) {
		t.Parallel()

		// Every question sits exactly at the threshold, so the high pool
		// (strictly above) is empty and the top-up fills the batch.
		qs := newFakeQuestionStore(5, 5, 5, 5, 5, 5)
		engine, err := selection.NewEngine(qs, 5, 5, nil)
		require.NoError(t, err)

		picked, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(picked))
	})

	t.Run("answered questions are excluded and the batch tops up", func(t *testing.T) {
		t.Parallel()

		qs := newFakeQuestionStore(9, 9, 8, 7, 6, 5, 4, 3, 2, 1)
		qs.markAnswered(userID, 1, 2)

		engine, err := selection.NewEngine(qs, 5, 5, nil)
		require.NoError(t, err)

		picked, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4, 5, 6, 7}, ids(picked))
	})

	t.Run("nearly exhausted catalog yields a short batch", func(t *testing.T) {
		t.Parallel()

		qs := newFakeQuestionStore(9, 2)
		qs.markAnswered(userID, 1)

		engine, err := selection.NewEngine(qs, 5, 5, nil)
		require.NoError(t, err)

		picked, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, ids(picked))
	})

	t.Run("fully exhausted catalog yields an empty batch", func(t *testing.T) {
		t.Parallel()

		qs := newFakeQuestionStore(9, 2)
		qs.markAnswered(userID, 1, 2)

		engine, err := selection.NewEngine(qs, 5, 5, nil)
		require.NoError(t, err)

		picked, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, picked)
	})

	t.Run("non-default batch size uses rounded 80 percent split", func(t *testing.T) {
		t.Parallel()

		// perDay=10 -> 8 hard + 2 easy.
		qs := newFakeQuestionStore(9, 9, 9, 8, 8, 8, 7, 7, 6, 6, 5, 4, 3, 2, 1)
		engine, err := selection.NewEngine(qs, 10, 5, nil)
		require.NoError(t, err)

		picked, err := engine.Select(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, picked, 10)
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 11, 12}, ids(picked))
	})

	t.Run("rejects non-positive batch size", func(t *testing.T) {
		t.Parallel()

		qs := newFakeQuestionStore(5)
		_, err := selection.NewEngine(qs, 0, 5, nil)
		assert.Error(t, err)
	})
}
