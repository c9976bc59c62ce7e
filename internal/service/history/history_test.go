package history

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devprep/interview-bot/internal/store"
)

type fakeProgressStore struct {
	store.ProgressStore

	counts    store.StatusCounts
	deleted   bool
	awaitNil  bool
	pendNil   bool
	sessionID int64
}

func (f *fakeProgressStore) CountByStatus(ctx context.Context, userID int64) (store.StatusCounts, error) {
	return f.counts, nil
}

func (f *fakeProgressStore) DeleteRecords(ctx context.Context, userID int64) error {
	f.deleted = true
	return nil
}

func (f *fakeProgressStore) SetAwaiting(ctx context.Context, userID int64, questionID *int64) error {
	f.awaitNil = questionID == nil
	f.sessionID = userID
	return nil
}

func (f *fakeProgressStore) SetPending(ctx context.Context, userID int64, questionIDs []int64) error {
	f.pendNil = len(questionIDs) == 0
	return nil
}

func (f *fakeProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return f
}

type fakeQuestionStore struct {
	store.QuestionStore

	total int64
}

func (f *fakeQuestionStore) Count(ctx context.Context) (int64, error) {
	return f.total, nil
}

func newTestService(progress *fakeProgressStore, questions *fakeQuestionStore) *Service {
	s := &Service{
		progress:  progress,
		questions: questions,
		logger:    slog.Default(),
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	return s
}

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("computes remaining from total and answered", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(
			&fakeProgressStore{counts: store.StatusCounts{Answered: 30, Sent: 2}},
			&fakeQuestionStore{total: 100},
		)

		stats, err := svc.Stats(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), stats.TotalQuestions)
		assert.Equal(t, 30, stats.Answered)
		assert.Equal(t, 2, stats.Sent)
		assert.Equal(t, int64(70), stats.Remaining)
	})

	t.Run("remaining never goes negative", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(
			&fakeProgressStore{counts: store.StatusCounts{Answered: 10}},
			&fakeQuestionStore{total: 5},
		)

		stats, err := svc.Stats(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.Remaining)
	})
}

func TestReset(t *testing.T) {
	t.Parallel()

	progress := &fakeProgressStore{}
	svc := newTestService(progress, &fakeQuestionStore{})

	require.NoError(t, svc.Reset(context.Background(), 7))

	assert.True(t, progress.deleted)
	assert.True(t, progress.awaitNil)
	assert.True(t, progress.pendNil)
	assert.Equal(t, int64(7), progress.sessionID)
}
