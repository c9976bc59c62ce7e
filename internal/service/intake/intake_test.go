package intake

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/store"
)

type recordKey struct {
	userID     int64
	questionID int64
}

type fakeProgressStore struct {
	sessions map[int64]*domain.SessionState
	records  map[recordKey]*domain.AnswerRecord
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{
		sessions: make(map[int64]*domain.SessionState),
		records:  make(map[recordKey]*domain.AnswerRecord),
	}
}

func (f *fakeProgressStore) session(userID int64) *domain.SessionState {
	if f.sessions[userID] == nil {
		f.sessions[userID] = domain.NewSessionState(userID)
	}
	return f.sessions[userID]
}

func (f *fakeProgressStore) MarkSent(ctx context.Context, userID int64, questionIDs []int64) error {
	now := time.Now().UTC()
	for _, id := range questionIDs {
		f.records[recordKey{userID, id}] = &domain.AnswerRecord{
			UserID: userID, QuestionID: id, Status: domain.StatusSent, SentAt: now,
		}
	}
	return nil
}

func (f *fakeProgressStore) SaveAnswer(ctx context.Context, userID, questionID int64, text string) error {
	now := time.Now().UTC()
	f.records[recordKey{userID, questionID}] = &domain.AnswerRecord{
		UserID: userID, QuestionID: questionID, Status: domain.StatusAnswered,
		SentAt: now, AnsweredAt: &now, AnswerText: text,
	}
	return nil
}

func (f *fakeProgressStore) SaveHint(ctx context.Context, userID, questionID int64, text string) error {
	rec, ok := f.records[recordKey{userID, questionID}]
	if !ok {
		now := time.Now().UTC()
		rec = &domain.AnswerRecord{
			UserID: userID, QuestionID: questionID, Status: domain.StatusSent, SentAt: now,
		}
		f.records[recordKey{userID, questionID}] = rec
	}
	rec.HintText = text
	return nil
}

func (f *fakeProgressStore) SaveFeedback(ctx context.Context, userID, questionID int64, text string) error {
	rec, ok := f.records[recordKey{userID, questionID}]
	if !ok || rec.Status != domain.StatusAnswered || rec.AnswerText == "" {
		return store.ErrRecordNotFound
	}
	rec.FeedbackText = text
	return nil
}

func (f *fakeProgressStore) GetRecord(ctx context.Context, userID, questionID int64) (*domain.AnswerRecord, error) {
	rec, ok := f.records[recordKey{userID, questionID}]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeProgressStore) ListAnswered(ctx context.Context, userID int64) ([]store.AnsweredQuestion, error) {
	return nil, nil
}

func (f *fakeProgressStore) CountByStatus(ctx context.Context, userID int64) (store.StatusCounts, error) {
	return store.StatusCounts{}, nil
}

func (f *fakeProgressStore) DeleteRecords(ctx context.Context, userID int64) error {
	return nil
}

func (f *fakeProgressStore) GetSession(ctx context.Context, userID int64) (*domain.SessionState, error) {
	s := f.session(userID)
	copied := *s
	return &copied, nil
}

func (f *fakeProgressStore) SetAwaiting(ctx context.Context, userID int64, questionID *int64) error {
	f.session(userID).AwaitingQuestionID = questionID
	return nil
}

func (f *fakeProgressStore) SetPending(ctx context.Context, userID int64, questionIDs []int64) error {
	f.session(userID).PendingQuestionIDs = questionIDs
	return nil
}

func (f *fakeProgressStore) PopPending(ctx context.Context, userID int64) (int64, bool, error) {
	id, ok := f.session(userID).PopPending()
	return id, ok, nil
}

func (f *fakeProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return f
}

func newTestService(progress *fakeProgressStore) *Service {
	s := &Service{
		progress: progress,
		logger:   slog.Default(),
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	return s
}

func TestSubmitAnswer(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: 1, ChatID: 100, Active: true}

	t.Run("records answer and clears awaited pointer", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		awaited := int64(7)
		require.NoError(t, progress.SetAwaiting(context.Background(), user.ID, &awaited))

		result, err := svc.SubmitAnswer(context.Background(), user, "my answer")
		require.NoError(t, err)
		assert.Equal(t, OutcomeRecorded, result.Outcome)
		assert.Equal(t, int64(7), result.QuestionID)

		rec, err := progress.GetRecord(context.Background(), user.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAnswered, rec.Status)
		assert.Equal(t, "my answer", rec.AnswerText)

		session, err := progress.GetSession(context.Background(), user.ID)
		require.NoError(t, err)
		assert.False(t, session.Awaiting())
	})

	t.Run("removes the answered question from a corrupted pending queue", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		awaited := int64(7)
		require.NoError(t, progress.SetAwaiting(context.Background(), user.ID, &awaited))
		require.NoError(t, progress.SetPending(context.Background(), user.ID, []int64{7, 8}))

		result, err := svc.SubmitAnswer(context.Background(), user, "my answer")
		require.NoError(t, err)
		assert.Equal(t, OutcomeRecorded, result.Outcome)

		session, err := progress.GetSession(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{8}, session.PendingQuestionIDs)
	})

	t.Run("nothing awaited leaves state untouched", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		result, err := svc.SubmitAnswer(context.Background(), user, "stray text")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNothingAwaited, result.Outcome)
		assert.Empty(t, progress.records)
	})

	t.Run("blank text keeps the question awaited", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		awaited := int64(7)
		require.NoError(t, progress.SetAwaiting(context.Background(), user.ID, &awaited))

		result, err := svc.SubmitAnswer(context.Background(), user, "   \n\t ")
		require.NoError(t, err)
		assert.Equal(t, OutcomeEmpty, result.Outcome)

		session, err := progress.GetSession(context.Background(), user.ID)
		require.NoError(t, err)
		require.True(t, session.Awaiting())
		assert.Equal(t, int64(7), *session.AwaitingQuestionID)
	})
}

func TestAttachFeedback(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: 1, ChatID: 100, Active: true}

	t.Run("attaches to an answered record", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		require.NoError(t, progress.SaveAnswer(context.Background(), user.ID, 3, "the answer"))
		require.NoError(t, svc.AttachFeedback(context.Background(), user.ID, 3, "good job"))

		rec, err := progress.GetRecord(context.Background(), user.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, "good job", rec.FeedbackText)
	})

	t.Run("missing record reports ErrFeedbackUnavailable", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		err := svc.AttachFeedback(context.Background(), user.ID, 99, "unattachable")
		assert.ErrorIs(t, err, ErrFeedbackUnavailable)
	})

	t.Run("sent-only record reports ErrFeedbackUnavailable", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		require.NoError(t, progress.MarkSent(context.Background(), user.ID, []int64{4}))

		err := svc.AttachFeedback(context.Background(), user.ID, 4, "too early")
		assert.ErrorIs(t, err, ErrFeedbackUnavailable)
	})
}

func TestAttachHint(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: 1, ChatID: 100, Active: true}

	t.Run("creates a record when none exists", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		require.NoError(t, svc.AttachHint(context.Background(), user.ID, 5, "think recursion"))

		rec, err := progress.GetRecord(context.Background(), user.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, "think recursion", rec.HintText)
		assert.Equal(t, domain.StatusSent, rec.Status)
	})
}

func TestCancelAwaiting(t *testing.T) {
	t.Parallel()

	progress := newFakeProgressStore()
	svc := newTestService(progress)

	awaited := int64(9)
	require.NoError(t, progress.SetAwaiting(context.Background(), 1, &awaited))
	require.NoError(t, svc.CancelAwaiting(context.Background(), 1))

	session, err := progress.GetSession(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, session.Awaiting())
}

func TestReopenAnswer(t *testing.T) {
	t.Parallel()

	t.Run("re-awaits an existing record", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		require.NoError(t, progress.SaveAnswer(context.Background(), 1, 6, "first try"))
		require.NoError(t, svc.ReopenAnswer(context.Background(), 1, 6))

		session, err := progress.GetSession(context.Background(), 1)
		require.NoError(t, err)
		require.True(t, session.Awaiting())
		assert.Equal(t, int64(6), *session.AwaitingQuestionID)
	})

	t.Run("missing record fails", func(t *testing.T) {
		t.Parallel()

		progress := newFakeProgressStore()
		svc := newTestService(progress)

		err := svc.ReopenAnswer(context.Background(), 1, 42)
		assert.Error(t, err)
	})
}
