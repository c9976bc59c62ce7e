package task

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTaskStore is an in-memory TaskStore.
type fakeTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{records: make(map[uuid.UUID]*Record)}
}

func (s *fakeTaskStore) SaveTask(ctx context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[t.ID()] = &Record{ID: t.ID(), Type: t.Type(), Payload: t.Payload(), Status: t.Status()}
	return nil
}

func (s *fakeTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[taskID]; ok {
		rec.Status = status
	}
	return nil
}

func (s *fakeTaskStore) ListByStatus(ctx context.Context, status TaskStatus, olderThan time.Duration) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) status(taskID uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[taskID]; ok {
		return rec.Status
	}
	return ""
}

func (s *fakeTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

// stubTask runs a caller-provided function.
type stubTask struct {
	id      uuid.UUID
	execute func(ctx context.Context) error
	done    chan struct{}
}

func newStubTask(execute func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), execute: execute, done: make(chan struct{})}
}

func (t *stubTask) ID() uuid.UUID     { return t.id }
func (t *stubTask) Type() string      { return "stub" }
func (t *stubTask) Payload() []byte   { return []byte(`{}`) }
func (t *stubTask) Status() TaskStatus { return TaskStatusPending }

func (t *stubTask) Execute(ctx context.Context) error {
	defer close(t.done)
	return t.execute(ctx)
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for task execution")
	}
}

func TestRunnerSubmit(t *testing.T) {
	t.Parallel()

	t.Run("executes a submitted task and marks it completed", func(t *testing.T) {
		t.Parallel()

		store := newFakeTaskStore()
		runner := NewRunner(store, DefaultRunnerConfig(), nil)
		require.NoError(t, runner.Start())
		defer runner.Stop()

		task := newStubTask(func(ctx context.Context) error { return nil })
		require.NoError(t, runner.Submit(context.Background(), task))

		waitFor(t, task.done)
		assert.Eventually(t, func() bool {
			return store.status(task.id) == TaskStatusCompleted
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("failed task is marked failed", func(t *testing.T) {
		t.Parallel()

		store := newFakeTaskStore()
		runner := NewRunner(store, DefaultRunnerConfig(), nil)
		require.NoError(t, runner.Start())
		defer runner.Stop()

		task := newStubTask(func(ctx context.Context) error { return errors.New("boom") })
		require.NoError(t, runner.Submit(context.Background(), task))

		waitFor(t, task.done)
		assert.Eventually(t, func() bool {
			return store.status(task.id) == TaskStatusFailed
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("panicking task is contained and marked failed", func(t *testing.T) {
		t.Parallel()

		store := newFakeTaskStore()
		runner := NewRunner(store, DefaultRunnerConfig(), nil)
		require.NoError(t, runner.Start())
		defer runner.Stop()

		task := newStubTask(func(ctx context.Context) error { panic("kaboom") })
		require.NoError(t, runner.Submit(context.Background(), task))

		waitFor(t, task.done)
		assert.Eventually(t, func() bool {
			return store.status(task.id) == TaskStatusFailed
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func TestRunnerRecovery(t *testing.T) {
	t.Parallel()

	t.Run("rebuilds persisted tasks through the registered factory", func(t *testing.T) {
		t.Parallel()

		store := newFakeTaskStore()
		taskID := uuid.New()
		store.records[taskID] = &Record{
			ID: taskID, Type: "stub", Payload: []byte(`{}`), Status: TaskStatusPending,
		}

		rebuilt := newStubTask(func(ctx context.Context) error { return nil })
		rebuilt.id = taskID

		runner := NewRunner(store, DefaultRunnerConfig(), nil)
		runner.RegisterFactory("stub", func(id uuid.UUID, payload []byte) (Task, error) {
			return rebuilt, nil
		})
		require.NoError(t, runner.Start())
		defer runner.Stop()

		waitFor(t, rebuilt.done)
		assert.Eventually(t, func() bool {
			return store.status(taskID) == TaskStatusCompleted
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("interrupted processing tasks are reset and rerun", func(t *testing.T) {
		t.Parallel()

		store := newFakeTaskStore()
		taskID := uuid.New()
		store.records[taskID] = &Record{
			ID: taskID, Type: "stub", Payload: []byte(`{}`), Status: TaskStatusProcessing,
		}

		rebuilt := newStubTask(func(ctx context.Context) error { return nil })
		rebuilt.id = taskID

		runner := NewRunner(store, DefaultRunnerConfig(), nil)
		runner.RegisterFactory("stub", func(id uuid.UUID, payload []byte) (Task, error) {
			return rebuilt, nil
		})
		require.NoError(t, runner.Start())
		defer runner.Stop()

		waitFor(t, rebuilt.done)
	})

	t.Run("record without a factory is marked failed", func(t *testing.T) {
		t.Parallel()

		store := newFakeTaskStore()
		taskID := uuid.New()
		store.records[taskID] = &Record{
			ID: taskID, Type: "unknown", Payload: []byte(`{}`), Status: TaskStatusPending,
		}

		runner := NewRunner(store, DefaultRunnerConfig(), nil)
		require.NoError(t, runner.Start())
		defer runner.Stop()

		assert.Eventually(t, func() bool {
			return store.status(taskID) == TaskStatusFailed
		}, 5*time.Second, 10*time.Millisecond)
	})
}
