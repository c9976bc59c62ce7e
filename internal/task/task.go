package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	// TaskTypeHintGeneration generates a hint for a delivered question
	TaskTypeHintGeneration = "hint_generation"

	// TaskTypeFeedbackGeneration reviews a recorded answer
	TaskTypeFeedbackGeneration = "feedback_generation"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Record is the persisted form of a task, as loaded from the store during
// recovery. A Factory turns it back into a runnable Task.
type Record struct {
	ID      uuid.UUID
	Type    string
	Payload []byte
	Status  TaskStatus
}

// Factory reconstructs a runnable task from its persisted payload.
type Factory func(id uuid.UUID, payload []byte) (Task, error)

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// ListByStatus retrieves task records with the given status.
	// If olderThan is non-zero, only records last updated before that
	// cutoff are returned.
	ListByStatus(ctx context.Context, status TaskStatus, olderThan time.Duration) ([]Record, error)

	// WithTx returns a TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
