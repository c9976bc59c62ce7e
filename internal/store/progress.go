package store

import (
	"context"
	"database/sql"

	"github.com/devprep/interview-bot/internal/domain"
)

// StatusCounts summarizes a user's answer records by status.
type StatusCounts struct {
	Answered int
	Sent     int
}

// AnsweredQuestion pairs an answer record with its catalog question, as needed
// by the export formats.
type AnsweredQuestion struct {
	Record   domain.AnswerRecord
	Question domain.Question
}

// ProgressStore persists per-user answer records and the singleton session
// state (awaited question + pending queue).
//
// All mutating methods MUST run inside a transaction via WithTx and
// RunInTransaction; the delivery and intake state machines rely on
// commit-or-rollback atomicity across record and session updates.
type ProgressStore interface {
	// MarkSent upserts answer records for the given questions into the sent
	// state. This is the delivery commitment: it happens before any message
	// is pushed, so a crash after commit does not duplicate-select on retry.
	MarkSent(ctx context.Context, userID int64, questionIDs []int64) error

	// SaveAnswer upserts the record for (user, question) into the answered
	// state with the answer text and current timestamp.
	SaveAnswer(ctx context.Context, userID, questionID int64, text string) error

	// SaveHint stores a hint annotation, creating a sent-status record if
	// none exists (hints can be requested before answering).
	SaveHint(ctx context.Context, userID, questionID int64, text string) error

	// SaveFeedback stores a feedback annotation on an existing answered
	// record with a non-empty answer. Returns ErrRecordNotFound otherwise.
	SaveFeedback(ctx context.Context, userID, questionID int64, text string) error

	// GetRecord retrieves the record for (user, question).
	// Returns ErrRecordNotFound if it does not exist.
	GetRecord(ctx context.Context, userID, questionID int64) (*domain.AnswerRecord, error)

	// ListAnswered returns the user's answered records joined with their
	// questions, ordered by answer time.
	ListAnswered(ctx context.Context, userID int64) ([]AnsweredQuestion, error)

	// CountByStatus returns per-status record counts for the user.
	CountByStatus(ctx context.Context, userID int64) (StatusCounts, error)

	// DeleteRecords removes all of a user's answer records (progress reset).
	DeleteRecords(ctx context.Context, userID int64) error

	// GetSession returns the user's session state. A user without a session
	// row yields an empty state, not an error.
	GetSession(ctx context.Context, userID int64) (*domain.SessionState, error)

	// SetAwaiting sets or clears (nil) the awaited question ID.
	SetAwaiting(ctx context.Context, userID int64, questionID *int64) error

	// SetPending replaces the pending queue. An empty slice clears it.
	SetPending(ctx context.Context, userID int64, questionIDs []int64) error

	// PopPending removes and returns the queue head.
	// Returns ok=false when the queue is empty.
	PopPending(ctx context.Context, userID int64) (id int64, ok bool, err error)

	// WithTx returns a ProgressStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
