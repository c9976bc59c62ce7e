package domain

import (
	"errors"
	"time"
)

// AnswerStatus represents the lifecycle state of an answer record.
type AnswerStatus string

// Possible answer record states. A record is created in StatusSent when the
// question is committed for delivery, and moves to StatusAnswered once intake
// stores the user's text. There is no transition back.
const (
	StatusSent     AnswerStatus = "sent"
	StatusAnswered AnswerStatus = "answered"
)

// Answer record validation errors
var (
	ErrEmptyRecordUserID     = errors.New("answer record user ID cannot be empty")
	ErrEmptyRecordQuestionID = errors.New("answer record question ID cannot be empty")
	ErrInvalidAnswerStatus   = errors.New("invalid answer record status")
)

// AnswerRecord tracks one user's association with one question. The
// (UserID, QuestionID) pair is unique. Hint and feedback texts are side
// annotations written by the AI tasks, independent of the status lifecycle.
type AnswerRecord struct {
	UserID       int64        `json:"user_id"`
	QuestionID   int64        `json:"question_id"`
	Status       AnswerStatus `json:"status"`
	SentAt       time.Time    `json:"sent_at"`
	AnsweredAt   *time.Time   `json:"answered_at,omitempty"`
	AnswerText   string       `json:"answer_text,omitempty"`
	FeedbackText string       `json:"feedback_text,omitempty"`
	HintText     string       `json:"hint_text,omitempty"`
}

// NewAnswerRecord creates a record in the sent state for a delivered question.
// Returns an error if validation fails.
func NewAnswerRecord(userID, questionID int64) (*AnswerRecord, error) {
	rec := &AnswerRecord{
		UserID:     userID,
		QuestionID: questionID,
		Status:     StatusSent,
		SentAt:     time.Now().UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the AnswerRecord has valid data.
func (r *AnswerRecord) Validate() error {
	if r.UserID == 0 {
		return ErrEmptyRecordUserID
	}

	if r.QuestionID == 0 {
		return ErrEmptyRecordQuestionID
	}

	if r.Status != StatusSent && r.Status != StatusAnswered {
		return ErrInvalidAnswerStatus
	}

	return nil
}

// Answered reports whether the record carries a recorded answer.
func (r *AnswerRecord) Answered() bool {
	return r.Status == StatusAnswered
}
