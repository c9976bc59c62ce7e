package domain

import (
	"errors"
	"time"
)

// Difficulty score bounds. The score rates how often a question comes up in
// real interviews: 0 = rarely, 9 = almost always.
const (
	MinDifficulty = 0
	MaxDifficulty = 9
)

// Question-specific validation errors
var (
	// ErrQuestionTextEmpty is returned when a question's text is empty.
	ErrQuestionTextEmpty = errors.New("question text cannot be empty")

	// ErrQuestionHashEmpty is returned when a question's content hash is empty.
	ErrQuestionHashEmpty = errors.New("question content hash cannot be empty")

	// ErrQuestionDifficultyRange is returned when a question's difficulty is
	// outside the 0-9 range.
	ErrQuestionDifficultyRange = errors.New("question difficulty must be between 0 and 9")
)

// Question is an immutable catalog entry. Questions are created by the offline
// import process and keyed by ContentHash, which makes re-imports idempotent:
// the same text always maps to the same row, and only difficulty or text
// corrections mutate it afterwards.
type Question struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	Difficulty  int       `json:"difficulty"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewQuestion creates a Question with the content hash derived from the text.
// The ID is assigned by the store on insert.
// Returns an error if validation fails.
func NewQuestion(text string, difficulty int) (*Question, error) {
	q := &Question{
		Text:        text,
		Difficulty:  difficulty,
		ContentHash: HashText(text),
		CreatedAt:   time.Now().UTC(),
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return q, nil
}

// Validate checks if the Question has valid data.
// Returns an error if any field fails validation.
func (q *Question) Validate() error {
	if q.Text == "" {
		return ErrQuestionTextEmpty
	}

	if q.ContentHash == "" {
		return ErrQuestionHashEmpty
	}

	if q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty {
		return ErrQuestionDifficultyRange
	}

	return nil
}
