package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/generation"
)

// Common errors
var (
	ErrNilQuestionService   = errors.New("question service cannot be nil")
	ErrNilAnnotationService = errors.New("annotation service cannot be nil")
	ErrNilGenerator         = errors.New("generator cannot be nil")
	ErrNilNotifier          = errors.New("notifier cannot be nil")
	ErrNilLogger            = errors.New("logger cannot be nil")
	ErrEmptyQuestionID      = errors.New("question ID cannot be empty")
)

// QuestionService provides read access to the question catalog
type QuestionService interface {
	// GetByID retrieves a question by its ID
	GetByID(ctx context.Context, id int64) (*domain.Question, error)
}

// AnnotationService persists generated annotations on answer records
type AnnotationService interface {
	// AttachHint stores a hint for (user, question)
	AttachHint(ctx context.Context, userID, questionID int64, text string) error

	// AttachFeedback stores feedback on an answered record
	AttachFeedback(ctx context.Context, userID, questionID int64, text string) error

	// Record retrieves the answer record for (user, question)
	Record(ctx context.Context, userID, questionID int64) (*domain.AnswerRecord, error)
}

// Notifier delivers generated results back to the user's chat. Implemented
// by the bot transport.
type Notifier interface {
	// SendHint delivers a generated hint
	SendHint(ctx context.Context, chatID int64, question domain.Question, hint string) error

	// SendFeedback delivers generated answer feedback
	SendFeedback(ctx context.Context, chatID int64, question domain.Question, feedback string) error

	// SendGenerationUnavailable tells the user generation did not work out
	SendGenerationUnavailable(ctx context.Context, chatID int64) error
}

// annotationPayload is the serialized data stored for hint and feedback tasks
type annotationPayload struct {
	UserID     int64 `json:"user_id"`
	QuestionID int64 `json:"question_id"`
	ChatID     int64 `json:"chat_id"`
}

// HintTask generates a hint for a delivered question and pushes it to the
// user's chat.
type HintTask struct {
	id          uuid.UUID
	payload     annotationPayload
	questions   QuestionService
	annotations AnnotationService
	generator   generation.Generator
	notifier    Notifier
	logger      *slog.Logger
	status      TaskStatus
}

// NewHintTask creates a new hint generation task
func NewHintTask(
	id uuid.UUID,
	payload annotationPayload,
	questions QuestionService,
	annotations AnnotationService,
	generator generation.Generator,
	notifier Notifier,
	logger *slog.Logger,
) (*HintTask, error) {
	if questions == nil {
		return nil, ErrNilQuestionService
	}
	if annotations == nil {
		return nil, ErrNilAnnotationService
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if payload.QuestionID == 0 {
		return nil, ErrEmptyQuestionID
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &HintTask{
		id:          id,
		payload:     payload,
		questions:   questions,
		annotations: annotations,
		generator:   generator,
		notifier:    notifier,
		logger: logger.With(
			slog.String("task_type", TaskTypeHintGeneration),
			slog.Int64("question_id", payload.QuestionID)),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *HintTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *HintTask) Type() string {
	return TaskTypeHintGeneration
}

// Payload returns the task data as a byte slice
func (t *HintTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		t.logger.Error("failed to marshal task payload", slog.String("error", err.Error()))
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *HintTask) Status() TaskStatus {
	return t.status
}

// Execute generates the hint, stores it on the answer record, and pushes
// it to the chat. When generation fails the user gets a fallback message
// and the task is marked failed.
func (t *HintTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting hint generation task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	question, err := t.questions.GetByID(ctx, t.payload.QuestionID)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to retrieve question: %w", err)
	}

	hint, err := t.generator.Generate(ctx, generation.HintPrompt(question.Text, question.Difficulty))
	if err != nil {
		t.status = TaskStatusFailed
		if notifyErr := t.notifier.SendGenerationUnavailable(ctx, t.payload.ChatID); notifyErr != nil {
			t.logger.Error("failed to notify about unavailable hint",
				slog.String("error", notifyErr.Error()))
		}
		return fmt.Errorf("failed to generate hint: %w", err)
	}

	if err := t.annotations.AttachHint(ctx, t.payload.UserID, t.payload.QuestionID, hint); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to store hint: %w", err)
	}

	if err := t.notifier.SendHint(ctx, t.payload.ChatID, *question, hint); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to deliver hint: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("hint generation task completed")
	return nil
}
