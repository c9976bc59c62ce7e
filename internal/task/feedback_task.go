package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/devprep/interview-bot/internal/generation"
)

// FeedbackTask reviews a recorded answer with the LLM and pushes the
// verdict to the user's chat.
type FeedbackTask struct {
	id          uuid.UUID
	payload     annotationPayload
	questions   QuestionService
	annotations AnnotationService
	generator   generation.Generator
	notifier    Notifier
	logger      *slog.Logger
	status      TaskStatus
}

// NewFeedbackTask creates a new feedback generation task
func NewFeedbackTask(
	id uuid.UUID,
	payload annotationPayload,
	questions QuestionService,
	annotations AnnotationService,
	generator generation.Generator,
	notifier Notifier,
	logger *slog.Logger,
) (*FeedbackTask, error) {
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

	return &FeedbackTask{
		id:          id,
		payload:     payload,
		questions:   questions,
		annotations: annotations,
		generator:   generator,
		notifier:    notifier,
		logger: logger.With(
			slog.String("task_type", TaskTypeFeedbackGeneration),
			slog.Int64("question_id", payload.QuestionID)),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *FeedbackTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *FeedbackTask) Type() string {
	return TaskTypeFeedbackGeneration
}

// Payload returns the task data as a byte slice
func (t *FeedbackTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		t.logger.Error("failed to marshal task payload", slog.String("error", err.Error()))
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *FeedbackTask) Status() TaskStatus {
	return t.status
}

// Execute loads the answered record, generates feedback against the
// question, stores it, and pushes it to the chat.
func (t *FeedbackTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting feedback generation task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	question, err := t.questions.GetByID(ctx, t.payload.QuestionID)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to retrieve question: %w", err)
	}

	record, err := t.annotations.Record(ctx, t.payload.UserID, t.payload.QuestionID)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to retrieve answer record: %w", err)
	}
	if !record.Answered() || strings.TrimSpace(record.AnswerText) == "" {
		t.status = TaskStatusFailed
		return fmt.Errorf("record for question %d holds no reviewable answer", t.payload.QuestionID)
	}

	feedback, err := t.generator.Generate(ctx, generation.FeedbackPrompt(question.Text, record.AnswerText, question.Difficulty))
	if err != nil {
		t.status = TaskStatusFailed
		if notifyErr := t.notifier.SendGenerationUnavailable(ctx, t.payload.ChatID); notifyErr != nil {
			t.logger.Error("failed to notify about unavailable feedback",
				slog.String("error", notifyErr.Error()))
		}
		return fmt.Errorf("failed to generate feedback: %w", err)
	}

	if err := t.annotations.AttachFeedback(ctx, t.payload.UserID, t.payload.QuestionID, feedback); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	if err := t.notifier.SendFeedback(ctx, t.payload.ChatID, *question, feedback); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to deliver feedback: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("feedback generation task completed")
	return nil
}
