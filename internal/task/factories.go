package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/devprep/interview-bot/internal/generation"
)

// AnnotationTaskFactory creates hint and feedback tasks, both for fresh
// submissions and for rebuilding persisted tasks during recovery.
type AnnotationTaskFactory struct {
	questions   QuestionService
	annotations AnnotationService
	generator   generation.Generator
	notifier    Notifier
	logger      *slog.Logger
}

// NewAnnotationTaskFactory creates a new factory for annotation tasks
func NewAnnotationTaskFactory(
	questions QuestionService,
	annotations AnnotationService,
	generator generation.Generator,
	notifier Notifier,
	logger *slog.Logger,
) (*AnnotationTaskFactory, error) {
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
		logger = slog.Default()
	}

	return &AnnotationTaskFactory{
		questions:   questions,
		annotations: annotations,
		generator:   generator,
		notifier:    notifier,
		logger:      logger.With(slog.String("component", "annotation_task_factory")),
	}, nil
}

// NewHint creates a hint generation task for the given user and question
func (f *AnnotationTaskFactory) NewHint(userID, questionID, chatID int64) (Task, error) {
	return NewHintTask(
		uuid.New(),
		annotationPayload{UserID: userID, QuestionID: questionID, ChatID: chatID},
		f.questions,
		f.annotations,
		f.generator,
		f.notifier,
		f.logger,
	)
}

// NewFeedback creates a feedback generation task for the given user and question
func (f *AnnotationTaskFactory) NewFeedback(userID, questionID, chatID int64) (Task, error) {
	return NewFeedbackTask(
		uuid.New(),
		annotationPayload{UserID: userID, QuestionID: questionID, ChatID: chatID},
		f.questions,
		f.annotations,
		f.generator,
		f.notifier,
		f.logger,
	)
}

// HintFactory returns the recovery Factory for hint tasks
func (f *AnnotationTaskFactory) HintFactory() Factory {
	return func(id uuid.UUID, raw []byte) (Task, error) {
		payload, err := decodePayload(raw)
		if err != nil {
			return nil, err
		}
		return NewHintTask(id, payload, f.questions, f.annotations, f.generator, f.notifier, f.logger)
	}
}

// FeedbackFactory returns the recovery Factory for feedback tasks
func (f *AnnotationTaskFactory) FeedbackFactory() Factory {
	return func(id uuid.UUID, raw []byte) (Task, error) {
		payload, err := decodePayload(raw)
		if err != nil {
			return nil, err
		}
		return NewFeedbackTask(id, payload, f.questions, f.annotations, f.generator, f.notifier, f.logger)
	}
}

func decodePayload(raw []byte) (annotationPayload, error) {
	var payload annotationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return annotationPayload{}, fmt.Errorf("failed to decode task payload: %w", err)
	}
	return payload, nil
}
