package generation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devprep/interview-bot/internal/generation"
)

func TestHintPrompt(t *testing.T) {
	t.Parallel()

	prompt := generation.HintPrompt("  What is a deadlock?  ", 7)

	assert.Contains(t, prompt, "What is a deadlock?")
	assert.Contains(t, prompt, "hint")
	assert.Contains(t, prompt, "NOT contain the full answer")
	assert.Contains(t, prompt, "frequency 7 out of 9")
	assert.NotContains(t, prompt, "  What is a deadlock?  ")
}

func TestFeedbackPrompt(t *testing.T) {
	t.Parallel()

	prompt := generation.FeedbackPrompt("What is a deadlock?", "When two goroutines wait on each other", 5)

	assert.Contains(t, prompt, "What is a deadlock?")
	assert.Contains(t, prompt, "When two goroutines wait on each other")
	assert.Contains(t, prompt, "frequency 5 out of 9")
	assert.Contains(t, prompt, "interviewer")
}

func TestDisabledGenerator(t *testing.T) {
	t.Parallel()

	gen := generation.NewDisabled()
	_, err := gen.Generate(context.Background(), "any prompt")
	assert.ErrorIs(t, err, generation.ErrNotConfigured)
}
