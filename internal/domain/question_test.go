package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devprep/interview-bot/internal/domain"
)

func TestNewQuestion(t *testing.T) {
	t.Parallel()

	t.Run("creates valid question with derived hash", func(t *testing.T) {
		t.Parallel()

		q, err := domain.NewQuestion("What is a goroutine?", 7)
		require.NoError(t, err)

		assert.Equal(t, "What is a goroutine?", q.Text)
		assert.Equal(t, 7, q.Difficulty)
		assert.Equal(t, domain.HashText("What is a goroutine?"), q.ContentHash)
		assert.False(t, q.CreatedAt.IsZero())
	})

	t.Run("rejects empty text", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewQuestion("", 3)
		assert.ErrorIs(t, err, domain.ErrQuestionTextEmpty)
	})

	t.Run("rejects out-of-range difficulty", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewQuestion("valid text", 10)
		assert.ErrorIs(t, err, domain.ErrQuestionDifficultyRange)

		_, err = domain.NewQuestion("valid text", -1)
		assert.ErrorIs(t, err, domain.ErrQuestionDifficultyRange)
	})

	t.Run("accepts difficulty bounds", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewQuestion("easiest", domain.MinDifficulty)
		assert.NoError(t, err)

		_, err = domain.NewQuestion("hardest", domain.MaxDifficulty)
		assert.NoError(t, err)
	})
}

func TestHashText(t *testing.T) {
	t.Parallel()

	t.Run("normalizes case and surrounding whitespace", func(t *testing.T) {
		t.Parallel()

		base := domain.HashText("what is a channel?")
		assert.Equal(t, base, domain.HashText("  What is a channel?  "))
		assert.Equal(t, base, domain.HashText("WHAT IS A CHANNEL?"))
	})

	t.Run("different text yields different hashes", func(t *testing.T) {
		t.Parallel()

		assert.NotEqual(t, domain.HashText("question one"), domain.HashText("question two"))
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, domain.HashText("stable"), domain.HashText("stable"))
	})
}
