package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devprep/interview-bot/internal/domain"
)

func TestSessionStatePopPending(t *testing.T) {
	t.Parallel()

	t.Run("pops in order", func(t *testing.T) {
		t.Parallel()

		s := domain.NewSessionState(1)
		s.PendingQuestionIDs = []int64{10, 20, 30}

		id, ok := s.PopPending()
		require.True(t, ok)
		assert.Equal(t, int64(10), id)

		id, ok = s.PopPending()
		require.True(t, ok)
		assert.Equal(t, int64(20), id)

		assert.Equal(t, []int64{30}, s.PendingQuestionIDs)
	})

	t.Run("empty queue returns false", func(t *testing.T) {
		t.Parallel()

		s := domain.NewSessionState(1)
		_, ok := s.PopPending()
		assert.False(t, ok)
	})

	t.Run("queue becomes nil when drained", func(t *testing.T) {
		t.Parallel()

		s := domain.NewSessionState(1)
		s.PendingQuestionIDs = []int64{42}

		_, ok := s.PopPending()
		require.True(t, ok)
		assert.Nil(t, s.PendingQuestionIDs)
	})
}

func TestSessionStateRemovePending(t *testing.T) {
	t.Parallel()

	t.Run("removes matching ID", func(t *testing.T) {
		t.Parallel()

		s := domain.NewSessionState(1)
		s.PendingQuestionIDs = []int64{10, 20, 30}

		assert.True(t, s.RemovePending(20))
		assert.Equal(t, []int64{10, 30}, s.PendingQuestionIDs)
	})

	t.Run("missing ID reports false", func(t *testing.T) {
		t.Parallel()

		s := domain.NewSessionState(1)
		s.PendingQuestionIDs = []int64{10}

		assert.False(t, s.RemovePending(99))
		assert.Equal(t, []int64{10}, s.PendingQuestionIDs)
	})
}

func TestSessionStateAwaiting(t *testing.T) {
	t.Parallel()

	s := domain.NewSessionState(1)
	assert.False(t, s.Awaiting())

	id := int64(5)
	s.AwaitingQuestionID = &id
	assert.True(t, s.Awaiting())
}
