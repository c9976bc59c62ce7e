package domain

// SessionState is the singleton per-user delivery state: the question the user
// currently owes an answer for, and the ordered queue of question IDs still to
// be delivered this cycle. The awaited question is never in the pending queue;
// it is popped out exactly once, before being shown.
//
// The state is persisted and mutated only under a per-user transaction so it
// survives process restarts without in-memory maps.
type SessionState struct {
	UserID             int64   `json:"user_id"`
	AwaitingQuestionID *int64  `json:"awaiting_question_id,omitempty"`
	PendingQuestionIDs []int64 `json:"pending_question_ids,omitempty"`
}

// NewSessionState creates an empty session for a user.
func NewSessionState(userID int64) *SessionState {
	return &SessionState{UserID: userID}
}

// Awaiting reports whether a question is currently awaited.
func (s *SessionState) Awaiting() bool {
	return s.AwaitingQuestionID != nil
}

// PopPending removes and returns the head of the pending queue.
// Returns false if the queue is empty.
func (s *SessionState) PopPending() (int64, bool) {
	if len(s.PendingQuestionIDs) == 0 {
		return 0, false
	}

	head := s.PendingQuestionIDs[0]
	s.PendingQuestionIDs = s.PendingQuestionIDs[1:]
	if len(s.PendingQuestionIDs) == 0 {
		s.PendingQuestionIDs = nil
	}
	return head, true
}

// RemovePending deletes the given question ID from the pending queue if
// present. Per the delivery invariant the awaited question should already be
// out of the queue; this exists so intake can tolerate a violated invariant
// instead of delivering the same question twice.
func (s *SessionState) RemovePending(questionID int64) bool {
	for i, id := range s.PendingQuestionIDs {
		if id == questionID {
			s.PendingQuestionIDs = append(s.PendingQuestionIDs[:i], s.PendingQuestionIDs[i+1:]...)
			if len(s.PendingQuestionIDs) == 0 {
				s.PendingQuestionIDs = nil
			}
			return true
		}
	}
	return false
}
