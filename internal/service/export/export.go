// Package export renders a user's answered history as downloadable
// documents (Markdown and CSV).
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devprep/interview-bot/internal/store"
)

// utf8BOM keeps Excel from misreading Cyrillic and other non-ASCII text in
// the CSV export.
const utf8BOM = "\xef\xbb\xbf"

// HistorySource supplies the answered records to render. Implemented by
// the history service.
type HistorySource interface {
	ListAnswered(ctx context.Context, userID int64) ([]store.AnsweredQuestion, error)
}

// Service renders export documents.
type Service struct {
	history HistorySource
}

// NewService creates an export service.
func NewService(history HistorySource) (*Service, error) {
	if history == nil {
		return nil, fmt.Errorf("history source cannot be nil")
	}
	return &Service{history: history}, nil
}

// Markdown renders the user's answered history as a Markdown document.
// Returns ok=false when there is nothing to export.
func (s *Service) Markdown(ctx context.Context, userID int64) (data []byte, ok bool, err error) {
	answered, err := s.history.ListAnswered(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list answered questions: %w", err)
	}
	if len(answered) == 0 {
		return nil, false, nil
	}

	var b strings.Builder
	b.WriteString("# Answered questions\n\n")
	fmt.Fprintf(&b, "Exported %s, %d questions.\n", time.Now().UTC().Format("2006-01-02"), len(answered))

	for i, aq := range answered {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, strings.TrimSpace(aq.Question.Text))
		fmt.Fprintf(&b, "*Difficulty: %d/9", aq.Question.Difficulty)
		if aq.Record.AnsweredAt != nil {
			fmt.Fprintf(&b, ", answered %s", aq.Record.AnsweredAt.UTC().Format("2006-01-02 15:04"))
		}
		b.WriteString("*\n\n")

		fmt.Fprintf(&b, "**Answer**\n\n%s\n", strings.TrimSpace(aq.Record.AnswerText))
		if aq.Record.HintText != "" {
			fmt.Fprintf(&b, "\n**Hint**\n\n%s\n", strings.TrimSpace(aq.Record.HintText))
		}
		if aq.Record.FeedbackText != "" {
			fmt.Fprintf(&b, "\n**Feedback**\n\n%s\n", strings.TrimSpace(aq.Record.FeedbackText))
		}
	}

	return []byte(b.String()), true, nil
}

// CSV renders the user's answered history as a UTF-8 CSV with a BOM
// prefix. Returns ok=false when there is nothing to export.
func (s *Service) CSV(ctx context.Context, userID int64) (data []byte, ok bool, err error) {
	answered, err := s.history.ListAnswered(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list answered questions: %w", err)
	}
	if len(answered) == 0 {
		return nil, false, nil
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	header := []string{"question_id", "question", "difficulty", "answered_at", "answer", "hint", "feedback"}
	if err := w.Write(header); err != nil {
		return nil, false, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, aq := range answered {
		answeredAt := ""
		if aq.Record.AnsweredAt != nil {
			answeredAt = aq.Record.AnsweredAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			strconv.FormatInt(aq.Question.ID, 10),
			aq.Question.Text,
			strconv.Itoa(aq.Question.Difficulty),
			answeredAt,
			aq.Record.AnswerText,
			aq.Record.HintText,
			aq.Record.FeedbackText,
		}
		if err := w.Write(row); err != nil {
			return nil, false, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, false, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), true, nil
}
