// Package importer loads the question catalog from CSV files. Rows are
// deduplicated by normalized content hash, so re-importing the same file
// updates difficulties instead of duplicating questions.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/store"
)

// Source files carry difficulty on a 1..10 scale; storage uses 0..9.
const sourceDifficultyOffset = 1

// ErrNoRows is returned when the file holds no importable rows.
var ErrNoRows = errors.New("no importable rows in file")

// Result summarizes an import run.
type Result struct {
	Created int
	Updated int
	Skipped int
}

// Importer parses question CSVs into the catalog.
type Importer struct {
	questions store.QuestionStore
	logger    *slog.Logger
}

// New creates an Importer.
func New(questions store.QuestionStore, log *slog.Logger) (*Importer, error) {
	if questions == nil {
		return nil, fmt.Errorf("question store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		questions: questions,
		logger:    log.With(slog.String("component", "importer")),
	}, nil
}

// ImportCSV reads rows of the form "question,difficulty" and upserts them
// into the catalog. A header row is detected and skipped. Rows with blank
// question text or unparsable difficulty are counted as skipped, not
// fatal.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result Result
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read CSV row %d: %w", rowNum+1, err)
		}
		rowNum++

		text, difficulty, ok := parseRow(row)
		if !ok {
			if rowNum == 1 && looksLikeHeader(row) {
				continue
			}
			i.logger.Warn("skipping unparsable row", slog.Int("row", rowNum))
			result.Skipped++
			continue
		}

		question, err := domain.NewQuestion(text, difficulty)
		if err != nil {
			i.logger.Warn("skipping invalid question",
				slog.Int("row", rowNum),
				slog.String("error", err.Error()))
			result.Skipped++
			continue
		}

		created, err := i.questions.Upsert(ctx, question)
		if err != nil {
			return result, fmt.Errorf("failed to upsert question from row %d: %w", rowNum, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if result.Created+result.Updated == 0 {
		return result, ErrNoRows
	}

	i.logger.Info("import finished",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// parseRow extracts question text and a storage-scale difficulty from a
// CSV row. The source difficulty 1..10 maps to 0..9; out-of-range values
// are clamped.
func parseRow(row []string) (text string, difficulty int, ok bool) {
	if len(row) < 2 {
		return "", 0, false
	}

	// BOM from spreadsheet exports sticks to the first field.
	text = strings.TrimSpace(strings.TrimPrefix(row[0], "\xef\xbb\xbf"))
	if text == "" {
		return "", 0, false
	}

	raw, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return "", 0, false
	}

	difficulty = raw - sourceDifficultyOffset
	if difficulty < domain.MinDifficulty {
		difficulty = domain.MinDifficulty
	}
	if difficulty > domain.MaxDifficulty {
		difficulty = domain.MaxDifficulty
	}

	return text, difficulty, true
}

// looksLikeHeader reports whether the first row names columns instead of
// carrying data.
func looksLikeHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(row[0], "\xef\xbb\xbf")))
	return first == "question" || first == "text"
}
