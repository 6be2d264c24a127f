// Package report persists evaluation result snapshots as timestamped JSON
// files. Each save creates a new file, so checkpoints never overwrite one
// another and no locking is needed within a single run.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joescharf/preval/internal/models"
)

// Document is the persisted artifact shape.
type Document struct {
	Results   []*models.EvaluationResult `json:"results"`
	Timestamp string                     `json:"timestamp"`
}

// Writer writes result snapshots into a reports directory.
type Writer struct {
	dir string

	// now is replaceable in tests.
	now func() time.Time
}

// NewWriter creates a writer for the given reports directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Save writes the current results to a new timestamp-named file and returns
// its path. The reports directory is created on first use.
func (w *Writer) Save(results []*models.EvaluationResult) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	now := w.now()
	doc := Document{
		Results:   results,
		Timestamp: now.Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("results_%s.json", now.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results file: %w", err)
	}
	return path, nil
}
