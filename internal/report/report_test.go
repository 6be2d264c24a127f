package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/preval/internal/models"
)

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewWriter(dir)
	w.now = func() time.Time { return time.Date(2026, 3, 4, 15, 6, 7, 0, time.UTC) }

	results := []*models.EvaluationResult{
		{EvaluationID: 1, PRTitle: "First", Status: models.StatusPassed},
		{EvaluationID: 2, PRTitle: "Second", Status: models.StatusTimeout, Error: "agent comment not received after 300s"},
	}

	path, err := w.Save(results)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "results_20260304_150607.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Results, 2)
	assert.Equal(t, models.StatusPassed, doc.Results[0].Status)
	assert.Equal(t, "2026-03-04T15:06:07Z", doc.Timestamp)
}

func TestSave_NewFilePerCheckpoint(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewWriter(dir)

	stamp := time.Date(2026, 3, 4, 15, 6, 7, 0, time.UTC)
	w.now = func() time.Time {
		stamp = stamp.Add(time.Second)
		return stamp
	}

	p1, err := w.Save(nil)
	require.NoError(t, err)
	p2, err := w.Save(nil)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
