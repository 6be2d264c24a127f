package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/preval/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_BareJSONList(t *testing.T) {
	path := writeFile(t, "evals.json", `[
		{"id": 1, "pr_title": "First", "categories": ["security"], "difficulty": "easy"},
		{"id": 2, "pr_title": "Second"}
	]`)

	evals, err := Load(path)
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, 1, evals[0].ID)
	assert.Equal(t, "First", evals[0].PRTitle)
	assert.Equal(t, []string{"security"}, evals[0].Categories)
}

func TestLoad_WrappedJSON(t *testing.T) {
	path := writeFile(t, "evals.json", `{"evaluations": [
		{"id": 7, "pr_title": "Wrapped", "expected_review": {"suggestions": ["add bounds checking"]}}
	]}`)

	evals, err := Load(path)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, 7, evals[0].ID)
	assert.Equal(t, []string{"add bounds checking"}, evals[0].ExpectedReview.Suggestions)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "evals.yaml", `
evaluations:
  - id: 3
    pr_title: From YAML
    categories: [performance]
`)

	evals, err := Load(path)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, "From YAML", evals[0].PRTitle)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeFile(t, "evals.json", "{not json")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs("1, 5,10")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 10}, ids)

	_, err = ParseIDs("1,abc")
	assert.Error(t, err)
}

func TestFilterByIDs(t *testing.T) {
	evals := []models.Evaluation{{ID: 1}, {ID: 2}, {ID: 3}}

	assert.Len(t, FilterByIDs(evals, nil), 3)

	filtered := FilterByIDs(evals, []int{3, 1})
	require.Len(t, filtered, 2)
	// Dataset order preserved, not id-argument order.
	assert.Equal(t, 1, filtered[0].ID)
	assert.Equal(t, 3, filtered[1].ID)

	assert.Empty(t, FilterByIDs(evals, []int{99}))
}
