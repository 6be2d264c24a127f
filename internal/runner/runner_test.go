package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/preval/internal/classify"
	"github.com/joescharf/preval/internal/models"
	"github.com/joescharf/preval/internal/output"
	"github.com/joescharf/preval/internal/parse"
	"github.com/joescharf/preval/internal/poll"
	"github.com/joescharf/preval/internal/report"
)

// fakeGitHub serves as both PR factory and comment lister.
type fakeGitHub struct {
	nextPR     int
	createErr  error
	comments   map[int][]models.Comment
	createdFor []int
}

func (f *fakeGitHub) CreatePRForEvaluation(eval *models.Evaluation) (int, string, error) {
	f.createdFor = append(f.createdFor, eval.ID)
	if f.createErr != nil {
		return 0, "", f.createErr
	}
	f.nextPR++
	return f.nextPR, "https://github.com/acme/widgets/pull/1", nil
}

func (f *fakeGitHub) ListPRComments(repo string, prNumber int) ([]models.Comment, error) {
	return f.comments[prNumber], nil
}

type ruleParser struct{}

func (ruleParser) ParseAgentComment(_ context.Context, body string) (*models.ParsedReview, error) {
	return parse.AgentComment(body), nil
}

// errOnParser fails for comments containing a marker string.
type errOnParser struct{ marker string }

func (p errOnParser) ParseAgentComment(ctx context.Context, body string) (*models.ParsedReview, error) {
	if p.marker != "" && bytes.Contains([]byte(body), []byte(p.marker)) {
		return nil, errors.New("unparseable comment")
	}
	return parse.AgentComment(body), nil
}

const passingComment = `## Categories
- security

## Focus Areas
- input validation

## Suggestions
- add bounds checking

## Potential Issues
- silent return
`

func testEvaluation(id int) models.Evaluation {
	return models.Evaluation{
		ID:         id,
		PRTitle:    "Test PR",
		Categories: []string{"security"},
		ExpectedReview: models.ExpectedReview{
			FocusAreas:      []string{"input validation"},
			Suggestions:     []string{"add bounds checking"},
			PotentialIssues: []string{"silent return"},
		},
	}
}

func agentComment(body string) models.Comment {
	return models.Comment{
		Author:    models.CommentAuthor{Login: "review-bot"},
		Body:      body,
		CreatedAt: "2026-01-02T10:00:00Z",
	}
}

func newTestRunner(t *testing.T, gh *fakeGitHub, parser Parser) (*Runner, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	ui := &output.UI{Out: buf, ErrOut: buf}

	poller := poll.New(gh, classify.New(nil, nil))
	reports := report.NewWriter(filepath.Join(t.TempDir(), "reports"))

	r := New(gh, poller, parser, reports, ui, Options{
		Repo:            "acme/widgets",
		MaxWait:         10 * time.Second,
		PollInterval:    5 * time.Second,
		CheckpointEvery: 5,
	})
	r.sleep = func(time.Duration) {}
	return r, buf
}

func TestRunSingle_Passes(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{
		1: {agentComment(passingComment)},
	}}
	r, _ := newTestRunner(t, gh, ruleParser{})

	eval := testEvaluation(1)
	result := r.RunSingle(context.Background(), &eval)

	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, 1, result.PRNumber)
	assert.Equal(t, passingComment, result.AgentComment)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.OverallPass)
}

func TestRunSingle_ValidationFailure(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{
		1: {agentComment("## Categories\n- style\n")},
	}}
	r, _ := newTestRunner(t, gh, ruleParser{})

	eval := testEvaluation(1)
	result := r.RunSingle(context.Background(), &eval)

	assert.Equal(t, models.StatusFailed, result.Status)
	require.NotNil(t, result.Validation)
	assert.False(t, result.Validation.OverallPass)
}

func TestRunSingle_PRCreationFailure(t *testing.T) {
	gh := &fakeGitHub{createErr: errors.New("gh: permission denied")}
	r, _ := newTestRunner(t, gh, ruleParser{})

	eval := testEvaluation(1)
	result := r.RunSingle(context.Background(), &eval)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "Failed to create PR")
	assert.Empty(t, result.AgentComment)
	assert.Nil(t, result.Validation)
}

func TestRunSingle_Timeout(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{}} // never a comment
	r, _ := newTestRunner(t, gh, ruleParser{})

	eval := testEvaluation(1)
	result := r.RunSingle(context.Background(), &eval)

	assert.Equal(t, models.StatusTimeout, result.Status)
	assert.Contains(t, result.Error, "not received after")
	assert.Nil(t, result.Validation)
}

func TestRunSingle_ParseError(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{
		1: {agentComment("automated review: GARBAGE")},
	}}
	r, _ := newTestRunner(t, gh, errOnParser{marker: "GARBAGE"})

	eval := testEvaluation(1)
	result := r.RunSingle(context.Background(), &eval)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Equal(t, "unparseable comment", result.Error)
}

func TestRunSingle_PanicIsolatedAsError(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{
		1: {agentComment(passingComment)},
	}}
	r, _ := newTestRunner(t, gh, panicParser{})

	eval := testEvaluation(1)
	result := r.RunSingle(context.Background(), &eval)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.Error, "boom")
}

type panicParser struct{}

func (panicParser) ParseAgentComment(context.Context, string) (*models.ParsedReview, error) {
	panic("boom")
}

func TestRunBatch_ErrorDoesNotAbortBatch(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{
		1: {agentComment(passingComment)},
		2: {agentComment("automated review: GARBAGE")},
		3: {agentComment(passingComment)},
	}}
	r, _ := newTestRunner(t, gh, errOnParser{marker: "GARBAGE"})

	evals := []models.Evaluation{testEvaluation(1), testEvaluation(2), testEvaluation(3)}
	results := r.RunBatch(context.Background(), evals)

	require.Len(t, results, 3)
	assert.Equal(t, models.StatusPassed, results[0].Status)
	assert.Equal(t, models.StatusError, results[1].Status)
	assert.Equal(t, models.StatusPassed, results[2].Status)
	assert.Equal(t, []int{1, 2, 3}, gh.createdFor)
}

func TestRunBatch_ResultLineUppercasesStatus(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{
		1: {agentComment(passingComment)},
	}}
	r, buf := newTestRunner(t, gh, ruleParser{})

	r.RunBatch(context.Background(), []models.Evaluation{testEvaluation(1)})

	var resultLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "Result:") {
			resultLine = line
		}
	}
	require.NotEmpty(t, resultLine)
	assert.Contains(t, resultLine, "PASSED")
	assert.NotContains(t, resultLine, "passed")
}

func TestRunBatch_CheckpointCadence(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{}}
	buf := &bytes.Buffer{}
	ui := &output.UI{Out: buf, ErrOut: buf}

	reportsDir := filepath.Join(t.TempDir(), "reports")
	poller := poll.New(gh, classify.New(nil, nil))
	r := New(gh, poller, ruleParser{}, report.NewWriter(reportsDir), ui, Options{
		Repo:            "acme/widgets",
		MaxWait:         time.Second,
		PollInterval:    time.Second,
		CheckpointEvery: 2,
	})
	r.sleep = func(time.Duration) {}

	var evals []models.Evaluation
	for i := 1; i <= 5; i++ {
		evals = append(evals, testEvaluation(i))
	}
	results := r.RunBatch(context.Background(), evals)
	require.Len(t, results, 5)

	// Checkpoints after 2 and 4, final save after 5.
	entries, err := os.ReadDir(reportsDir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 1)
}

func TestSummarize(t *testing.T) {
	results := []*models.EvaluationResult{
		{Status: models.StatusPassed, Validation: &models.ValidationResult{OverallScore: 100}},
		{Status: models.StatusFailed, Validation: &models.ValidationResult{OverallScore: 50}},
		{Status: models.StatusTimeout},
		{Status: models.StatusError},
	}

	s := Summarize(results)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Timeout)
	assert.Equal(t, 1, s.Errors)
	assert.InDelta(t, 37.5, s.AvgScore, 0.001)
}

func TestPrintSummary_ListsMissingItemsPerDimension(t *testing.T) {
	gh := &fakeGitHub{comments: map[int][]models.Comment{
		1: {agentComment("## Categories\n- style\n\n## Focus Areas\n- input validation\n\n## Suggestions\n- add bounds checking\n\n## Potential Issues\n- silent return\n")},
	}}
	r, buf := newTestRunner(t, gh, ruleParser{})

	eval := testEvaluation(1)
	results := r.RunBatch(context.Background(), []models.Evaluation{eval})
	r.PrintSummary(results)

	out := buf.String()
	assert.Contains(t, out, "TEST RUN SUMMARY")
	assert.Contains(t, out, "Failed Evaluations:")
	assert.Contains(t, out, "Categories missing: [security]")
	assert.NotContains(t, out, "Focus areas missing")
}
