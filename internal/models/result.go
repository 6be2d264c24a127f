package models

import "time"

// EvaluationStatus is the terminal (or in-flight) state of one evaluation run.
type EvaluationStatus string

const (
	StatusPending EvaluationStatus = "pending"
	StatusPassed  EvaluationStatus = "passed"
	StatusFailed  EvaluationStatus = "failed"
	StatusTimeout EvaluationStatus = "timeout"
	StatusError   EvaluationStatus = "error"
)

// DimensionResult is the outcome of comparing one review dimension against
// its expectation. Extra is populated for exact-match dimensions, Found for
// subset dimensions. All slices hold normalized items, sorted.
type DimensionResult struct {
	Passed          bool     `json:"passed"`
	Expected        []string `json:"expected"`
	Actual          []string `json:"actual"`
	Missing         []string `json:"missing"`
	Extra           []string `json:"extra,omitempty"`
	Found           []string `json:"found,omitempty"`
	MatchPercentage float64  `json:"match_percentage"`
}

// ValidationResult is the composite outcome across all four dimensions.
type ValidationResult struct {
	EvaluationID int    `json:"evaluation_id"`
	PRTitle      string `json:"pr_title"`
	Difficulty   string `json:"difficulty"`

	Categories      DimensionResult `json:"categories"`
	FocusAreas      DimensionResult `json:"focus_areas"`
	Suggestions     DimensionResult `json:"suggestions"`
	PotentialIssues DimensionResult `json:"potential_issues"`

	OverallPass  bool    `json:"overall_pass"`
	OverallScore float64 `json:"overall_score"`
}

// EvaluationResult tracks one evaluation through the pipeline. It is created
// with StatusPending and mutated by each step until a terminal status is set.
type EvaluationResult struct {
	EvaluationID int               `json:"evaluation_id"`
	PRTitle      string            `json:"pr_title"`
	Status       EvaluationStatus  `json:"status"`
	PRNumber     int               `json:"pr_number,omitempty"`
	PRURL        string            `json:"pr_url,omitempty"`
	AgentComment string            `json:"agent_comment,omitempty"`
	ParsedOutput *ParsedReview     `json:"parsed_output,omitempty"`
	Validation   *ValidationResult `json:"validation,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Run summarizes one batch run persisted to the history store.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Passed     int
	Failed     int
	Timeout    int
	Errors     int
	AvgScore   float64
}
