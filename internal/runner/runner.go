// Package runner drives the evaluation pipeline: create a test PR, wait for
// the agent's review comment, parse it, validate it against the golden
// expectations, and record the outcome. Evaluations run strictly one at a
// time; the workload is rate-limited by GitHub, not by CPU.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joescharf/preval/internal/github"
	"github.com/joescharf/preval/internal/models"
	"github.com/joescharf/preval/internal/output"
	"github.com/joescharf/preval/internal/poll"
	"github.com/joescharf/preval/internal/report"
	"github.com/joescharf/preval/internal/validate"
)

// Parser turns a raw agent comment body into typed review fields.
type Parser interface {
	ParseAgentComment(ctx context.Context, body string) (*models.ParsedReview, error)
}

// Options configures a batch run.
type Options struct {
	Repo            string
	MaxWait         time.Duration
	PollInterval    time.Duration
	CheckpointEvery int
}

// Runner executes evaluations against the live review agent.
type Runner struct {
	gh      github.Client
	poller  *poll.Poller
	parser  Parser
	reports *report.Writer
	ui      *output.UI
	opts    Options

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// New creates a runner from its collaborators.
func New(gh github.Client, poller *poll.Poller, parser Parser, reports *report.Writer, ui *output.UI, opts Options) *Runner {
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = 5
	}
	return &Runner{
		gh:      gh,
		poller:  poller,
		parser:  parser,
		reports: reports,
		ui:      ui,
		opts:    opts,
		sleep:   time.Sleep,
	}
}

// RunSingle executes one evaluation end to end. Every failure mode is
// recorded on the returned result; nothing propagates to the batch driver.
func (r *Runner) RunSingle(ctx context.Context, eval *models.Evaluation) (result *models.EvaluationResult) {
	result = &models.EvaluationResult{
		EvaluationID: eval.ID,
		PRTitle:      eval.PRTitle,
		Status:       models.StatusPending,
	}

	// Isolation boundary: a panic anywhere in the pipeline ends this
	// evaluation as an error, never the batch.
	defer func() {
		if rec := recover(); rec != nil {
			result.Status = models.StatusError
			result.Error = fmt.Sprint(rec)
			r.ui.Error("Error processing evaluation: %v", rec)
		}
	}()

	// Step 1: create the test PR.
	r.ui.Info("Creating PR for evaluation #%d...", eval.ID)
	prNumber, prURL, err := r.gh.CreatePRForEvaluation(eval)
	if err != nil || prNumber == 0 {
		result.Status = models.StatusFailed
		result.Error = "Failed to create PR"
		if err != nil {
			result.Error = fmt.Sprintf("Failed to create PR: %v", err)
		}
		return result
	}
	result.PRNumber = prNumber
	result.PRURL = prURL
	r.ui.Info("Created PR #%d: %s", prNumber, prURL)

	// Step 2: wait for the agent to comment.
	r.ui.Info("Waiting for agent to process PR #%d...", prNumber)
	r.ui.Info("  (max wait: %s, polling every %s)", r.opts.MaxWait, r.opts.PollInterval)

	var agentComment string
	var elapsed time.Duration
	for elapsed < r.opts.MaxWait {
		r.sleep(r.opts.PollInterval)
		elapsed += r.opts.PollInterval

		if body := r.poller.FetchLatestAgentComment(r.opts.Repo, prNumber); body != "" {
			agentComment = body
			r.ui.Info("Agent comment received after %s", elapsed)
			break
		}
		r.ui.VerboseLog("Still waiting... (%s / %s)", elapsed, r.opts.MaxWait)
	}

	if agentComment == "" {
		result.Status = models.StatusTimeout
		result.Error = fmt.Sprintf("Agent comment not received after %s", r.opts.MaxWait)
		return result
	}
	result.AgentComment = agentComment

	// Step 3: parse.
	r.ui.Info("Parsing agent comment...")
	parsed, err := r.parser.ParseAgentComment(ctx, agentComment)
	if err != nil {
		result.Status = models.StatusError
		result.Error = err.Error()
		r.ui.Error("Error processing evaluation: %v", err)
		return result
	}
	result.ParsedOutput = parsed
	r.ui.Info("  Parsed: %d categories, %d focus areas", len(parsed.Categories), len(parsed.FocusAreas))

	// Step 4: validate.
	r.ui.Info("Validating against expected output...")
	validation := validate.Strict(parsed, eval)
	result.Validation = validation

	// Step 5: final status.
	if validation.OverallPass {
		result.Status = models.StatusPassed
		r.ui.Success("  Validation PASSED")
	} else {
		result.Status = models.StatusFailed
		r.ui.Error("  Validation FAILED")
		r.ui.Info("    Score: %.1f%%", validation.OverallScore)
	}

	return result
}

// RunBatch runs the evaluations strictly in order, checkpointing every
// CheckpointEvery completed evaluations and once more at the end.
func (r *Runner) RunBatch(ctx context.Context, evals []models.Evaluation) []*models.EvaluationResult {
	if len(evals) == 0 {
		r.ui.Warning("No evaluations to run")
		return nil
	}

	results := make([]*models.EvaluationResult, 0, len(evals))
	total := len(evals)

	for i := range evals {
		eval := &evals[i]
		r.ui.Info("[%d/%d] Processing: %s", i+1, total, eval.PRTitle)

		result := r.RunSingle(ctx, eval)
		results = append(results, result)

		r.ui.Info("  Result: %s %s", output.StatusSymbol(result.Status), strings.ToUpper(string(result.Status)))

		if (i+1)%r.opts.CheckpointEvery == 0 || i+1 == total {
			if path, err := r.reports.Save(results); err != nil {
				r.ui.Warning("Failed to save checkpoint: %v", err)
			} else {
				r.ui.VerboseLog("Results saved to: %s", path)
			}
		}
	}

	return results
}

// Summarize aggregates a batch's results.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Timeout  int
	Errors   int
	AvgScore float64
}

// Summarize computes per-status counts and the average overall score.
func Summarize(results []*models.EvaluationResult) Summary {
	s := Summary{Total: len(results)}
	var totalScore float64
	for _, r := range results {
		switch r.Status {
		case models.StatusPassed:
			s.Passed++
		case models.StatusFailed:
			s.Failed++
		case models.StatusTimeout:
			s.Timeout++
		case models.StatusError:
			s.Errors++
		}
		if r.Validation != nil {
			totalScore += r.Validation.OverallScore
		}
	}
	if s.Total > 0 {
		s.AvgScore = totalScore / float64(s.Total)
	}
	return s
}

// PrintSummary renders the end-of-batch report, including which normalized
// items were missing per dimension for each failed evaluation.
func (r *Runner) PrintSummary(results []*models.EvaluationResult) {
	s := Summarize(results)

	out := r.ui.Out
	fmt.Fprintln(out)
	fmt.Fprintln(out, "============================================================")
	fmt.Fprintln(out, "TEST RUN SUMMARY")
	fmt.Fprintln(out, "============================================================")
	fmt.Fprintf(out, "Total Evaluations: %d\n", s.Total)
	fmt.Fprintf(out, "Passed:            %d\n", s.Passed)
	fmt.Fprintf(out, "Failed:            %d\n", s.Failed)
	fmt.Fprintf(out, "Timeout:           %d\n", s.Timeout)
	fmt.Fprintf(out, "Errors:            %d\n", s.Errors)
	if s.Total > 0 {
		fmt.Fprintf(out, "Pass Rate:         %.1f%%\n", float64(s.Passed)/float64(s.Total)*100)
	}
	fmt.Fprintf(out, "Average Score:     %.1f%%\n", s.AvgScore)
	fmt.Fprintln(out, "============================================================")

	var failed []*models.EvaluationResult
	for _, result := range results {
		if result.Status == models.StatusFailed {
			failed = append(failed, result)
		}
	}
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Failed Evaluations:")
	for _, result := range failed {
		fmt.Fprintf(out, "  #%d: %s\n", result.EvaluationID, result.PRTitle)
		v := result.Validation
		if v == nil {
			if result.Error != "" {
				fmt.Fprintf(out, "    Error: %s\n", result.Error)
			}
			continue
		}
		fmt.Fprintf(out, "    Score: %.1f%%\n", v.OverallScore)
		if !v.Categories.Passed {
			fmt.Fprintf(out, "    Categories missing: %v\n", v.Categories.Missing)
		}
		if !v.FocusAreas.Passed {
			fmt.Fprintf(out, "    Focus areas missing: %v\n", v.FocusAreas.Missing)
		}
		if !v.Suggestions.Passed {
			fmt.Fprintf(out, "    Suggestions missing: %v\n", v.Suggestions.Missing)
		}
		if !v.PotentialIssues.Passed {
			fmt.Fprintf(out, "    Issues missing: %v\n", v.PotentialIssues.Missing)
		}
	}
	fmt.Fprintln(out, "============================================================")
}
