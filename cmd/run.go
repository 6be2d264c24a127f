package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/preval/internal/classify"
	"github.com/joescharf/preval/internal/dataset"
	"github.com/joescharf/preval/internal/github"
	"github.com/joescharf/preval/internal/llm"
	"github.com/joescharf/preval/internal/models"
	"github.com/joescharf/preval/internal/parse"
	"github.com/joescharf/preval/internal/poll"
	"github.com/joescharf/preval/internal/report"
	"github.com/joescharf/preval/internal/runner"
)

var runIDs string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run evaluations against the live review agent",
	Long: `Run the golden-dataset evaluations. For each selected evaluation a test
PR is created, the agent's review comment is awaited, parsed, and validated
against the expected review.

Exits nonzero when any evaluation fails validation. Timeouts and pipeline
errors are reported but do not change the exit status on their own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVar(&runIDs, "id", "", "Specific evaluation IDs to run (comma-separated, e.g. 1,5,10)")
	rootCmd.AddCommand(runCmd)
}

// ruleParser is the default rule-based comment parser.
type ruleParser struct{}

func (ruleParser) ParseAgentComment(_ context.Context, body string) (*models.ParsedReview, error) {
	return parse.AgentComment(body), nil
}

// llmFallbackParser tries the rule-based parse first and asks the LLM only
// when no review sections were found.
type llmFallbackParser struct {
	client *llm.Client
}

func (p llmFallbackParser) ParseAgentComment(ctx context.Context, body string) (*models.ParsedReview, error) {
	review := parse.AgentComment(body)
	if !parse.IsEmpty(review) {
		return review, nil
	}
	return p.client.ExtractReview(ctx, body)
}

func newParser() runner.Parser {
	if viper.GetBool("anthropic.parse_fallback") {
		client := llm.NewClient(viper.GetString("anthropic.api_key"), viper.GetString("anthropic.model"))
		return llmFallbackParser{client: client}
	}
	return ruleParser{}
}

func loadEvaluations() ([]models.Evaluation, error) {
	path := viper.GetString("runner.evaluations_file")
	ui.Info("Loading evaluations from: %s", path)
	evals, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	ui.Info("Loaded %d evaluations", len(evals))

	if runIDs == "" {
		return evals, nil
	}
	ids, err := dataset.ParseIDs(runIDs)
	if err != nil {
		return nil, err
	}
	ui.Info("Running evaluations: %v", ids)
	return dataset.FilterByIDs(evals, ids), nil
}

func runRun(ctx context.Context) error {
	evals, err := loadEvaluations()
	if err != nil {
		return err
	}

	if dryRun {
		ui.Info("DRY RUN - Showing what would be executed:")
		for _, e := range evals {
			fmt.Fprintf(ui.Out, "  #%d: %s\n", e.ID, e.PRTitle)
			fmt.Fprintf(ui.Out, "      Categories: %s\n", strings.Join(e.Categories, ", "))
			fmt.Fprintf(ui.Out, "      Difficulty: %s\n", e.Difficulty)
		}
		return nil
	}

	classifier := classify.New(
		viper.GetStringSlice("classifier.author_patterns"),
		viper.GetStringSlice("classifier.body_patterns"),
	)
	gh := github.NewClient(viper.GetString("github.repo_path"), repoSlug())
	poller := poll.New(gh, classifier)
	reports := report.NewWriter(viper.GetString("runner.reports_dir"))

	r := runner.New(gh, poller, newParser(), reports, ui, runner.Options{
		Repo:            repoSlug(),
		MaxWait:         time.Duration(viper.GetInt("runner.max_wait_seconds")) * time.Second,
		PollInterval:    time.Duration(viper.GetInt("runner.poll_interval")) * time.Second,
		CheckpointEvery: viper.GetInt("runner.checkpoint_every"),
	})

	startedAt := time.Now().UTC()
	results := r.RunBatch(ctx, evals)
	finishedAt := time.Now().UTC()

	r.PrintSummary(results)

	if err := persistRun(ctx, startedAt, finishedAt, results); err != nil {
		ui.Warning("Failed to record run history: %v", err)
	}

	summary := runner.Summarize(results)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d evaluations failed", summary.Failed, summary.Total)
	}
	return nil
}

// persistRun saves the batch outcome to the history store.
func persistRun(ctx context.Context, startedAt, finishedAt time.Time, results []*models.EvaluationResult) error {
	if len(results) == 0 {
		return nil
	}
	s, err := getStore()
	if err != nil {
		return err
	}

	summary := runner.Summarize(results)
	run := &models.Run{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Total:      summary.Total,
		Passed:     summary.Passed,
		Failed:     summary.Failed,
		Timeout:    summary.Timeout,
		Errors:     summary.Errors,
		AvgScore:   summary.AvgScore,
	}
	if err := s.CreateRun(ctx, run, results); err != nil {
		return err
	}
	ui.VerboseLog("Run recorded: %s", run.ID)
	return nil
}
