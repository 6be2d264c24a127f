package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/preval/internal/output"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past evaluation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd.Context())
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the per-evaluation results of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyShowRun(cmd.Context(), args[0])
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	runs, err := s.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.Info("No runs recorded yet")
		return nil
	}

	table := ui.Table([]string{"RUN", "STARTED", "TOTAL", "PASSED", "FAILED", "TIMEOUT", "ERRORS", "AVG SCORE"})
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04"),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Passed),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Timeout),
			strconv.Itoa(r.Errors),
			fmt.Sprintf("%.1f%%", r.AvgScore),
		})
	}
	return table.Render()
}

func historyShowRun(ctx context.Context, runID string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	results, err := s.ListRunResults(ctx, run.ID)
	if err != nil {
		return err
	}

	ui.Info("Run %s: %d evaluations, %d passed, avg score %.1f%%", run.ID, run.Total, run.Passed, run.AvgScore)

	table := ui.Table([]string{"ID", "TITLE", "STATUS", "SCORE", "PR"})
	for _, r := range results {
		score := ""
		if r.Validation != nil {
			score = fmt.Sprintf("%.1f%%", r.Validation.OverallScore)
		}
		pr := ""
		if r.PRNumber > 0 {
			pr = fmt.Sprintf("#%d", r.PRNumber)
		}
		table.Append([]string{
			strconv.Itoa(r.EvaluationID),
			r.PRTitle,
			output.StatusColor(r.Status),
			score,
			pr,
		})
	}
	return table.Render()
}
