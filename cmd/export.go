package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/preval/internal/models"
	"github.com/joescharf/preval/internal/store"
)

var (
	exportFormat string
	exportRunID  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored run's results as JSON, CSV, or Markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context())
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "Run ID to export (default: most recent)")
	rootCmd.AddCommand(exportCmd)
}

func exportRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	runID := exportRunID
	if runID == "" {
		runs, err := s.ListRuns(ctx, 1)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs recorded yet")
		}
		runID = runs[0].ID
	}

	results, err := s.ListRunResults(ctx, runID)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		return exportJSON(ctx, s, runID, results)
	case "csv":
		return exportCSV(results)
	case "markdown":
		return exportMarkdown(results)
	default:
		return fmt.Errorf("unknown format: %s (use: json, csv, markdown)", exportFormat)
	}
}

func exportJSON(ctx context.Context, s store.Store, runID string, results []*models.EvaluationResult) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	doc := struct {
		Run     *models.Run                `json:"run"`
		Results []*models.EvaluationResult `json:"results"`
	}{Run: run, Results: results}

	enc := json.NewEncoder(ui.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func exportCSV(results []*models.EvaluationResult) error {
	w := csv.NewWriter(ui.Out)
	w.Write([]string{"EvaluationID", "Title", "Status", "Score", "PR", "Error"})
	for _, r := range results {
		score := ""
		if r.Validation != nil {
			score = fmt.Sprintf("%.1f", r.Validation.OverallScore)
		}
		w.Write([]string{
			strconv.Itoa(r.EvaluationID), r.PRTitle, string(r.Status), score,
			r.PRURL, r.Error,
		})
	}
	w.Flush()
	return w.Error()
}

func exportMarkdown(results []*models.EvaluationResult) error {
	fmt.Fprintln(ui.Out, "# Evaluation Results")
	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, "| ID | Title | Status | Score |")
	fmt.Fprintln(ui.Out, "|----|-------|--------|-------|")
	for _, r := range results {
		score := ""
		if r.Validation != nil {
			score = fmt.Sprintf("%.1f%%", r.Validation.OverallScore)
		}
		fmt.Fprintf(ui.Out, "| %d | %s | %s | %s |\n", r.EvaluationID, r.PRTitle, r.Status, score)
	}
	return nil
}
