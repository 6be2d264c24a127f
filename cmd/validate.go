package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/preval/internal/dataset"
	"github.com/joescharf/preval/internal/models"
	"github.com/joescharf/preval/internal/validate"
)

var (
	validateEvalID int
	validateInput  string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a parsed review against one evaluation's expectations",
	Long: `Score a parsed review (a JSON file with categories, focus_areas,
suggestions, and potential_issues arrays) against a single evaluation,
without touching GitHub. Useful for checking expected reviews offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateRun()
	},
}

func init() {
	validateCmd.Flags().IntVar(&validateEvalID, "evaluation", 0, "Evaluation ID to validate against")
	validateCmd.Flags().StringVar(&validateInput, "input", "", "Path to the parsed review JSON")
	_ = validateCmd.MarkFlagRequired("evaluation")
	_ = validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}

func validateRun() error {
	evals, err := dataset.Load(viper.GetString("runner.evaluations_file"))
	if err != nil {
		return err
	}

	var eval *models.Evaluation
	for i := range evals {
		if evals[i].ID == validateEvalID {
			eval = &evals[i]
			break
		}
	}
	if eval == nil {
		return fmt.Errorf("evaluation not found: %d", validateEvalID)
	}

	data, err := os.ReadFile(validateInput)
	if err != nil {
		return fmt.Errorf("read parsed review: %w", err)
	}
	var parsed models.ParsedReview
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse review JSON: %w", err)
	}

	result := validate.Strict(&parsed, eval)
	fmt.Fprint(ui.Out, validate.Report(result))

	if !result.OverallPass {
		return fmt.Errorf("validation failed with score %.1f%%", result.OverallScore)
	}
	return nil
}
