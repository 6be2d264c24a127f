package validate

import (
	"fmt"
	"strings"

	"github.com/joescharf/preval/internal/models"
)

const rule = "============================================================"

func passFail(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func writeExactDimension(sb *strings.Builder, name string, d models.DimensionResult) {
	fmt.Fprintf(sb, "%s: %s\n", name, passFail(d.Passed))
	fmt.Fprintf(sb, "  Expected: %v\n", d.Expected)
	fmt.Fprintf(sb, "  Actual:   %v\n", d.Actual)
	if len(d.Missing) > 0 {
		fmt.Fprintf(sb, "  Missing:  %v\n", d.Missing)
	}
	if len(d.Extra) > 0 {
		fmt.Fprintf(sb, "  Extra:    %v\n", d.Extra)
	}
	fmt.Fprintf(sb, "  Match:    %.1f%%\n\n", d.MatchPercentage)
}

func writeSubsetDimension(sb *strings.Builder, name string, d models.DimensionResult) {
	fmt.Fprintf(sb, "%s: %s\n", name, passFail(d.Passed))
	fmt.Fprintf(sb, "  Expected: %v\n", d.Expected)
	fmt.Fprintf(sb, "  Found:    %v\n", d.Found)
	if len(d.Missing) > 0 {
		fmt.Fprintf(sb, "  Missing:  %v\n", d.Missing)
	}
	fmt.Fprintf(sb, "  Match:    %.1f%%\n\n", d.MatchPercentage)
}

// Report renders a human-readable per-evaluation validation report.
func Report(v *models.ValidationResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", rule)
	fmt.Fprintf(&sb, "VALIDATION REPORT: %s\n", v.PRTitle)
	fmt.Fprintf(&sb, "%s\n", rule)
	fmt.Fprintf(&sb, "Evaluation ID: %d\n", v.EvaluationID)
	fmt.Fprintf(&sb, "Difficulty: %s\n\n", v.Difficulty)

	writeExactDimension(&sb, "Categories", v.Categories)
	writeExactDimension(&sb, "Focus Areas", v.FocusAreas)
	writeSubsetDimension(&sb, "Suggestions", v.Suggestions)
	writeSubsetDimension(&sb, "Potential Issues", v.PotentialIssues)

	fmt.Fprintf(&sb, "%s\n", rule)
	fmt.Fprintf(&sb, "OVERALL: %s\n", passFail(v.OverallPass))
	fmt.Fprintf(&sb, "Score: %.1f%%\n", v.OverallScore)
	fmt.Fprintf(&sb, "%s\n", rule)

	return sb.String()
}
