// Package validate scores a parsed agent review against an evaluation's
// expectations. Categories and focus areas must match exactly; suggestions
// and potential issues are subset checks where every expected item must be
// present but extra items are tolerated.
package validate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joescharf/preval/internal/models"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeText lowercases, trims, and collapses internal whitespace runs so
// "Input Validation" and "input   validation" compare equal.
func NormalizeText(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// NormalizeSet normalizes each item and drops duplicates. Only items that
// are empty before normalization are skipped; a whitespace-only item
// normalizes to "" and stays in the set, so it still has to be matched.
func NormalizeSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		set[NormalizeText(item)] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func difference(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func intersection(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Exact compares two item lists as normalized sets and requires equality.
// Match percentage is |actual ∩ expected| / |expected|, or 100 when expected
// is empty. Note the asymmetry with Passed: a nonempty actual against an
// empty expected scores 100 but still fails.
func Exact(actual, expected []string) models.DimensionResult {
	actualSet := NormalizeSet(actual)
	expectedSet := NormalizeSet(expected)

	missing := difference(expectedSet, actualSet)
	extra := difference(actualSet, expectedSet)

	pct := 100.0
	if len(expectedSet) > 0 {
		pct = float64(len(intersection(actualSet, expectedSet))) / float64(len(expectedSet)) * 100
	}

	return models.DimensionResult{
		Passed:          len(missing) == 0 && len(extra) == 0,
		Expected:        sortedKeys(expectedSet),
		Actual:          sortedKeys(actualSet),
		Missing:         sortedKeys(missing),
		Extra:           sortedKeys(extra),
		MatchPercentage: pct,
	}
}

// Subset requires every expected item to appear in actual; extra actual
// items are ignored. Match percentage is |found| / |expected|, or 100 when
// expected is empty.
func Subset(actual, expected []string) models.DimensionResult {
	actualSet := NormalizeSet(actual)
	expectedSet := NormalizeSet(expected)

	found := intersection(expectedSet, actualSet)
	missing := difference(expectedSet, actualSet)

	pct := 100.0
	if len(expectedSet) > 0 {
		pct = float64(len(found)) / float64(len(expectedSet)) * 100
	}

	return models.DimensionResult{
		Passed:          len(missing) == 0,
		Expected:        sortedKeys(expectedSet),
		Actual:          sortedKeys(actualSet),
		Found:           sortedKeys(found),
		Missing:         sortedKeys(missing),
		MatchPercentage: pct,
	}
}

// Strict applies all four dimension validators to a parsed review. Categories
// come from the evaluation's top level; the other three dimensions come from
// its expected review. Overall pass requires every dimension to pass; the
// overall score is the unweighted mean of the four match percentages.
func Strict(parsed *models.ParsedReview, eval *models.Evaluation) *models.ValidationResult {
	result := &models.ValidationResult{
		EvaluationID: eval.ID,
		PRTitle:      eval.PRTitle,
		Difficulty:   eval.Difficulty,

		Categories:      Exact(parsed.Categories, eval.Categories),
		FocusAreas:      Exact(parsed.FocusAreas, eval.ExpectedReview.FocusAreas),
		Suggestions:     Subset(parsed.Suggestions, eval.ExpectedReview.Suggestions),
		PotentialIssues: Subset(parsed.PotentialIssues, eval.ExpectedReview.PotentialIssues),
	}

	result.OverallPass = result.Categories.Passed &&
		result.FocusAreas.Passed &&
		result.Suggestions.Passed &&
		result.PotentialIssues.Passed

	result.OverallScore = (result.Categories.MatchPercentage +
		result.FocusAreas.MatchPercentage +
		result.Suggestions.MatchPercentage +
		result.PotentialIssues.MatchPercentage) / 4

	return result
}
