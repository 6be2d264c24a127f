// Package parse turns raw agent comment markdown into typed review fields.
package parse

import (
	"regexp"
	"strings"

	"github.com/joescharf/preval/internal/models"
)

var bulletPrefix = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)

// section names as they appear in headings, lowercased.
const (
	sectionCategories      = "categories"
	sectionFocusAreas      = "focus areas"
	sectionSuggestions     = "suggestions"
	sectionPotentialIssues = "potential issues"
)

// AgentComment extracts the four review sections from a comment body.
// Headings are matched case-insensitively at any markdown level; items are
// the bullet or numbered list entries beneath each heading. Unknown sections
// and free text are ignored.
func AgentComment(body string) *models.ParsedReview {
	review := &models.ParsedReview{}

	var current *[]string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if heading, ok := headingName(trimmed); ok {
			switch heading {
			case sectionCategories:
				current = &review.Categories
			case sectionFocusAreas:
				current = &review.FocusAreas
			case sectionSuggestions:
				current = &review.Suggestions
			case sectionPotentialIssues:
				current = &review.PotentialIssues
			default:
				current = nil
			}
			continue
		}

		if current == nil {
			continue
		}
		if item := listItem(trimmed); item != "" {
			*current = append(*current, item)
		}
	}

	return review
}

// IsEmpty reports whether parsing found no items in any section.
func IsEmpty(r *models.ParsedReview) bool {
	return len(r.Categories) == 0 &&
		len(r.FocusAreas) == 0 &&
		len(r.Suggestions) == 0 &&
		len(r.PotentialIssues) == 0
}

func headingName(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimLeft(line, "#"))
	return strings.ToLower(name), true
}

func listItem(line string) string {
	if loc := bulletPrefix.FindStringIndex(line); loc != nil {
		return strings.TrimSpace(line[loc[1]:])
	}
	return ""
}
