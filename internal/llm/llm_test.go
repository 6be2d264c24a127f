package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	system, user := buildPrompt("## Review\nlooks risky around the parser")

	assert.Contains(t, system, "JSON object")
	assert.Contains(t, system, `"categories"`)
	assert.Contains(t, system, `"focus_areas"`)
	assert.Contains(t, system, `"suggestions"`)
	assert.Contains(t, system, `"potential_issues"`)

	assert.Contains(t, user, "looks risky around the parser")
}
