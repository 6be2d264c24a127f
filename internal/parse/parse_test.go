package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleComment = `Automated review of this pull request.

## Categories
- Security
- Performance

## Focus Areas
* input validation
* memory management

## Suggestions
1. add bounds checking
2) consider alternatives

## Potential Issues
- silent return

Some trailing commentary that should be ignored.
`

func TestAgentComment(t *testing.T) {
	r := AgentComment(sampleComment)

	assert.Equal(t, []string{"Security", "Performance"}, r.Categories)
	assert.Equal(t, []string{"input validation", "memory management"}, r.FocusAreas)
	assert.Equal(t, []string{"add bounds checking", "consider alternatives"}, r.Suggestions)
	assert.Equal(t, []string{"silent return"}, r.PotentialIssues)
}

func TestAgentComment_CaseInsensitiveHeadings(t *testing.T) {
	r := AgentComment("### FOCUS AREAS\n- io handling\n")
	assert.Equal(t, []string{"io handling"}, r.FocusAreas)
}

func TestAgentComment_UnknownSectionIgnored(t *testing.T) {
	r := AgentComment("## Summary\n- not a review item\n\n## Categories\n- style\n")
	assert.Equal(t, []string{"style"}, r.Categories)
	assert.Empty(t, r.FocusAreas)
}

func TestAgentComment_FreeTextBetweenItemsIgnored(t *testing.T) {
	r := AgentComment("## Suggestions\nsome prose\n- real item\nmore prose\n")
	assert.Equal(t, []string{"real item"}, r.Suggestions)
}

func TestAgentComment_Empty(t *testing.T) {
	r := AgentComment("")
	assert.True(t, IsEmpty(r))

	r = AgentComment("just a plain comment with no sections")
	assert.True(t, IsEmpty(r))
}

func TestIsEmpty(t *testing.T) {
	r := AgentComment("## Potential Issues\n- one\n")
	assert.False(t, IsEmpty(r))
}
