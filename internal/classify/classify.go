// Package classify decides whether a PR comment came from the review agent.
// Identification is heuristic: there is no protocol field marking the agent's
// output, so we pattern-match the author login and the comment body. False
// positives on ambiguous logins are accepted behavior.
package classify

import (
	"strings"

	"github.com/joescharf/preval/internal/models"
)

// DefaultAuthorPatterns are substrings matched against the lowercased author
// login. Kept as data so deployments can extend them via configuration.
var DefaultAuthorPatterns = []string{
	"bot",
	"assistant",
	"review",
	"agent",
}

// DefaultBodyPatterns are phrases matched against the lowercased comment
// body: the review section headings the agent emits plus its signature lines.
var DefaultBodyPatterns = []string{
	"## categories",
	"## focus areas",
	"## suggestions",
	"## potential issues",
	"pr review",
	"code review",
	"automated review",
}

// Classifier matches comments against author and body pattern sets.
type Classifier struct {
	authorPatterns []string
	bodyPatterns   []string
}

// New returns a classifier using the default pattern sets plus any extras.
func New(extraAuthor, extraBody []string) *Classifier {
	return &Classifier{
		authorPatterns: append(append([]string{}, DefaultAuthorPatterns...), extraAuthor...),
		bodyPatterns:   append(append([]string{}, DefaultBodyPatterns...), extraBody...),
	}
}

// IsAgentComment reports whether the comment looks like the agent's review.
// Any single author or body pattern matching is sufficient.
func (c *Classifier) IsAgentComment(comment models.Comment) bool {
	login := strings.ToLower(comment.Author.Login)
	for _, pattern := range c.authorPatterns {
		if pattern != "" && strings.Contains(login, pattern) {
			return true
		}
	}

	body := strings.ToLower(comment.Body)
	for _, pattern := range c.bodyPatterns {
		if pattern != "" && strings.Contains(body, pattern) {
			return true
		}
	}

	return false
}
