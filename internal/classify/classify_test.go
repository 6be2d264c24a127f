package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joescharf/preval/internal/models"
)

func comment(login, body string) models.Comment {
	return models.Comment{
		Author: models.CommentAuthor{Login: login},
		Body:   body,
	}
}

func TestIsAgentComment(t *testing.T) {
	c := New(nil, nil)

	tests := []struct {
		name     string
		comment  models.Comment
		expected bool
	}{
		// Author patterns
		{"bot login", comment("librsvg-reviewer-bot", "lgtm"), true},
		{"assistant login", comment("my-assistant", "thanks"), true},
		{"agent login", comment("ReviewAgent", "hi"), true},
		{"mixed case login", comment("GitHub-BOT", "hi"), true},
		{"plain human login", comment("alice", "nice change"), false},

		// Body patterns
		{"categories heading", comment("alice", "## Categories\n- security"), true},
		{"focus areas heading any case", comment("alice", "## Focus Areas\n- io"), true},
		{"automated review signature", comment("alice", "This is an Automated Review."), true},
		{"pr review phrase", comment("alice", "here is my PR review"), true},
		{"unrelated body", comment("alice", "can you rebase?"), false},

		// Empties never match
		{"empty comment", comment("", ""), false},
		{"empty body human login", comment("bob", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.IsAgentComment(tt.comment))
		})
	}
}

func TestIsAgentComment_ExtraPatterns(t *testing.T) {
	c := New([]string{"prevald"}, []string{"verdict:"})

	assert.True(t, c.IsAgentComment(comment("prevald-ci", "hello")))
	assert.True(t, c.IsAgentComment(comment("alice", "Verdict: ship it")))

	// Defaults still active alongside extras.
	assert.True(t, c.IsAgentComment(comment("somebot", "hello")))
	assert.False(t, c.IsAgentComment(comment("alice", "hello")))
}
