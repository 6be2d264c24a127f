// Package poll retrieves the agent's comment from a PR, either with a single
// non-blocking query or by polling under a bounded time budget.
package poll

import (
	"context"
	"time"

	"github.com/joescharf/preval/internal/classify"
	"github.com/joescharf/preval/internal/models"
)

// CommentLister is the comment-listing query the poller runs against.
type CommentLister interface {
	ListPRComments(repo string, prNumber int) ([]models.Comment, error)
}

// Poller finds agent comments among a PR's comment stream.
type Poller struct {
	lister     CommentLister
	classifier *classify.Classifier

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// New creates a poller over the given comment lister and classifier.
func New(lister CommentLister, classifier *classify.Classifier) *Poller {
	return &Poller{
		lister:     lister,
		classifier: classifier,
		sleep:      time.Sleep,
	}
}

// FetchLatestAgentComment queries once and returns the body of the most
// recent agent comment, judged by the lexicographic order of the ISO-8601
// createdAt strings. Returns "" when no comment qualifies. A failed query is
// treated as an empty comment list, not an error.
func (p *Poller) FetchLatestAgentComment(repo string, prNumber int) string {
	comments, err := p.lister.ListPRComments(repo, prNumber)
	if err != nil {
		return ""
	}

	var best models.Comment
	found := false
	for _, c := range comments {
		if !p.classifier.IsAgentComment(c) {
			continue
		}
		if !found || c.CreatedAt > best.CreatedAt {
			best = c
			found = true
		}
	}
	if !found {
		return ""
	}
	return best.Body
}

// FetchAgentComment polls the comment list until an agent comment appears or
// maxWait elapses, sleeping pollInterval between queries. It returns the
// FIRST matching comment in list order, not the most recent one; see
// FetchLatestAgentComment for the timestamp-based variant. A timeout returns
// "" rather than an error.
func (p *Poller) FetchAgentComment(ctx context.Context, repo string, prNumber int, maxWait, pollInterval time.Duration) string {
	var elapsed time.Duration
	for elapsed < maxWait {
		if ctx.Err() != nil {
			return ""
		}

		comments, err := p.lister.ListPRComments(repo, prNumber)
		if err == nil {
			for _, c := range comments {
				if p.classifier.IsAgentComment(c) {
					return c.Body
				}
			}
		}

		p.sleep(pollInterval)
		elapsed += pollInterval
	}
	return ""
}
