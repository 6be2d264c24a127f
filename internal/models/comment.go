package models

// CommentAuthor identifies who wrote a PR comment.
type CommentAuthor struct {
	Login string `json:"login"`
}

// Comment is a single pull request comment as returned by the GitHub API.
// CreatedAt is kept as the raw ISO-8601 string; those sort lexicographically
// by recency, which is all the poller needs.
type Comment struct {
	ID        string        `json:"id"`
	Author    CommentAuthor `json:"author"`
	Body      string        `json:"body"`
	CreatedAt string        `json:"createdAt"`
}

// ParsedReview holds the typed fields extracted from one agent comment.
type ParsedReview struct {
	Categories      []string `json:"categories"`
	FocusAreas      []string `json:"focus_areas"`
	Suggestions     []string `json:"suggestions"`
	PotentialIssues []string `json:"potential_issues"`
}
