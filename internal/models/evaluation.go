package models

// ExpectedReview holds the ground-truth review for an evaluation.
type ExpectedReview struct {
	FocusAreas      []string `json:"focus_areas" yaml:"focus_areas"`
	Suggestions     []string `json:"suggestions" yaml:"suggestions"`
	PotentialIssues []string `json:"potential_issues" yaml:"potential_issues"`
}

// EvaluationFile is one file change included in an evaluation's test PR.
type EvaluationFile struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// Evaluation is a golden-dataset test case: the content of a pull request
// paired with the review the agent is expected to produce for it.
type Evaluation struct {
	ID         int      `json:"id" yaml:"id"`
	PRTitle    string   `json:"pr_title" yaml:"pr_title"`
	PRBody     string   `json:"pr_body" yaml:"pr_body"`
	BaseBranch string   `json:"base_branch" yaml:"base_branch"`
	HeadBranch string   `json:"head_branch" yaml:"head_branch"`
	Categories []string `json:"categories" yaml:"categories"`
	Difficulty string   `json:"difficulty" yaml:"difficulty"`

	Files []EvaluationFile `json:"files" yaml:"files"`

	ExpectedReview ExpectedReview `json:"expected_review" yaml:"expected_review"`
}
