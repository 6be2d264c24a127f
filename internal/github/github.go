// Package github wraps the gh and git CLIs for the operations the harness
// needs: opening a test PR for an evaluation and listing a PR's comments.
package github

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joescharf/preval/internal/models"
)

// Client defines the GitHub operations used by the runner and poller.
// Calls are idempotent at this boundary and safe to repeat.
type Client interface {
	CreatePRForEvaluation(eval *models.Evaluation) (prNumber int, prURL string, err error)
	ListPRComments(repo string, prNumber int) ([]models.Comment, error)
}

// RealClient implements Client using the gh and git CLIs.
type RealClient struct {
	// RepoPath is the local checkout the test branches are created in.
	RepoPath string
	// Repo is the owner/repo slug the PRs are opened against.
	Repo string
}

// NewClient returns a RealClient operating on the given local checkout and
// remote repository slug.
func NewClient(repoPath, repo string) *RealClient {
	return &RealClient{RepoPath: repoPath, Repo: repo}
}

func ghCmd(args ...string) (string, error) {
	out, err := exec.Command("gh", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("gh %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("gh %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func gitCmd(path string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", path}, args...)
	out, err := exec.Command("git", fullArgs...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CreatePRForEvaluation writes the evaluation's file changes to a fresh
// branch, pushes it, and opens a PR. Returns the new PR's number and URL.
func (c *RealClient) CreatePRForEvaluation(eval *models.Evaluation) (int, string, error) {
	base := eval.BaseBranch
	if base == "" {
		base = "main"
	}
	head := eval.HeadBranch
	if head == "" {
		head = fmt.Sprintf("eval/%d", eval.ID)
	}

	if _, err := gitCmd(c.RepoPath, "checkout", base); err != nil {
		return 0, "", fmt.Errorf("checkout base: %w", err)
	}
	if _, err := gitCmd(c.RepoPath, "checkout", "-B", head); err != nil {
		return 0, "", fmt.Errorf("create branch: %w", err)
	}

	for _, f := range eval.Files {
		dest := filepath.Join(c.RepoPath, f.Path)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return 0, "", fmt.Errorf("create file dir: %w", err)
		}
		if err := os.WriteFile(dest, []byte(f.Content), 0o644); err != nil {
			return 0, "", fmt.Errorf("write evaluation file: %w", err)
		}
		if _, err := gitCmd(c.RepoPath, "add", f.Path); err != nil {
			return 0, "", fmt.Errorf("stage file: %w", err)
		}
	}

	if _, err := gitCmd(c.RepoPath, "commit", "-m", eval.PRTitle); err != nil {
		return 0, "", fmt.Errorf("commit: %w", err)
	}
	if _, err := gitCmd(c.RepoPath, "push", "-f", "origin", head); err != nil {
		return 0, "", fmt.Errorf("push: %w", err)
	}

	url, err := ghCmd("pr", "create",
		"--repo", c.Repo,
		"--base", base,
		"--head", head,
		"--title", eval.PRTitle,
		"--body", eval.PRBody,
	)
	if err != nil {
		return 0, "", err
	}

	number, err := prNumberFromURL(url)
	if err != nil {
		return 0, "", err
	}
	return number, url, nil
}

// prNumberFromURL extracts the trailing PR number from a gh-reported URL
// such as https://github.com/owner/repo/pull/42.
func prNumberFromURL(url string) (int, error) {
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return 0, fmt.Errorf("no PR number in URL: %q", url)
	}
	n, err := strconv.Atoi(url[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("no PR number in URL: %q", url)
	}
	return n, nil
}

// ListPRComments fetches all comments on a PR.
func (c *RealClient) ListPRComments(repo string, prNumber int) ([]models.Comment, error) {
	out, err := ghCmd("pr", "view", strconv.Itoa(prNumber),
		"--repo", repo,
		"--comments",
		"--json", "comments",
	)
	if err != nil {
		return nil, err
	}
	return DecodeComments([]byte(out))
}

// DecodeComments parses the gh `pr view --json comments` payload.
func DecodeComments(data []byte) ([]models.Comment, error) {
	var payload struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse comments: %w", err)
	}
	return payload.Comments, nil
}
