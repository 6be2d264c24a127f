// Package llm provides optional LLM-assisted extraction of review fields
// from agent comments whose markdown the rule-based parser cannot handle.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/preval/internal/models"
)

// Client wraps the Anthropic API for review extraction.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildPrompt constructs the system and user prompts for review extraction.
func buildPrompt(comment string) (system string, user string) {
	system = `You extract structured review data from a pull request review comment. Return ONLY a JSON object with these fields, each a JSON array of strings:
- "categories": the review categories named in the comment (e.g. "security", "performance")
- "focus_areas": the areas of the change the review focuses on
- "suggestions": concrete suggestions the reviewer makes
- "potential_issues": problems or risks the reviewer identifies

Rules:
- Use the comment's own wording for each item; do not paraphrase
- An item belongs to exactly one field; pick the most specific one
- Use an empty array for any field the comment does not cover
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Extract review data from this PR comment:\n\n")
	sb.WriteString(comment)
	user = sb.String()
	return
}

// ExtractReview sends a comment body to the LLM and returns the parsed review.
func (c *Client) ExtractReview(ctx context.Context, comment string) (*models.ParsedReview, error) {
	systemPrompt, userPrompt := buildPrompt(comment)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	// Strip markdown fencing if present
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var review models.ParsedReview
	if err := json.Unmarshal([]byte(text), &review); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	return &review, nil
}
