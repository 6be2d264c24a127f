package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/preval/internal/dataset"
	"github.com/joescharf/preval/internal/models"
	"github.com/joescharf/preval/internal/store"
	"github.com/joescharf/preval/internal/validate"
)

// Server wraps the preval data layer and exposes it as MCP tools.
type Server struct {
	store           store.Store
	evaluationsFile string
}

// NewServer creates the MCP server wrapper. store may be nil, in which
// case the run-history tools report an error instead of serving data.
func NewServer(s store.Store, evaluationsFile string) *Server {
	return &Server{store: s, evaluationsFile: evaluationsFile}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("preval", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listEvaluationsTool())
	srv.AddTool(s.validateReviewTool())
	srv.AddTool(s.runHistoryTool())
	srv.AddTool(s.runResultsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// preval_list_evaluations
func (s *Server) listEvaluationsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("preval_list_evaluations",
		mcp.WithDescription("List the evaluations in the golden dataset. Returns a JSON array with id, pr_title, difficulty, categories, and the expected review dimensions."),
		mcp.WithString("difficulty", mcp.Description("Filter by difficulty (e.g. easy, medium, hard)")),
	)
	return tool, s.handleListEvaluations
}

func (s *Server) handleListEvaluations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	difficulty := request.GetString("difficulty", "")

	evals, err := dataset.Load(s.evaluationsFile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load evaluations: %v", err)), nil
	}

	type evalOut struct {
		ID              int      `json:"id"`
		PRTitle         string   `json:"pr_title"`
		Difficulty      string   `json:"difficulty"`
		Categories      []string `json:"categories"`
		FocusAreas      []string `json:"focus_areas"`
		Suggestions     []string `json:"suggestions"`
		PotentialIssues []string `json:"potential_issues"`
	}

	out := make([]evalOut, 0, len(evals))
	for _, e := range evals {
		if difficulty != "" && e.Difficulty != difficulty {
			continue
		}
		out = append(out, evalOut{
			ID:              e.ID,
			PRTitle:         e.PRTitle,
			Difficulty:      e.Difficulty,
			Categories:      e.Categories,
			FocusAreas:      e.ExpectedReview.FocusAreas,
			Suggestions:     e.ExpectedReview.Suggestions,
			PotentialIssues: e.ExpectedReview.PotentialIssues,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal evaluations: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// preval_validate_review
func (s *Server) validateReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("preval_validate_review",
		mcp.WithDescription("Score a parsed review against one evaluation's expected review. The review is a JSON object with categories, focus_areas, suggestions, and potential_issues string arrays. Returns the full validation result including per-dimension missing and extra items."),
		mcp.WithNumber("evaluation_id", mcp.Required(), mcp.Description("ID of the evaluation to validate against")),
		mcp.WithString("review", mcp.Required(), mcp.Description("Parsed review as a JSON object string")),
	)
	return tool, s.handleValidateReview
}

func (s *Server) handleValidateReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	evalID, err := request.RequireInt("evaluation_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: evaluation_id"), nil
	}
	reviewJSON, err := request.RequireString("review")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: review"), nil
	}

	evals, err := dataset.Load(s.evaluationsFile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load evaluations: %v", err)), nil
	}

	var eval *models.Evaluation
	for i := range evals {
		if evals[i].ID == evalID {
			eval = &evals[i]
			break
		}
	}
	if eval == nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation not found: %d", evalID)), nil
	}

	var parsed models.ParsedReview
	if err := json.Unmarshal([]byte(reviewJSON), &parsed); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid review JSON: %v", err)), nil
	}

	result := validate.Strict(&parsed, eval)
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// preval_run_history
func (s *Server) runHistoryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("preval_run_history",
		mcp.WithDescription("List past evaluation runs with their aggregate counts and average score, most recent first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 20)")),
	)
	return tool, s.handleRunHistory
}

func (s *Server) handleRunHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("run history is not available: no database configured"), nil
	}

	limit := request.GetInt("limit", 20)
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	data, err := json.Marshal(runs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// preval_run_results
func (s *Server) runResultsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("preval_run_results",
		mcp.WithDescription("Get the per-evaluation results of one run, including each result's status, score, PR number, and full validation detail."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID as shown by preval_run_history")),
	)
	return tool, s.handleRunResults
}

func (s *Server) handleRunResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("run history is not available: no database configured"), nil
	}

	runID, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: run_id"), nil
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run not found: %s", runID)), nil
	}
	results, err := s.store.ListRunResults(ctx, run.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list results: %v", err)), nil
	}

	doc := map[string]any{
		"run":     run,
		"results": results,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
