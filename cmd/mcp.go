package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/preval/internal/mcp"
	"github.com/joescharf/preval/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This allows Claude Code to query the golden dataset and past run
results natively. Configure in Claude Code with:

  {
    "mcpServers": {
      "preval": { "command": "preval", "args": ["mcp"] }
    }
  }

Available tools: preval_list_evaluations, preval_validate_review,
preval_run_history, preval_run_results`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Run-history tools degrade gracefully when the db is unavailable.
		var s store.Store
		if db, err := getStore(); err == nil {
			s = db
		} else {
			ui.VerboseLog("run history unavailable: %v", err)
		}

		srv := mcp.NewServer(s, viper.GetString("runner.evaluations_file"))
		ui.VerboseLog("starting MCP stdio server")
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
