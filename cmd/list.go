package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/preval/internal/dataset"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the evaluations in the golden dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRun()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listRun() error {
	evals, err := dataset.Load(viper.GetString("runner.evaluations_file"))
	if err != nil {
		return err
	}

	table := ui.Table([]string{"ID", "TITLE", "DIFFICULTY", "CATEGORIES"})
	for _, e := range evals {
		table.Append([]string{
			strconv.Itoa(e.ID),
			e.PRTitle,
			e.Difficulty,
			strings.Join(e.Categories, ", "),
		})
	}
	return table.Render()
}
