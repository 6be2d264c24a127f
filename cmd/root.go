package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/preval/internal/output"
	"github.com/joescharf/preval/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "preval",
	Short: "Golden-dataset evaluation harness for the PR review agent",
	Long: `preval verifies the automated PR review agent against a curated set
of expected reviews. For each evaluation it opens a test pull request,
waits for the agent's comment, parses it, and scores the parsed review
against the golden expectations.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runRun(cmd.Context())
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would run without executing")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/preval/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	explicitConfig := false
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		explicitConfig = true
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "preval")
		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PREVAL")
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "preval")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "preval.db"))
	viper.SetDefault("github.owner", "")
	viper.SetDefault("github.repo", "")
	viper.SetDefault("github.repo_path", ".")
	viper.SetDefault("runner.evaluations_file", "../pr_evaluations.json")
	viper.SetDefault("runner.max_wait_seconds", 300)
	viper.SetDefault("runner.poll_interval", 5)
	viper.SetDefault("runner.checkpoint_every", 5)
	viper.SetDefault("runner.reports_dir", "reports")
	viper.SetDefault("classifier.author_patterns", []string{})
	viper.SetDefault("classifier.body_patterns", []string{})
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("anthropic.parse_fallback", false)

	if err := readConfig(explicitConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readConfig loads the config file. The implicit search path tolerates a
// missing file; anything else, including any problem with an explicitly
// passed --config file, is fatal before any evaluation runs.
func readConfig(explicit bool) error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !explicit && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// getStore returns the shared history store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// repoSlug builds the owner/repo identifier from config.
func repoSlug() string {
	return fmt.Sprintf("%s/%s", viper.GetString("github.owner"), viper.GetString("github.repo"))
}
