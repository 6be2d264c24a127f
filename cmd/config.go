package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "preval"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage preval configuration.

Running bare 'preval config' is the same as 'preval config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# preval configuration
# See: preval config show (for effective values and sources)

# SQLite run-history database path (default: ~/.config/preval/preval.db)
# db_path: {{ .DBPath }}

# GitHub
github:
  # Target repository the test PRs are opened against
  owner: "{{ .GitHubOwner }}"
  repo: "{{ .GitHubRepo }}"

  # Local checkout the test branches are created in
  repo_path: "{{ .GitHubRepoPath }}"

# Runner settings
runner:
  # Evaluation definitions (JSON or YAML, bare list or {evaluations: [...]})
  evaluations_file: "{{ .EvaluationsFile }}"

  # Per-evaluation poll budget in seconds (default: 300)
  max_wait_seconds: {{ .MaxWaitSeconds }}

  # Seconds between polls (default: 5)
  poll_interval: {{ .PollInterval }}

  # Persist a results checkpoint every N completed evaluations (default: 5)
  checkpoint_every: {{ .CheckpointEvery }}

  # Directory checkpoint files are written into (default: "reports")
  reports_dir: "{{ .ReportsDir }}"

# Comment classifier
classifier:
  # Extra author substrings treated as the agent, on top of the built-ins
  # (bot, assistant, review, agent)
  # author_patterns: ["my-product-bot"]

  # Extra body phrases treated as an agent review
  # body_patterns: []

# Anthropic LLM parse fallback (used when the markdown parser finds nothing)
anthropic:
  # api_key: ""
  model: "{{ .AnthropicModel }}"
  parse_fallback: {{ .ParseFallback }}
`

type configTemplateData struct {
	DBPath          string
	GitHubOwner     string
	GitHubRepo      string
	GitHubRepoPath  string
	EvaluationsFile string
	MaxWaitSeconds  int
	PollInterval    int
	CheckpointEvery int
	ReportsDir      string
	AnthropicModel  string
	ParseFallback   bool
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		DBPath:          viper.GetString("db_path"),
		GitHubOwner:     viper.GetString("github.owner"),
		GitHubRepo:      viper.GetString("github.repo"),
		GitHubRepoPath:  viper.GetString("github.repo_path"),
		EvaluationsFile: viper.GetString("runner.evaluations_file"),
		MaxWaitSeconds:  viper.GetInt("runner.max_wait_seconds"),
		PollInterval:    viper.GetInt("runner.poll_interval"),
		CheckpointEvery: viper.GetInt("runner.checkpoint_every"),
		ReportsDir:      viper.GetString("runner.reports_dir"),
		AnthropicModel:  viper.GetString("anthropic.model"),
		ParseFallback:   viper.GetBool("anthropic.parse_fallback"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "db_path", EnvVar: "PREVAL_DB_PATH"},
	{Key: "github.owner", EnvVar: "PREVAL_GITHUB_OWNER"},
	{Key: "github.repo", EnvVar: "PREVAL_GITHUB_REPO"},
	{Key: "github.repo_path", EnvVar: "PREVAL_GITHUB_REPO_PATH"},
	{Key: "runner.evaluations_file", EnvVar: "PREVAL_RUNNER_EVALUATIONS_FILE"},
	{Key: "runner.max_wait_seconds", EnvVar: "PREVAL_RUNNER_MAX_WAIT_SECONDS"},
	{Key: "runner.poll_interval", EnvVar: "PREVAL_RUNNER_POLL_INTERVAL"},
	{Key: "runner.checkpoint_every", EnvVar: "PREVAL_RUNNER_CHECKPOINT_EVERY"},
	{Key: "runner.reports_dir", EnvVar: "PREVAL_RUNNER_REPORTS_DIR"},
	{Key: "classifier.author_patterns", EnvVar: "PREVAL_CLASSIFIER_AUTHOR_PATTERNS"},
	{Key: "classifier.body_patterns", EnvVar: "PREVAL_CLASSIFIER_BODY_PATTERNS"},
	{Key: "anthropic.model", EnvVar: "PREVAL_ANTHROPIC_MODEL"},
	{Key: "anthropic.parse_fallback", EnvVar: "PREVAL_ANTHROPIC_PARSE_FALLBACK"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-26s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set — set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'preval config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
