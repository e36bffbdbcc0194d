package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/scorelog/internal/logging"
	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/model"
)

// version is set at build time with -ldflags "-X github.com/ppiankov/scorelog/internal/cli.version=..."
var version = "v0.1.0"

var (
	cfgFile     string
	verbose     bool
	metricsFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scorelog",
	Short: "scorelog - per-game scoring statistics from basketball-reference.com",
	Long: `scorelog downloads a team's season game logs from basketball-reference.com,
caches them locally and turns them into per-game scoring series.

For every team it reports:
- a least-squares fit of points allowed against points scored
- the empirical distribution of team, opponent and total points
- how far each distribution is from a Poisson model with the same mean

Pages are cached under the configured cache directory, so repeated
analyses and offline runs never touch the network.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scorelog %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.scorelog/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting config defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".scorelog"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// SCORELOG_HTTP_USER_AGENT overrides http.user_agent, and so on
	viper.SetEnvPrefix("SCORELOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("llm.api_key", "SCORELOG_LLM_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("llm.base_url", "SCORELOG_LLM_BASE_URL", "OLLAMA_BASE_URL")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key of cfg with v so that environment
// variables and Unmarshal see the complete key set
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setTree(v, "", tree)
	return nil
}

func setTree(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setTree(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig returns the effective configuration: defaults, overlaid by the
// config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	return loadConfigFrom(viper.GetViper())
}

func loadConfigFrom(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Output.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the command logger on stderr
func newLogger(cfg *model.Config) (*slog.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}

// flushMetrics writes the metrics textfile when one is configured
func flushMetrics(m *metrics.Metrics, cfg *model.Config, logger *slog.Logger) {
	if cfg.Output.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
		logger.Warn("failed to write metrics", "path", cfg.Output.MetricsFile, "error", err)
		return
	}
	logger.Debug("wrote metrics", "path", cfg.Output.MetricsFile)
}
