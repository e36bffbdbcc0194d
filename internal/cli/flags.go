package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/scorelog/internal/model"
	"github.com/ppiankov/scorelog/internal/pipeline"
)

// Flags shared by analyze, batch and fetch. Every command registers them with
// the same defaults; values only override the config when the flag was set.
var (
	fromSeason  int
	toSeason    int
	offline     bool
	refresh     bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
	runTimeout  time.Duration
	userAgent   string
)

func addSeasonFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&fromSeason, "from", 0, "first season, inclusive (default: seasons.start)")
	cmd.Flags().IntVar(&toSeason, "to", 0, "last season, inclusive (default: seasons.end)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-download pages that are already cached")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall timeout")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default: http.user_agent)")
}

func addAnalysisFlags(cmd *cobra.Command) {
	addSeasonFlags(cmd)
	cmd.Flags().BoolVar(&offline, "offline", false, "use cached pages only, never fetch")
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "attach an LLM narrative (requires llm.provider)")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

// applyFlags overlays explicitly set flags onto cfg
func applyFlags(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()
	if flags.Changed("from") {
		cfg.Seasons.Start = fromSeason
	}
	if flags.Changed("to") {
		cfg.Seasons.End = toSeason
	}
	if flags.Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}

	if cfg.Seasons.End < cfg.Seasons.Start {
		return fmt.Errorf("invalid season range %d-%d", cfg.Seasons.Start, cfg.Seasons.End)
	}
	if offline && refresh {
		return fmt.Errorf("--offline and --refresh cannot be combined")
	}
	if llmEnabled && cfg.LLM.Provider == "" {
		return fmt.Errorf("--llm requires --llm-provider or llm.provider in the config")
	}
	if llmEnabled && cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

func pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Offline: offline,
		Refresh: refresh,
		Narrate: llmEnabled,
	}
}

// commandContext is cancelled by Ctrl-C or when the timeout expires
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
