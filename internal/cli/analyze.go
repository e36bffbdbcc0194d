package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/model"
	"github.com/ppiankov/scorelog/internal/pipeline"
)

var (
	outJSON string
	outMD   string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <TEAM>",
	Short: "Analyze one team's scoring over a range of seasons",
	Long: `Analyze loads the team's game log for every season in the range
(from the cache when present, otherwise from basketball-reference.com),
collects the final score of every game and reports:
- the least-squares fit of opponent points against team points
- distributions of team, opponent and total points with a Poisson comparison

Seasons that cannot be loaded are reported and skipped.

Example:
  scorelog analyze LAL --from 2010 --to 2020
  scorelog analyze CHI --offline --json chi.json --md chi.md
  scorelog analyze LAL --llm --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	addAnalysisFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	m := metrics.New()
	defer flushMetrics(m, cfg, logger)

	p, err := pipeline.NewPipeline(cfg, pipelineOptions(), m, logger)
	if err != nil {
		return err
	}

	report, err := p.AnalyzeTeam(ctx, args[0])
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if err := renderOutputs(p.Renderer(), report, outJSON, outMD); err != nil {
		return err
	}
	p.Renderer().RenderSummary(cmd.OutOrStdout(), report)

	if report.Dataset.Games() == 0 {
		return fmt.Errorf("no games found for %s in %d-%d", report.Team, report.FirstSeason, report.LastSeason)
	}
	return nil
}

func renderOutputs(r *pipeline.Renderer, report *model.TeamReport, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	return nil
}
