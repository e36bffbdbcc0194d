package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/pipeline"
	"github.com/ppiankov/scorelog/internal/worker"
)

var (
	concurrency int
	outputDir   string
	teamsFile   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [TEAM...]",
	Short: "Analyze several teams, writing one report per team",
	Long: `Batch analyzes every listed team (or every team in --file, one code per
line, # starts a comment) and writes <TEAM>.json and <TEAM>.md into the
output directory.

Teams may run concurrently. All workers share one rate limiter, so the
source sees the configured request rate regardless of --concurrency.

Example:
  scorelog batch LAL CHI --from 2010 --to 2020
  scorelog batch --file teams.txt --concurrency 2 --output-dir ./reports`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of teams analyzed at once (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default: output.dir)")
	batchCmd.Flags().StringVar(&teamsFile, "file", "", "read team codes from this file")
	addAnalysisFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	teams := args
	if teamsFile != "" {
		fromFile, err := worker.ReadTeamsFromFile(teamsFile)
		if err != nil {
			return fmt.Errorf("read teams: %w", err)
		}
		teams = append(teams, fromFile...)
	}
	if len(teams) == 0 {
		return fmt.Errorf("no teams given; pass team codes or --file")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	m := metrics.New()
	defer flushMetrics(m, cfg, logger)

	p, err := pipeline.NewPipeline(cfg, pipelineOptions(), m, logger)
	if err != nil {
		return err
	}

	logger.Info("starting batch", "teams", len(teams), "workers", cfg.Concurrency.Workers, "output_dir", cfg.Output.Dir)

	results := worker.NewBatchProcessor(p, cfg.Concurrency.Workers).ProcessTeams(ctx, teams)

	out := cmd.OutOrStdout()
	failures := 0
	for _, result := range results {
		if result.Error != nil {
			failures++
			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", result.Team, result.Error)
			continue
		}
		if err := writeTeamReports(p.Renderer(), cfg.Output.Dir, result); err != nil {
			failures++
			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", result.Team, err)
			continue
		}
		printBatchLine(out, result)
	}

	_, _ = fmt.Fprintf(out, "\n%d teams, %d succeeded, %d failed, reports in %s\n",
		len(results), len(results)-failures, failures, cfg.Output.Dir)

	if failures == len(results) {
		return fmt.Errorf("all %d teams failed", failures)
	}
	return nil
}

func writeTeamReports(r *pipeline.Renderer, dir string, result *worker.TeamResult) error {
	base := filepath.Join(dir, pipeline.NormalizeTeam(result.Report.Team))
	return renderOutputs(r, result.Report, base+".json", base+".md")
}

func printBatchLine(w io.Writer, result *worker.TeamResult) {
	report := result.Report
	line := fmt.Sprintf("✓ %s: %d games", report.Team, report.Dataset.Games())
	if fit := report.Regression; fit != nil {
		line += fmt.Sprintf(", slope %.3f, r %.3f", fit.Slope, fit.R)
	} else {
		line += ", no regression"
	}
	_, _ = fmt.Fprintln(w, line)
}
