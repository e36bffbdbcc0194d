package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/model"
	"github.com/ppiankov/scorelog/internal/pipeline"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <TEAM>",
	Short: "Download game logs into the cache without analyzing them",
	Long: `Fetch makes sure the cache holds the team's game log for every season in
the range. Pages already cached are left alone unless --refresh is given.
Afterwards 'scorelog analyze --offline' works without network access.

Example:
  scorelog fetch LAL --from 2010 --to 2020
  scorelog fetch CHI --from 2015 --to 2015 --refresh`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addSeasonFlags(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
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

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Refresh: refresh}, m, logger)
	if err != nil {
		return err
	}

	outcomes, err := p.WarmCache(ctx, args[0], p.Seasons())
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, o := range outcomes {
		if o.Error != "" {
			failed++
			_, _ = fmt.Fprintf(out, "✗ %d: %s\n", o.Season, o.Error)
			continue
		}
		verb := "downloaded"
		if o.Origin == model.OriginCache {
			verb = "cached"
		}
		_, _ = fmt.Fprintf(out, "✓ %d: %s\n", o.Season, verb)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d seasons could not be fetched", failed, len(outcomes))
	}
	return nil
}
