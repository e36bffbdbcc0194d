package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/scorelog/internal/cache"
	"github.com/ppiankov/scorelog/internal/extract"
	"github.com/ppiankov/scorelog/internal/llm"
	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/model"
	"github.com/ppiankov/scorelog/internal/stats"
	"github.com/ppiankov/scorelog/internal/worker"
)

// ErrNoSeasons is returned when the requested season range is empty
var ErrNoSeasons = errors.New("empty season range")

// Options selects how a Pipeline obtains documents
type Options struct {
	Offline bool // read only from the cache
	Refresh bool // re-download cached documents
	Narrate bool // attach an LLM narrative when a provider is configured
}

// Pipeline orchestrates fetching, parsing and statistics for one or more teams.
// It is safe for concurrent use; all fetches share one rate limiter.
type Pipeline struct {
	config     *model.Config
	cache      cache.Cache
	fetcher    *Fetcher
	loader     *Loader
	aggregator *Aggregator
	renderer   *Renderer
	narrator   *llm.Narrator // nil when disabled
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts Options, m *metrics.Metrics, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	docs := cache.New(cfg.Cache)

	fetcher := NewFetcher(FetcherOptions{
		BaseURL:      cfg.HTTP.BaseURL,
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.HTTP.Timeout,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		MaxAttempts:  cfg.HTTP.MaxAttempts,
		HTTPProxy:    cfg.HTTP.HTTPProxy,
		HTTPSProxy:   cfg.HTTP.HTTPSProxy,
		Delay:        NewRandomDelay(cfg.Delay.Min, cfg.Delay.Max),
		Limiter:      worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Robots:       cfg.HTTP.RespectRobots,
		Cache:        docs,
		Metrics:      m,
		Logger:       logger,
	})

	loader := NewLoader(docs, fetcher, opts.Offline, opts.Refresh, m, logger)

	var narrator *llm.Narrator
	if opts.Narrate && cfg.LLM.Provider != "" {
		n, err := llm.NewNarrator(llm.ConfigFromModel(cfg))
		if err != nil {
			return nil, fmt.Errorf("init LLM narrator: %w", err)
		}
		narrator = n
	}

	return &Pipeline{
		config:     cfg,
		cache:      docs,
		fetcher:    fetcher,
		loader:     loader,
		aggregator: NewAggregator(loader, extract.NewRowExtractor(cfg.Extract.IncludeCommented), m, logger),
		renderer:   NewRenderer(cfg.Output.IncludeSeries),
		narrator:   narrator,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Seasons returns the configured season range
func (p *Pipeline) Seasons() []int {
	return model.SeasonRange(p.config.Seasons.Start, p.config.Seasons.End)
}

// AnalyzeTeam analyzes team over the configured season range
func (p *Pipeline) AnalyzeTeam(ctx context.Context, team string) (*model.TeamReport, error) {
	return p.Analyze(ctx, team, p.Seasons())
}

// Analyze builds the dataset for team over seasons and computes its statistics.
// Statistics failures are recorded in the report, not returned. The error is
// non-nil only for invalid input or cancellation.
func (p *Pipeline) Analyze(ctx context.Context, team string, seasons []int) (*model.TeamReport, error) {
	team = NormalizeTeam(team)
	if err := (model.FetchKey{Team: team, Season: 1}).Validate(); err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, ErrNoSeasons
	}

	p.logger.Info("analyzing team", "team", team, "from", seasons[0], "to", seasons[len(seasons)-1])

	ds, err := p.aggregator.BuildSeries(ctx, team, seasons)
	if err != nil {
		return nil, fmt.Errorf("build series for %s: %w", team, err)
	}

	report := &model.TeamReport{
		Team:        team,
		FirstSeason: seasons[0],
		LastSeason:  seasons[len(seasons)-1],
		GeneratedAt: p.now().UTC(),
		SourceURLs:  sourceURLs(ds),
		Dataset:     ds,
	}
	p.computeStatistics(report)
	p.metrics.SetGames(team, ds.Games())

	// Narrative runs after the numbers are final and never alters them
	if p.narrator.IsEnabled() {
		narrative, err := p.narrator.Describe(ctx, report)
		if err != nil {
			p.logger.Warn("LLM narrative failed", "team", team, "error", err)
		} else {
			report.Narrative = narrative
		}
	}

	p.logger.Info("analysis complete", "team", team, "games", ds.Games(), "failed_seasons", len(ds.FailedSeasons()))
	return report, nil
}

func (p *Pipeline) computeStatistics(report *model.TeamReport) {
	ds := report.Dataset

	fit, err := stats.LinearFit(ds.TeamPoints, ds.OpponentPoints)
	if err != nil {
		report.RegressionError = err.Error()
		p.recordStatisticsError(report.Team, err)
	} else {
		report.Regression = &fit
	}

	series := []struct {
		name   string
		values []int
	}{
		{model.SeriesTeam, ds.TeamPoints},
		{model.SeriesOpponent, ds.OpponentPoints},
		{model.SeriesTotal, ds.TotalPoints},
	}
	for _, s := range series {
		summary, err := stats.Summarize(s.name, s.values)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s points: %v", s.name, err))
			p.recordStatisticsError(report.Team, err)
			continue
		}
		report.Series = append(report.Series, summary)
	}
}

func (p *Pipeline) recordStatisticsError(team string, err error) {
	op := "unknown"
	var statErr *stats.Error
	if errors.As(err, &statErr) {
		op = statErr.Op
	}
	p.metrics.IncStatisticsError(op)
	p.logger.Warn("statistic unavailable", "team", team, "op", op, "error", err)
}

// WarmCache makes sure every season's document is cached, fetching only what
// is missing (or everything when the pipeline refreshes). Failures are
// recorded per season; only cancellation aborts.
func (p *Pipeline) WarmCache(ctx context.Context, team string, seasons []int) ([]model.SeasonOutcome, error) {
	team = NormalizeTeam(team)
	if err := (model.FetchKey{Team: team, Season: 1}).Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]model.SeasonOutcome, 0, len(seasons))
	for _, season := range seasons {
		key := model.FetchKey{Team: team, Season: season}
		outcome := model.SeasonOutcome{Season: season, URL: p.loader.URLFor(key), Origin: model.OriginNone}

		doc, origin, err := p.loader.Load(ctx, key)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcomes, ctxErr
		}
		if err != nil {
			p.logger.Warn("could not cache season", "key", key.String(), "error", err)
			outcome.Error = err.Error()
		} else {
			outcome.Origin = origin
			p.logger.Debug("season cached", "key", key.String(), "origin", origin, "bytes", len(doc))
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// NormalizeTeam trims and upper-cases a franchise code
func NormalizeTeam(team string) string {
	return strings.ToUpper(strings.TrimSpace(team))
}

func sourceURLs(ds *model.Dataset) []string {
	urls := []string{}
	for _, s := range ds.Seasons {
		if s.Origin != model.OriginNone && s.URL != "" {
			urls = append(urls, s.URL)
		}
	}
	return urls
}
