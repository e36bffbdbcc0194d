package pipeline

import (
	"context"
	"log/slog"

	"github.com/ppiankov/scorelog/internal/extract"
	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/model"
)

// Aggregator builds a team's per-game series across seasons
type Aggregator struct {
	loader    *Loader
	extractor *extract.RowExtractor
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(loader *Loader, extractor *extract.RowExtractor, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	if extractor == nil {
		extractor = extract.NewRowExtractor(false)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		loader:    loader,
		extractor: extractor,
		metrics:   m,
		logger:    logger,
	}
}

// BuildSeries loads every season in order and appends each accepted game to
// the dataset. A season whose document cannot be loaded or parsed contributes
// nothing and is recorded with its error. Only cancellation of ctx aborts.
func (a *Aggregator) BuildSeries(ctx context.Context, team string, seasons []int) (*model.Dataset, error) {
	ds := model.NewDataset(team)

	for _, season := range seasons {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := model.FetchKey{Team: team, Season: season}
		outcome := a.buildSeason(ctx, key, ds)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ds.Seasons = append(ds.Seasons, outcome)
	}

	return ds, nil
}

func (a *Aggregator) buildSeason(ctx context.Context, key model.FetchKey, ds *model.Dataset) model.SeasonOutcome {
	outcome := model.SeasonOutcome{
		Season: key.Season,
		URL:    a.loader.URLFor(key),
		Origin: model.OriginNone,
	}

	doc, origin, err := a.loader.Load(ctx, key)
	if err != nil {
		a.logger.Warn("skipping season", "key", key.String(), "error", err)
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Origin = origin

	rows, err := a.extractor.Extract(doc)
	if err != nil {
		a.logger.Warn("skipping unparseable season", "key", key.String(), "error", err)
		outcome.Error = err.Error()
		return outcome
	}

	for row := range rows {
		outcome.Rows++
		pair, ok := extract.ParseScorePair(row)
		if !ok {
			outcome.Skipped++
			continue
		}
		ds.Append(pair)
		outcome.Games++
	}
	a.metrics.AddRows(outcome.Games, outcome.Skipped)

	a.logger.Debug("season parsed", "key", key.String(), "origin", origin, "rows", outcome.Rows, "games", outcome.Games)
	return outcome
}
