package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/scorelog/internal/cache"
	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/model"
)

// ErrNotCached is returned in offline mode for documents missing from the cache
var ErrNotCached = errors.New("not in cache")

// Loader resolves a FetchKey to its raw document, preferring the cache
type Loader struct {
	cache   cache.Cache
	fetcher *Fetcher
	offline bool // never touch the network
	refresh bool // ignore cached documents and fetch again
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewLoader creates a loader. In offline mode fetcher may be nil.
func NewLoader(c cache.Cache, fetcher *Fetcher, offline, refresh bool, m *metrics.Metrics, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		cache:   c,
		fetcher: fetcher,
		offline: offline,
		refresh: refresh && !offline,
		metrics: m,
		logger:  logger,
	}
}

// URLFor returns the source URL of key, or "" without a fetcher
func (l *Loader) URLFor(key model.FetchKey) string {
	if l.fetcher == nil {
		return ""
	}
	return l.fetcher.URLFor(key)
}

// Load returns the document for key and where it came from
func (l *Loader) Load(ctx context.Context, key model.FetchKey) ([]byte, model.Origin, error) {
	if err := key.Validate(); err != nil {
		return nil, model.OriginNone, err
	}

	if !l.refresh && l.cache != nil {
		if doc, ok := l.cache.Get(key); ok {
			l.logger.Debug("cache hit", "key", key.String())
			l.metrics.IncDocument(string(model.OriginCache))
			return doc, model.OriginCache, nil
		}
	}

	if l.offline || l.fetcher == nil {
		return nil, model.OriginNone, fmt.Errorf("%s: %w", key, ErrNotCached)
	}

	doc, err := l.fetcher.FetchWithRetry(ctx, key)
	if err != nil {
		return nil, model.OriginNone, err
	}
	l.metrics.IncDocument(string(model.OriginNetwork))
	return doc, model.OriginNetwork, nil
}
