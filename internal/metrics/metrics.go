// Package metrics records what a scorelog run did: fetches, cache use and
// row acceptance. Metrics live in a private registry and are exported as a
// Prometheus textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scorelog"

// Fetch results
const (
	FetchOK           = "ok"
	FetchHTTPError    = "http_error"
	FetchNetworkError = "network_error"
	FetchDisallowed   = "disallowed"
)

// Metrics holds the collectors for one run. All methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	documents     *prometheus.CounterVec
	rows          *prometheus.CounterVec
	statsErrors   *prometheus.CounterVec
	games         *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Network fetches of game-log pages by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of game-log page requests, excluding politeness delays.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Season documents used by the aggregator by origin (cache, network, none).",
		}, []string{"origin"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Untagged table rows by parser result (accepted, skipped).",
		}, []string{"result"}),
		statsErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistics_errors_total",
			Help:      "Statistics computations rejected for insufficient or degenerate input.",
		}, []string{"op"}),
		games: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_games",
			Help:      "Games in the last dataset built for a team.",
		}, []string{"team"}),
	}

	m.registry.MustRegister(m.fetches, m.fetchDuration, m.documents, m.rows, m.statsErrors, m.games)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch records one network fetch
func (m *Metrics) ObserveFetch(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// IncDocument records where a season document came from
func (m *Metrics) IncDocument(origin string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(origin).Inc()
}

// AddRows records parser results for one document
func (m *Metrics) AddRows(accepted, skipped int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues("accepted").Add(float64(accepted))
	m.rows.WithLabelValues("skipped").Add(float64(skipped))
}

// IncStatisticsError records a rejected statistics computation
func (m *Metrics) IncStatisticsError(op string) {
	if m == nil {
		return
	}
	m.statsErrors.WithLabelValues(op).Inc()
}

// SetGames records the dataset size for a team
func (m *Metrics) SetGames(team string, games int) {
	if m == nil {
		return
	}
	m.games.WithLabelValues(team).Set(float64(games))
}

// WriteTextfile writes all metrics in the Prometheus text format, for node_exporter's textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
