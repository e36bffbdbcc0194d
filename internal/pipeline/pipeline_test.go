package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/scorelog/internal/model"
	"github.com/ppiankov/scorelog/internal/stats"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyze_TwoCachedSeasons(t *testing.T) {
	cfg := testConfig(t, "https://www.basketball-reference.com")
	seedCache(t, cfg, "LAL", map[int]string{
		2010: gameLogHTML(model.ScorePair{Team: 100, Opponent: 90}),
		2011: gameLogHTML(model.ScorePair{Team: 110, Opponent: 95}),
	})

	p, err := NewPipeline(cfg, Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Analyze(context.Background(), " lal ", []int{2010, 2011})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	ds := report.Dataset
	if fmt.Sprint(ds.TeamPoints) != "[100 110]" || fmt.Sprint(ds.OpponentPoints) != "[90 95]" {
		t.Errorf("Unexpected series: team %v, opponent %v", ds.TeamPoints, ds.OpponentPoints)
	}
	if fmt.Sprint(ds.TotalPoints) != "[190 205]" {
		t.Errorf("Expected numeric totals [190 205], got %v", ds.TotalPoints)
	}

	fit := report.Regression
	if fit == nil {
		t.Fatalf("Expected regression, got error %q", report.RegressionError)
	}
	if !approx(fit.Slope, 0.5) || !approx(fit.Intercept, 40) || !approx(fit.R, 1) {
		t.Errorf("Unexpected fit: %+v", fit)
	}

	if report.Team != "LAL" || report.FirstSeason != 2010 || report.LastSeason != 2011 {
		t.Errorf("Unexpected report header: %s %d-%d", report.Team, report.FirstSeason, report.LastSeason)
	}
	if len(report.SourceURLs) != 2 || report.SourceURLs[0] != "https://www.basketball-reference.com/teams/LAL/2010_games.html" {
		t.Errorf("Unexpected source URLs: %v", report.SourceURLs)
	}
	for _, s := range ds.Seasons {
		if s.Origin != model.OriginCache || s.Games != 1 {
			t.Errorf("Unexpected outcome: %+v", s)
		}
	}

	total, ok := report.SeriesByName(model.SeriesTotal)
	if !ok {
		t.Fatal("Expected total series summary")
	}
	if !approx(total.Distribution.Mean(), 197.5) || total.Distribution.P(190) != 0.5 {
		t.Errorf("Unexpected total distribution: mean %v", total.Distribution.Mean())
	}
	if len(report.Series) != 3 || len(report.Errors) != 0 {
		t.Errorf("Expected 3 series and no errors, got %d, %v", len(report.Series), report.Errors)
	}
}

func TestAnalyze_FailingSeasonIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/teams/CHI/2010_games.html":
			_, _ = fmt.Fprint(w, gameLogHTML(model.ScorePair{Team: 96, Opponent: 104}, model.ScorePair{Team: 101, Opponent: 88}))
		case "/teams/CHI/2012_games.html":
			_, _ = fmt.Fprint(w, gameLogHTML(model.ScorePair{Team: 88, Opponent: 99}))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	p, err := NewPipeline(cfg, Options{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Analyze(context.Background(), "CHI", []int{2010, 2011, 2012})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	ds := report.Dataset
	if fmt.Sprint(ds.TeamPoints) != "[96 101 88]" || fmt.Sprint(ds.OpponentPoints) != "[104 88 99]" {
		t.Errorf("Unexpected series: %v / %v", ds.TeamPoints, ds.OpponentPoints)
	}

	failed := ds.FailedSeasons()
	if len(failed) != 1 || failed[0].Season != 2011 {
		t.Fatalf("Expected 2011 to fail, got %+v", failed)
	}
	if !strings.Contains(failed[0].Error, "404") || failed[0].Origin != model.OriginNone {
		t.Errorf("Unexpected failure outcome: %+v", failed[0])
	}
	if len(report.SourceURLs) != 2 {
		t.Errorf("Expected only successful seasons as sources, got %v", report.SourceURLs)
	}
	if ds.Seasons[0].Origin != model.OriginNetwork {
		t.Errorf("Expected network origin, got %s", ds.Seasons[0].Origin)
	}
}

func TestAnalyze_SeriesStayAligned(t *testing.T) {
	doc := gameLogHTML(model.ScorePair{Team: 99, Opponent: 92}, model.ScorePair{Team: 80, Opponent: 94})
	// postponed game and a truncated row
	doc = strings.Replace(doc, "</tbody>",
		`<tr><th>3</th><td>a</td><td>b</td><td></td><td></td><td></td><td>X</td><td></td><td></td><td>PPD</td><td></td><td>2</td></tr>`+
			`<tr><td>only</td><td>three</td><td>cells</td></tr></tbody>`, 1)

	cfg := testConfig(t, "http://unused.invalid")
	seedCache(t, cfg, "BOS", map[int]string{2010: doc})

	p, err := NewPipeline(cfg, Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	report, err := p.Analyze(context.Background(), "BOS", []int{2010})
	if err != nil {
		t.Fatal(err)
	}

	ds := report.Dataset
	if len(ds.TeamPoints) != 2 || len(ds.OpponentPoints) != 2 || len(ds.TotalPoints) != 2 {
		t.Fatalf("Expected aligned series of 2, got %d/%d/%d", len(ds.TeamPoints), len(ds.OpponentPoints), len(ds.TotalPoints))
	}
	for i := range ds.TeamPoints {
		if ds.TotalPoints[i] != ds.TeamPoints[i]+ds.OpponentPoints[i] {
			t.Errorf("game %d: total %d != %d + %d", i, ds.TotalPoints[i], ds.TeamPoints[i], ds.OpponentPoints[i])
		}
	}

	s := ds.Seasons[0]
	// header row + 2 games + PPD + truncated
	if s.Rows != 5 || s.Games != 2 || s.Skipped != 3 {
		t.Errorf("Unexpected row accounting: %+v", s)
	}
}

func TestAnalyze_NoGames(t *testing.T) {
	cfg := testConfig(t, "http://unused.invalid")
	p, err := NewPipeline(cfg, Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	report, err := p.Analyze(context.Background(), "SEA", []int{2010, 2011})
	if err != nil {
		t.Fatalf("Expected report despite missing documents, got %v", err)
	}

	if report.Dataset.Games() != 0 || len(report.Dataset.FailedSeasons()) != 2 {
		t.Errorf("Expected empty dataset with 2 failures, got %+v", report.Dataset)
	}
	if !strings.Contains(report.Dataset.Seasons[0].Error, ErrNotCached.Error()) {
		t.Errorf("Expected offline miss, got %q", report.Dataset.Seasons[0].Error)
	}
	if report.Regression != nil || !strings.Contains(report.RegressionError, stats.ErrTooFewPoints.Error()) {
		t.Errorf("Expected regression error, got %+v / %q", report.Regression, report.RegressionError)
	}
	if len(report.Errors) != 3 || len(report.Series) != 0 {
		t.Errorf("Expected 3 series errors, got %v", report.Errors)
	}
}

func TestAnalyze_InvalidInput(t *testing.T) {
	p, err := NewPipeline(testConfig(t, "http://unused.invalid"), Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Analyze(context.Background(), "../etc", []int{2010}); !errors.Is(err, model.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
	if _, err := p.Analyze(context.Background(), "LAL", nil); !errors.Is(err, ErrNoSeasons) {
		t.Errorf("Expected ErrNoSeasons, got %v", err)
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	p, err := NewPipeline(testConfig(t, "http://unused.invalid"), Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Analyze(ctx, "LAL", []int{2010}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeTeam_UsesConfiguredSeasons(t *testing.T) {
	cfg := testConfig(t, "http://unused.invalid")
	cfg.Seasons = model.SeasonsConfig{Start: 2018, End: 2020}
	seedCache(t, cfg, "GSW", map[int]string{2019: gameLogHTML(model.ScorePair{Team: 120, Opponent: 111})})

	p, err := NewPipeline(cfg, Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	report, err := p.AnalyzeTeam(context.Background(), "GSW")
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Dataset.Seasons) != 3 || report.FirstSeason != 2018 || report.LastSeason != 2020 {
		t.Errorf("Unexpected seasons: %+v", report.Dataset.Seasons)
	}
	if report.Dataset.Games() != 1 {
		t.Errorf("Expected 1 game, got %d", report.Dataset.Games())
	}
}

func TestWarmCache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = fmt.Fprint(w, gameLogHTML(model.ScorePair{Team: 100, Opponent: 90}))
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	seasons := []int{2010, 2011}

	p, err := NewPipeline(cfg, Options{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	outcomes, err := p.WarmCache(context.Background(), "mia", seasons)
	if err != nil {
		t.Fatal(err)
	}
	if requests.Load() != 2 || outcomes[0].Origin != model.OriginNetwork {
		t.Errorf("Expected 2 network fetches, got %d (%+v)", requests.Load(), outcomes)
	}

	// Cached documents are not fetched again
	outcomes, err = p.WarmCache(context.Background(), "MIA", seasons)
	if err != nil {
		t.Fatal(err)
	}
	if requests.Load() != 2 || outcomes[1].Origin != model.OriginCache {
		t.Errorf("Expected cache hits, got %d requests (%+v)", requests.Load(), outcomes)
	}

	refresh, err := NewPipeline(cfg, Options{Refresh: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := refresh.WarmCache(context.Background(), "MIA", seasons); err != nil {
		t.Fatal(err)
	}
	if requests.Load() != 4 {
		t.Errorf("Expected refresh to fetch again, got %d requests", requests.Load())
	}

	offline, err := NewPipeline(cfg, Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	report, err := offline.Analyze(context.Background(), "MIA", seasons)
	if err != nil {
		t.Fatal(err)
	}
	if report.Dataset.Games() != 2 {
		t.Errorf("Expected warmed cache to serve 2 games offline, got %d", report.Dataset.Games())
	}
}

func TestWarmCache_RecordsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p, err := NewPipeline(testConfig(t, server.URL), Options{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	outcomes, err := p.WarmCache(context.Background(), "LAL", []int{2010})
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || !strings.Contains(outcomes[0].Error, "503") {
		t.Errorf("Expected recorded 503, got %+v", outcomes)
	}
}

func TestAnalyze_Narrative(t *testing.T) {
	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models": []}`))
		case "/api/chat":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model":   "mistral",
				"message": map[string]string{"role": "assistant", "content": "Scoring rose with defence."},
				"done":    true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer llmServer.Close()

	cfg := testConfig(t, "http://unused.invalid")
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "mistral"
	cfg.LLM.BaseURL = llmServer.URL
	seedCache(t, cfg, "LAL", map[int]string{
		2010: gameLogHTML(model.ScorePair{Team: 100, Opponent: 90}, model.ScorePair{Team: 110, Opponent: 95}),
	})

	p, err := NewPipeline(cfg, Options{Offline: true, Narrate: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	report, err := p.Analyze(context.Background(), "LAL", []int{2010})
	if err != nil {
		t.Fatal(err)
	}

	if report.Narrative == nil || report.Narrative.Text != "Scoring rose with defence." || report.Narrative.Provider != "ollama" {
		t.Fatalf("Unexpected narrative: %+v", report.Narrative)
	}
	if !approx(report.Regression.Slope, 0.5) {
		t.Errorf("Narrative must not change the fit, got %+v", report.Regression)
	}

	// A failing provider leaves the numbers intact
	llmServer.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	report, err = p.Analyze(context.Background(), "LAL", []int{2010})
	if err != nil {
		t.Fatalf("Expected narrative failure to be non-fatal, got %v", err)
	}
	if report.Narrative != nil || report.Regression == nil {
		t.Errorf("Expected report without narrative, got %+v", report.Narrative)
	}
}

func TestNewPipeline_UnknownLLMProvider(t *testing.T) {
	cfg := testConfig(t, "http://unused.invalid")
	cfg.LLM.Provider = "gemini"

	if _, err := NewPipeline(cfg, Options{Narrate: true}, nil, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
	if _, err := NewPipeline(cfg, Options{}, nil, nil); err != nil {
		t.Errorf("Expected narration off to ignore provider, got %v", err)
	}
}

func TestAnalyze_GeneratedAt(t *testing.T) {
	p, err := NewPipeline(testConfig(t, "http://unused.invalid"), Options{Offline: true}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2020, 10, 11, 12, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	p.now = func() time.Time { return fixed }

	report, err := p.Analyze(context.Background(), "LAL", []int{2010})
	if err != nil {
		t.Fatal(err)
	}
	if !report.GeneratedAt.Equal(fixed) || report.GeneratedAt.Location() != time.UTC {
		t.Errorf("Expected UTC timestamp, got %v", report.GeneratedAt)
	}
}
