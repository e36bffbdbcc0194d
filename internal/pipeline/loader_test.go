package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/scorelog/internal/cache"
	"github.com/ppiankov/scorelog/internal/extract"
	"github.com/ppiankov/scorelog/internal/model"
)

func TestLoader_PrefersCache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = fmt.Fprint(w, "fresh")
	}))
	defer server.Close()

	store := cache.NewMemoryCache()
	if err := store.Put(testKey, []byte("cached")); err != nil {
		t.Fatal(err)
	}
	fetcher := NewFetcher(FetcherOptions{BaseURL: server.URL, Cache: store})

	doc, origin, err := NewLoader(store, fetcher, false, false, nil, nil).Load(context.Background(), testKey)
	if err != nil || string(doc) != "cached" || origin != model.OriginCache {
		t.Errorf("Expected cache hit, got %q %s %v", doc, origin, err)
	}
	if requests.Load() != 0 {
		t.Errorf("Expected no requests, got %d", requests.Load())
	}

	doc, origin, err = NewLoader(store, fetcher, false, true, nil, nil).Load(context.Background(), testKey)
	if err != nil || string(doc) != "fresh" || origin != model.OriginNetwork {
		t.Errorf("Expected refreshed document, got %q %s %v", doc, origin, err)
	}
	if cached, _ := store.Get(testKey); string(cached) != "fresh" {
		t.Errorf("Expected refresh to overwrite cache, got %q", cached)
	}
}

func TestLoader_MissFetches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "downloaded")
	}))
	defer server.Close()

	store := cache.NewDiskCache(t.TempDir())
	loader := NewLoader(store, NewFetcher(FetcherOptions{BaseURL: server.URL, Cache: store}), false, false, nil, nil)

	doc, origin, err := loader.Load(context.Background(), testKey)
	if err != nil || string(doc) != "downloaded" || origin != model.OriginNetwork {
		t.Fatalf("Expected network document, got %q %s %v", doc, origin, err)
	}

	// Second load comes from the cache the fetcher wrote
	if _, origin, _ := loader.Load(context.Background(), testKey); origin != model.OriginCache {
		t.Errorf("Expected cache origin on second load, got %s", origin)
	}
}

func TestLoader_Offline(t *testing.T) {
	store := cache.NewMemoryCache()
	loader := NewLoader(store, nil, true, true, nil, nil)

	_, origin, err := loader.Load(context.Background(), testKey)
	if !errors.Is(err, ErrNotCached) || origin != model.OriginNone {
		t.Errorf("Expected ErrNotCached, got %s %v", origin, err)
	}
	if loader.URLFor(testKey) != "" {
		t.Error("Expected no URL without a fetcher")
	}

	// Offline wins over refresh
	_ = store.Put(testKey, []byte("cached"))
	if doc, _, err := loader.Load(context.Background(), testKey); err != nil || string(doc) != "cached" {
		t.Errorf("Expected cached document offline, got %q %v", doc, err)
	}
}

func TestLoader_InvalidKey(t *testing.T) {
	loader := NewLoader(cache.NewMemoryCache(), nil, true, false, nil, nil)
	if _, _, err := loader.Load(context.Background(), model.FetchKey{Team: "a/b", Season: 2010}); !errors.Is(err, model.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}

func TestAggregator_SeasonOrderAndCommentedTables(t *testing.T) {
	store := cache.NewMemoryCache()
	playoffs := `<!--<table><tr><th>1</th><td></td><td></td><td></td><td></td><td></td><td></td><td></td><td></td><td>87</td><td>79</td><td></td></tr></table>-->`
	_ = store.Put(model.FetchKey{Team: "LAL", Season: 2011}, []byte(gameLogHTML(model.ScorePair{Team: 1, Opponent: 2})+playoffs))
	_ = store.Put(model.FetchKey{Team: "LAL", Season: 2010}, []byte(gameLogHTML(model.ScorePair{Team: 3, Opponent: 4})))

	loader := NewLoader(store, nil, true, false, nil, nil)

	ds, err := NewAggregator(loader, nil, nil, nil).BuildSeries(context.Background(), "LAL", []int{2011, 2010})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ds.TeamPoints) != "[1 3]" {
		t.Errorf("Expected season order preserved, got %v", ds.TeamPoints)
	}
	if ds.Seasons[0].Season != 2011 || ds.Seasons[1].Season != 2010 {
		t.Errorf("Unexpected outcome order: %+v", ds.Seasons)
	}

	ds, err = NewAggregator(loader, extract.NewRowExtractor(true), nil, nil).BuildSeries(context.Background(), "LAL", []int{2011})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(ds.TeamPoints) != "[1 87]" {
		t.Errorf("Expected commented playoff game included, got %v", ds.TeamPoints)
	}
}
