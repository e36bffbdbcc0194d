package pipeline

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ppiankov/scorelog/internal/cache"
	"github.com/ppiankov/scorelog/internal/metrics"
	"github.com/ppiankov/scorelog/internal/model"
	"github.com/ppiankov/scorelog/internal/util"
	"github.com/ppiankov/scorelog/internal/worker"
)

// fetchSleepFunc is the backoff sleep between retries (injectable for tests).
// A non-nil error ends the retry loop.
var fetchSleepFunc = sleepCtx

var (
	// ErrUnexpectedStatus marks a non-2xx response
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrDisallowed marks a URL excluded by the host's robots.txt
	ErrDisallowed = errors.New("disallowed by robots.txt")

	// ErrBodyTooLarge marks a response longer than the configured body limit
	ErrBodyTooLarge = errors.New("response body too large")
)

// FetchError reports a failed fetch of one game-log page
type FetchError struct {
	Key        model.FetchKey
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status: %d %s", e.Key, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetcherOptions configures a Fetcher. Zero values fall back to the defaults in model.DefaultConfig.
type FetcherOptions struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	MaxAttempts  int

	HTTPProxy  string
	HTTPSProxy string

	Delay   DelayStrategy    // nil means NoDelay
	Limiter *worker.Limiter  // shared per-host limiter, may be nil
	Robots  bool             // consult robots.txt before fetching
	Cache   cache.Cache      // receives every fetched document, may be nil
	Metrics *metrics.Metrics // may be nil
	Logger  *slog.Logger     // may be nil
}

// Fetcher downloads game-log pages and writes them to the cache
type Fetcher struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxBytes    int64
	maxAttempts int
	delay       DelayStrategy
	limiter     *worker.Limiter
	robots      *util.RobotsChecker
	cache       cache.Cache
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewFetcher creates a new Fetcher with the given options
func NewFetcher(opts FetcherOptions) *Fetcher {
	defaults := model.DefaultConfig().HTTP
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Delay == nil {
		opts.Delay = NoDelay{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient:  client,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		userAgent:   opts.UserAgent,
		maxBytes:    opts.MaxBodyBytes,
		maxAttempts: opts.MaxAttempts,
		delay:       opts.Delay,
		limiter:     opts.Limiter,
		cache:       opts.Cache,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if opts.Robots {
		f.robots = util.NewRobotsChecker(opts.UserAgent, client)
	}

	return f
}

// URLFor returns the game-log page URL for key
func (f *Fetcher) URLFor(key model.FetchKey) string {
	return fmt.Sprintf("%s/teams/%s/%d_games.html", f.baseURL, key.Team, key.Season)
}

// Fetch downloads the page for key once, without retrying. Before the request
// it pauses per the delay strategy (or the robots.txt crawl delay, if longer)
// and waits for the shared rate limiter. The body is stored in the cache
// verbatim before it is returned.
func (f *Fetcher) Fetch(ctx context.Context, key model.FetchKey) ([]byte, error) {
	rawURL := f.URLFor(key)
	fail := func(status int, err error) error {
		return &FetchError{Key: key, URL: rawURL, StatusCode: status, Err: err}
	}

	if err := key.Validate(); err != nil {
		return nil, fail(0, err)
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		decision, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, fail(0, err)
		}
		if !decision.Allowed {
			f.metrics.ObserveFetch(metrics.FetchDisallowed, 0)
			return nil, fail(0, ErrDisallowed)
		}
		crawlDelay = decision.CrawlDelay
	}

	pause := max(f.delay.Next(), crawlDelay)
	if pause > 0 {
		f.logger.Debug("pausing before fetch", "key", key.String(), "delay", pause)
	}
	if err := sleepCtx(ctx, pause); err != nil {
		return nil, fail(0, err)
	}
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fail(0, err)
	}

	start := time.Now()
	body, status, err := f.get(ctx, rawURL)
	elapsed := time.Since(start)
	if err != nil {
		result := metrics.FetchNetworkError
		if status != 0 {
			result = metrics.FetchHTTPError
		}
		f.metrics.ObserveFetch(result, elapsed)
		return nil, fail(status, err)
	}
	f.metrics.ObserveFetch(metrics.FetchOK, elapsed)
	f.logger.Info("downloaded game log", "key", key.String(), "url", rawURL, "bytes", len(body), "elapsed", elapsed)

	if f.cache != nil {
		if err := f.cache.Put(key, body); err != nil {
			f.logger.Warn("failed to cache game log", "key", key.String(), "error", err)
		}
	}

	return body, nil
}

// FetchWithRetry calls Fetch up to the configured number of attempts,
// backing off exponentially after retryable failures (429, 5xx, network errors)
func (f *Fetcher) FetchWithRetry(ctx context.Context, key model.FetchKey) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		body, err := f.Fetch(ctx, key)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt == f.maxAttempts || !isRetryableFetchError(err) {
			break
		}

		backoff := time.Duration(1<<(attempt-1)) * time.Second
		f.logger.Warn("retrying fetch", "key", key.String(), "attempt", attempt, "backoff", backoff, "error", err)
		if err := fetchSleepFunc(ctx, backoff); err != nil {
			return nil, &FetchError{Key: key, URL: f.URLFor(key), Err: err}
		}
	}

	return nil, lastErr
}

// get performs the GET and returns the decoded body. The status is set when a response arrived.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	reader, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = reader.Close() }()

	// One byte past the limit tells a truncated page from one that fits exactly
	body, err := io.ReadAll(io.LimitReader(reader, f.maxBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, 0, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.maxBytes)
	}

	return body, resp.StatusCode, nil
}

// decodeBody wraps body according to its Content-Encoding
func decodeBody(encoding string, body io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return io.NopCloser(body), nil
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return r, nil
	case "deflate":
		return flate.NewReader(body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding: %s", encoding)
	}
}

// isRetryableFetchError reports whether another attempt could succeed
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrDisallowed) || errors.Is(err, ErrBodyTooLarge) || errors.Is(err, model.ErrInvalidKey) {
		return false
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
		return fetchErr.StatusCode == http.StatusTooManyRequests || fetchErr.StatusCode >= 500
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
