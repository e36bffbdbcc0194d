package model

import "time"

// Config holds all scorelog settings. Field tags serve viper (mapstructure) and config files (yaml).
type Config struct {
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	Delay        DelayConfig        `mapstructure:"delay" yaml:"delay"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Seasons      SeasonsConfig      `mapstructure:"seasons" yaml:"seasons"`
	Extract      ExtractConfig      `mapstructure:"extract" yaml:"extract"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	LLM          LLMConfig          `mapstructure:"llm" yaml:"llm"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

// HTTPConfig controls how game-log pages are requested
type HTTPConfig struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"` // Scheme and host; path is /teams/<TEAM>/<SEASON>_games.html
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"` // 1 disables retries
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	HTTPProxy     string        `mapstructure:"http_proxy" yaml:"http_proxy"`
	HTTPSProxy    string        `mapstructure:"https_proxy" yaml:"https_proxy"`
}

// DelayConfig bounds the random pause taken before every network fetch
type DelayConfig struct {
	Min time.Duration `mapstructure:"min" yaml:"min"`
	Max time.Duration `mapstructure:"max" yaml:"max"` // Exclusive
}

// RateLimitingConfig configures the shared per-host limiter (0 disables it)
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// CacheConfig configures the raw document cache
type CacheConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Memory bool   `mapstructure:"memory" yaml:"memory"` // Keep documents in memory for the run as well
}

// SeasonsConfig is the default inclusive season range
type SeasonsConfig struct {
	Start int `mapstructure:"start" yaml:"start"`
	End   int `mapstructure:"end" yaml:"end"`
}

// ExtractConfig tunes row extraction
type ExtractConfig struct {
	IncludeCommented bool `mapstructure:"include_commented" yaml:"include_commented"` // Parse tables hidden in HTML comments
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LLMConfig configures the optional narrative
type LLMConfig struct {
	Provider      string `mapstructure:"provider" yaml:"provider"` // "", openai, ollama
	Model         string `mapstructure:"model" yaml:"model"`
	APIKey        string `mapstructure:"api_key" yaml:"-"`
	BaseURL       string `mapstructure:"base_url" yaml:"base_url"`
	Timeout       int    `mapstructure:"timeout" yaml:"timeout"` // seconds
	MaxTokens     int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	StrictSources bool   `mapstructure:"strict_sources" yaml:"strict_sources"`
}

// OutputConfig configures reports
type OutputConfig struct {
	Dir           string `mapstructure:"dir" yaml:"dir"`
	Verbose       bool   `mapstructure:"verbose" yaml:"verbose"`
	IncludeSeries bool   `mapstructure:"include_series" yaml:"include_series"` // Write raw per-game series into JSON
	MetricsFile   string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultUserAgent is a browser-like identifier; the source rejects requests without one
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			BaseURL:       "https://www.basketball-reference.com",
			UserAgent:     DefaultUserAgent,
			Timeout:       30 * time.Second,
			MaxBodyBytes:  10_000_000,
			MaxAttempts:   1,
			RespectRobots: true,
		},
		Delay: DelayConfig{
			Min: 0,
			Max: 5 * time.Second,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0.3,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Dir:    "gamelogs",
			Memory: true,
		},
		Seasons: SeasonsConfig{
			Start: 2010,
			End:   2020,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
		LLM: LLMConfig{
			Timeout:       30,
			MaxTokens:     600,
			StrictSources: true,
		},
		Output: OutputConfig{
			Dir:           "scorelog-reports",
			IncludeSeries: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SeasonRange expands an inclusive range into ascending season years
func SeasonRange(start, end int) []int {
	if end < start {
		return nil
	}
	seasons := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		seasons = append(seasons, y)
	}
	return seasons
}
