package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ppiankov/scorelog/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Narrate describes a finished report in prose, citing only allowed sources
	Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// NarrateRequest contains the input for a report narrative
type NarrateRequest struct {
	// Report is the computed analysis; the narrative never changes its numbers
	Report model.TeamReport

	// SourceURLs is the allowlist of URLs the LLM may cite
	SourceURLs []string

	// Prompt overrides BuildPrompt when set
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// NarrateResponse contains the LLM output
type NarrateResponse struct {
	Text       string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	Provider      string // "openai", "ollama", "" (disabled)
	Model         string
	APIKey        string
	BaseURL       string
	Timeout       int // seconds
	StrictSources bool
	MaxTokens     int

	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:       30,
		StrictSources: true,
		MaxTokens:     600,
	}
}

// ErrCitationLeak is returned when strict sources are enforced and the response cites an unknown URL
var ErrCitationLeak = errors.New("LLM cited a URL outside the source list")

const systemPrompt = "You describe basketball scoring statistics. You only restate numbers you are given and never invent games, players or sources."

// BuildPrompt constructs the default narrative prompt for a report
func BuildPrompt(report model.TeamReport, sourceURLs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Write a short description of how %s scored and conceded between the %d and %d seasons.

RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. Use only the numbers below. Do not speculate about causes.
3. If a statistic is missing, say so.

Data:
- Games: %d
- Seasons without data: %d
`, report.Team, report.FirstSeason, report.LastSeason, joinURLs(sourceURLs), gamesIn(report), len(failedSeasons(report)))

	if r := report.Regression; r != nil {
		fmt.Fprintf(&b, "- Opponent points vs team points: slope %.3f, intercept %.2f, correlation %.3f over %d games\n",
			r.Slope, r.Intercept, r.R, r.N)
	} else if report.RegressionError != "" {
		fmt.Fprintf(&b, "- No regression: %s\n", report.RegressionError)
	}

	for _, s := range report.Series {
		fmt.Fprintf(&b, "- %s points: mean %.2f, variance %.2f, dispersion vs Poisson %.2f\n",
			s.Name, s.Distribution.Mean(), s.Distribution.Variance(), s.Poisson.DispersionIndex)
	}

	b.WriteString("\nProvide a 3-4 sentence description.")

	return b.String()
}

func gamesIn(report model.TeamReport) int {
	if report.Dataset == nil {
		return 0
	}
	return report.Dataset.Games()
}

func failedSeasons(report model.TeamReport) []model.SeasonOutcome {
	if report.Dataset == nil {
		return nil
	}
	return report.Dataset.FailedSeasons()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No source URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)]+`)

// extractURLs returns the distinct URLs mentioned in text
func extractURLs(text string) []string {
	var unique []string
	for _, url := range urlPattern.FindAllString(text, -1) {
		url = strings.TrimRight(url, ".,;:!?")
		if !slices.Contains(unique, url) {
			unique = append(unique, url)
		}
	}
	return unique
}

// checkCitations extracts cited URLs and, when strict, rejects any outside allowed
func checkCitations(text string, allowed []string, strict bool) ([]string, error) {
	cited := extractURLs(text)
	if strict {
		for _, url := range cited {
			if !slices.Contains(allowed, url) {
				return nil, fmt.Errorf("%w: %s", ErrCitationLeak, url)
			}
		}
	}
	return cited, nil
}
