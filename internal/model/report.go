package model

import "time"

// TeamReport is the complete numeric analysis of one team over a season range.
// It is the boundary handed to renderers and plotting tools.
type TeamReport struct {
	Team        string    `json:"team"`         // Franchise code
	FirstSeason int       `json:"first_season"` // Inclusive
	LastSeason  int       `json:"last_season"`  // Inclusive
	GeneratedAt time.Time `json:"generated_at"`
	SourceURLs  []string  `json:"source_urls"` // Game-log pages the dataset was built from

	Dataset *Dataset `json:"dataset"`

	Regression      *RegressionResult `json:"regression,omitempty"`       // Team score (x) vs opponent score (y)
	RegressionError string            `json:"regression_error,omitempty"` // Why no regression could be computed

	Series []SeriesSummary `json:"series,omitempty"` // team, opponent and total points
	Errors []string        `json:"errors,omitempty"` // Statistics failures for individual series

	Narrative *Narrative `json:"narrative,omitempty"` // Optional LLM description, never feeds back into numbers
}

// SeriesByName returns the summary for the named series
func (r *TeamReport) SeriesByName(name string) (SeriesSummary, bool) {
	for _, s := range r.Series {
		if s.Name == name {
			return s, true
		}
	}
	return SeriesSummary{}, false
}

// Series names used in TeamReport.Series
const (
	SeriesTeam     = "team"
	SeriesOpponent = "opponent"
	SeriesTotal    = "total"
)

// Narrative contains an optional LLM-written description of a report
type Narrative struct {
	Provider   string   `json:"provider,omitempty"` // openai, ollama
	Model      string   `json:"model,omitempty"`
	Text       string   `json:"text"`
	CitedURLs  []string `json:"cited_urls,omitempty"`
	TokensUsed int      `json:"tokens_used,omitempty"`
}
