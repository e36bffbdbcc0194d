package model

import (
	"errors"
	"fmt"
	"slices"
)

// FetchKey identifies one game-log document: a team's schedule for one season
type FetchKey struct {
	Team   string `json:"team"`   // Franchise code as used in the source URL (e.g., "LAL")
	Season int    `json:"season"` // Season year (e.g., 2020 for the 2019-20 season)
}

// ErrInvalidKey is returned by FetchKey.Validate
var ErrInvalidKey = errors.New("invalid fetch key")

// Validate checks that the key is safe to use in a URL path and as a cache path
func (k FetchKey) Validate() error {
	if k.Team == "" {
		return fmt.Errorf("%w: empty team code", ErrInvalidKey)
	}
	for _, r := range k.Team {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: team code %q must be alphanumeric", ErrInvalidKey, k.Team)
		}
	}
	if k.Season < 1 {
		return fmt.Errorf("%w: season %d", ErrInvalidKey, k.Season)
	}
	return nil
}

// String returns TEAM/SEASON
func (k FetchKey) String() string {
	return fmt.Sprintf("%s/%d", k.Team, k.Season)
}

// GameRow is the ordered cell text of one table row
type GameRow struct {
	cells []string
}

// NewGameRow copies cells into a GameRow
func NewGameRow(cells ...string) GameRow {
	return GameRow{cells: slices.Clone(cells)}
}

// Len returns the number of cells
func (r GameRow) Len() int {
	return len(r.cells)
}

// Cell returns the text of cell i
func (r GameRow) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r.cells) {
		return "", false
	}
	return r.cells[i], true
}

// Cells returns a copy of all cell texts
func (r GameRow) Cells() []string {
	return slices.Clone(r.cells)
}

// ScorePair holds the final score of one game from the team's point of view
type ScorePair struct {
	Team     int `json:"team"`
	Opponent int `json:"opponent"`
}

// Total returns the combined points scored in the game
func (p ScorePair) Total() int {
	return p.Team + p.Opponent
}

// Origin records where a season's document came from
type Origin string

const (
	OriginCache   Origin = "cache"
	OriginNetwork Origin = "network"
	OriginNone    Origin = "none" // Document could not be obtained
)

// SeasonOutcome describes what one season contributed to a Dataset
type SeasonOutcome struct {
	Season  int    `json:"season"`
	URL     string `json:"url"`
	Origin  Origin `json:"origin"`
	Rows    int    `json:"rows"`            // Untagged rows found in the document
	Games   int    `json:"games"`           // Rows accepted as score pairs
	Skipped int    `json:"skipped"`         // Rows rejected by the score parser
	Error   string `json:"error,omitempty"` // Fetch or parse failure, season contributes nothing
}

// Dataset is the per-game observation series for one team across seasons.
// TeamPoints[i], OpponentPoints[i] and TotalPoints[i] always describe the same game.
type Dataset struct {
	Team           string          `json:"team"`
	Seasons        []SeasonOutcome `json:"seasons"`
	TeamPoints     []int           `json:"team_points,omitempty"`
	OpponentPoints []int           `json:"opponent_points,omitempty"`
	TotalPoints    []int           `json:"total_points,omitempty"`
}

// NewDataset creates an empty dataset for team
func NewDataset(team string) *Dataset {
	return &Dataset{
		Team:           team,
		Seasons:        []SeasonOutcome{},
		TeamPoints:     []int{},
		OpponentPoints: []int{},
		TotalPoints:    []int{},
	}
}

// Append adds one game to all series
func (d *Dataset) Append(p ScorePair) {
	d.TeamPoints = append(d.TeamPoints, p.Team)
	d.OpponentPoints = append(d.OpponentPoints, p.Opponent)
	d.TotalPoints = append(d.TotalPoints, p.Total())
}

// Games returns the number of games in the dataset
func (d *Dataset) Games() int {
	return len(d.TeamPoints)
}

// WithoutSeries returns a copy holding only the season outcomes
func (d *Dataset) WithoutSeries() *Dataset {
	return &Dataset{
		Team:    d.Team,
		Seasons: slices.Clone(d.Seasons),
	}
}

// FailedSeasons returns the seasons whose document could not be used
func (d *Dataset) FailedSeasons() []SeasonOutcome {
	var failed []SeasonOutcome
	for _, s := range d.Seasons {
		if s.Error != "" {
			failed = append(failed, s)
		}
	}
	return failed
}
