package extract

import (
	"strconv"
	"strings"

	"github.com/ppiankov/scorelog/internal/model"
)

// Column layout of a schedule row: date, start time, network, box score link,
// home/away marker, opponent, W/L, overtime, team points, opponent points,
// wins, losses, streak, notes.
const (
	teamPointsCell     = 8
	opponentPointsCell = 9
	minGameCells       = 11 // anything shorter is a different kind of row
)

// ParseScorePair reads the final score of a game row. It reports false for
// rows that are structurally incomplete or whose score cells are not
// non-negative integers (postponed or forfeited games show placeholders).
func ParseScorePair(row model.GameRow) (model.ScorePair, bool) {
	if row.Len() < minGameCells {
		return model.ScorePair{}, false
	}

	teamText, _ := row.Cell(teamPointsCell)
	team, ok := parsePoints(teamText)
	if !ok {
		return model.ScorePair{}, false
	}

	oppText, _ := row.Cell(opponentPointsCell)
	opp, ok := parsePoints(oppText)
	if !ok {
		return model.ScorePair{}, false
	}

	return model.ScorePair{Team: team, Opponent: opp}, true
}

// parsePoints parses a base-10 point total
func parsePoints(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
