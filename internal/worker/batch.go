package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ppiankov/scorelog/internal/model"
)

// Analyzer produces the report for one team
type Analyzer interface {
	AnalyzeTeam(ctx context.Context, team string) (*model.TeamReport, error)
}

// TeamJob analyzes a single team
type TeamJob struct {
	Index    int // Position in the submitted team list
	Team     string
	Analyzer Analyzer
}

// Execute runs the analysis
func (j *TeamJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.AnalyzeTeam(ctx, j.Team)
	if err != nil {
		return &TeamResult{Index: j.Index, Team: j.Team, Error: err}
	}
	return &TeamResult{Index: j.Index, Team: j.Team, Report: report}
}

// TeamResult is the outcome of one TeamJob
type TeamResult struct {
	Index  int
	Team   string
	Report *model.TeamReport
	Error  error
}

// GetError returns the analysis error
func (r *TeamResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes several teams concurrently. Throttling against the
// source host is the analyzer's concern; all workers share its limiter.
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessTeams analyzes teams and returns one result per team, in input order.
// Teams that never ran because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessTeams(ctx context.Context, teams []string) []*TeamResult {
	if len(teams) == 0 {
		return []*TeamResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, team := range teams {
		if !pool.Submit(&TeamJob{Index: i, Team: team, Analyzer: b.analyzer}) {
			break
		}
	}

	ordered := make([]*TeamResult, len(teams))
	for _, result := range pool.Wait() {
		r := result.(*TeamResult)
		ordered[r.Index] = r
	}

	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &TeamResult{Index: i, Team: teams[i], Error: fmt.Errorf("not analyzed: %w", err)}
		}
	}

	return ordered
}

// ProcessFile reads team codes from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*TeamResult, error) {
	teams, err := ReadTeamsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read teams: %w", err)
	}

	return b.ProcessTeams(ctx, teams), nil
}

// ReadTeamsFromFile reads team codes (one per line, # starts a comment),
// upper-cased and deduplicated in first-seen order
func ReadTeamsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var teams []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		team := strings.ToUpper(strings.TrimSpace(line))
		if team == "" || slices.Contains(teams, team) {
			continue
		}
		teams = append(teams, team)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return teams, nil
}
