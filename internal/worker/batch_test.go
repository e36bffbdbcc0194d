package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/scorelog/internal/model"
)

// MockAnalyzer implements Analyzer
type MockAnalyzer struct {
	mu       sync.Mutex
	failFor  map[string]bool
	analyzed []string
	delay    time.Duration
}

func (m *MockAnalyzer) AnalyzeTeam(ctx context.Context, team string) (*model.TeamReport, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	m.analyzed = append(m.analyzed, team)
	m.mu.Unlock()

	if m.failFor[team] {
		return nil, errors.New("analysis error")
	}
	return &model.TeamReport{Team: team, Dataset: model.NewDataset(team)}, nil
}

func writeTeamsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teams.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessTeams(t *testing.T) {
	analyzer := &MockAnalyzer{delay: 5 * time.Millisecond}
	processor := NewBatchProcessor(analyzer, 3)

	teams := []string{"LAL", "CHI", "BOS", "MIA", "GSW"}
	results := processor.ProcessTeams(context.Background(), teams)

	if len(results) != len(teams) {
		t.Fatalf("expected %d results, got %d", len(teams), len(results))
	}
	for i, res := range results {
		if res.Team != teams[i] || res.Index != i {
			t.Errorf("result %d: expected %s, got %s (index %d)", i, teams[i], res.Team, res.Index)
		}
		if res.Error != nil || res.Report == nil || res.Report.Team != teams[i] {
			t.Errorf("unexpected result for %s: %+v", teams[i], res)
		}
	}
	if len(analyzer.analyzed) != len(teams) {
		t.Errorf("expected %d analyses, got %d", len(teams), len(analyzer.analyzed))
	}
}

func TestBatchProcessor_ProcessTeams_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{failFor: map[string]bool{"CHI": true}}, 2)

	results := processor.ProcessTeams(context.Background(), []string{"LAL", "CHI"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Error != nil {
		t.Errorf("unexpected error for LAL: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error for CHI, got nil")
	}
	if results[1].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessTeams_Empty(t *testing.T) {
	results := NewBatchProcessor(&MockAnalyzer{}, 2).ProcessTeams(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessTeams_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&MockAnalyzer{}, 2).ProcessTeams(ctx, []string{"LAL", "CHI", "BOS"})
	if len(results) != 3 {
		t.Fatalf("expected a result per team, got %d", len(results))
	}
	for _, res := range results {
		if !errors.Is(res.Error, context.Canceled) {
			t.Errorf("expected context.Canceled for %s, got %v", res.Team, res.Error)
		}
	}
}

func TestReadTeamsFromFile(t *testing.T) {
	path := writeTeamsFile(t, "LAL\n# Eastern conference\nchi  # Bulls\n   \nBOS   \nLAL\n")

	teams, err := ReadTeamsFromFile(path)
	if err != nil {
		t.Fatalf("ReadTeamsFromFile failed: %v", err)
	}

	if got := strings.Join(teams, ","); got != "LAL,CHI,BOS" {
		t.Errorf("expected LAL,CHI,BOS, got %s", got)
	}
}

func TestReadTeamsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadTeamsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestTeamResult_GetError(t *testing.T) {
	r1 := &TeamResult{Team: "LAL"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &TeamResult{Team: "LAL", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTeamsFile(t, "LAL\nCHI\n# comment\n\nBOS\n")

	results, err := NewBatchProcessor(&MockAnalyzer{}, 2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 || results[2].Team != "BOS" {
		t.Errorf("expected 3 ordered results, got %+v", results)
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	if _, err := NewBatchProcessor(&MockAnalyzer{}, 2).ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	path := writeTeamsFile(t, "")

	results, err := NewBatchProcessor(&MockAnalyzer{}, 2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}
