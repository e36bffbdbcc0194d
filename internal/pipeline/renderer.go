package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/scorelog/internal/model"
)

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeSeries bool // keep raw per-game series in JSON output
}

// NewRenderer creates a new renderer
func NewRenderer(includeSeries bool) *Renderer {
	return &Renderer{includeSeries: includeSeries}
}

// RenderJSON writes report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.TeamReport, path string) error {
	out := *report
	if !r.includeSeries && out.Dataset != nil {
		out.Dataset = out.Dataset.WithoutSeries()
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable report to path
func (r *Renderer) RenderMarkdown(report *model.TeamReport, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown formats report as Markdown
func (r *Renderer) Markdown(report *model.TeamReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s scoring, %d-%d\n\n", report.Team, report.FirstSeason, report.LastSeason)
	fmt.Fprintf(&b, "_Generated %s_\n\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Seasons\n\n")
	b.WriteString("| Season | Source | Rows | Games | Skipped | Error |\n")
	b.WriteString("|---|---|---:|---:|---:|---|\n")
	if report.Dataset != nil {
		for _, s := range report.Dataset.Seasons {
			fmt.Fprintf(&b, "| %d | %s | %d | %d | %d | %s |\n",
				s.Season, s.Origin, s.Rows, s.Games, s.Skipped, escapeCell(s.Error))
		}
	}
	b.WriteString("\n")

	b.WriteString("## Opponent points vs team points\n\n")
	if fit := report.Regression; fit != nil {
		fmt.Fprintf(&b, "- Slope: %.4f\n", fit.Slope)
		fmt.Fprintf(&b, "- Intercept: %.4f\n", fit.Intercept)
		fmt.Fprintf(&b, "- Pearson r: %.4f\n", fit.R)
		fmt.Fprintf(&b, "- Games: %d\n", fit.N)
	} else {
		fmt.Fprintf(&b, "No regression: %s\n", report.RegressionError)
	}
	b.WriteString("\n")

	if len(report.Series) > 0 {
		b.WriteString("## Distributions\n\n")
		b.WriteString("| Series | Games | Mean | Variance | Dispersion | TV distance to Poisson |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|\n")
		for _, s := range report.Series {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f | %.2f | %.3f |\n",
				s.Name, s.Distribution.N(), s.Distribution.Mean(), s.Distribution.Variance(),
				s.Poisson.DispersionIndex, s.Poisson.TotalVariation)
		}
		b.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		for _, e := range report.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	if n := report.Narrative; n != nil {
		fmt.Fprintf(&b, "## Narrative (%s %s)\n\n%s\n\n", n.Provider, n.Model, n.Text)
	}

	if len(report.SourceURLs) > 0 {
		b.WriteString("## Sources\n\n")
		for _, u := range report.SourceURLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	return b.String()
}

// RenderSummary prints a short terminal summary of report
func (r *Renderer) RenderSummary(w io.Writer, report *model.TeamReport) {
	games, failed := 0, 0
	if report.Dataset != nil {
		games = report.Dataset.Games()
		failed = len(report.Dataset.FailedSeasons())
	}

	_, _ = fmt.Fprintf(w, "\n%s %d-%d: %d games", report.Team, report.FirstSeason, report.LastSeason, games)
	if failed > 0 {
		_, _ = fmt.Fprintf(w, " (%d seasons unavailable)", failed)
	}
	_, _ = fmt.Fprintln(w)

	if fit := report.Regression; fit != nil {
		_, _ = fmt.Fprintf(w, "  opponent = %.3f + %.3f × team   (r = %.3f)\n", fit.Intercept, fit.Slope, fit.R)
	} else {
		_, _ = fmt.Fprintf(w, "  regression: %s\n", report.RegressionError)
	}

	for _, s := range report.Series {
		_, _ = fmt.Fprintf(w, "  %-8s mean %6.2f  variance %7.2f  dispersion %5.2f\n",
			s.Name, s.Distribution.Mean(), s.Distribution.Variance(), s.Poisson.DispersionIndex)
	}

	if report.Narrative != nil {
		_, _ = fmt.Fprintf(w, "\n%s\n", report.Narrative.Text)
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
