package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/promessa/internal/coherence"
	"github.com/ppiankov/promessa/internal/model"
)

// Renderer writes reports as JSON and prints short summaries
type Renderer struct {
	pretty bool
}

// NewRenderer creates a renderer. pretty indents JSON output.
func NewRenderer(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// WriteJSON encodes v to w
func (r *Renderer) WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// RenderJSON writes v to path, or to stdout when path is "" or "-"
func (r *Renderer) RenderJSON(v any, path string) (err error) {
	if path == "" || path == "-" {
		return r.WriteJSON(os.Stdout, v)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return r.WriteJSON(f, v)
}

// RenderSummary prints a one-screen account of report to w
func (r *Renderer) RenderSummary(w io.Writer, report *model.AnalysisReport) {
	v := report.Viability

	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	if report.Author != "" {
		fmt.Fprintf(w, "  Promise analysis: %s\n", report.Author)
	} else {
		fmt.Fprintln(w, "  Promise analysis")
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	if report.SourceURL != "" {
		fmt.Fprintf(w, "  Source:      %s (%s)\n", report.SourceURL, report.SourceTier)
	}
	path := report.Extraction.Path
	if report.Extraction.Provider != "" {
		path += " (" + report.Extraction.Provider + ")"
	}
	fmt.Fprintf(w, "  Claims:      %d via %s\n", len(report.Claims), path)
	fmt.Fprintf(w, "  Viability:   %.2f  risk %s  confidence %.2f\n", v.Score, v.RiskLevel, v.Confidence)
	fmt.Fprintf(w, "  Factors:     specificity %.2f  history %.2f  budget %.2f  timeline %.2f  author %.2f\n",
		v.Factors.Specificity, v.Factors.HistoricalCompliance, v.Factors.BudgetaryFeasibility,
		v.Factors.TimelineFeasibility, v.Factors.AuthorTrack)

	if report.Coherence != nil {
		fmt.Fprintf(w, "  Coherence:   %.0f/100 over %d votes\n", report.Coherence.CoherenceScore, report.Coherence.VotesAnalyzed)
	}
	fmt.Fprintln(w)

	for i, c := range report.Claims {
		if i == 5 {
			fmt.Fprintf(w, "  … %d more\n", len(report.Claims)-i)
			break
		}
		flags := ""
		if c.Negated {
			flags += " [negated]"
		}
		if c.Conditional {
			flags += " [conditional]"
		}
		fmt.Fprintf(w, "  • %-14s %s%s\n", c.Category, truncate(c.Text, 80), flags)
	}

	for _, t := range report.Trajectories {
		fmt.Fprintf(w, "  ↗ %-14s %s\n", t.Category, coherence.Describe(t))
	}
	for _, c := range report.TrajectoryChecks {
		if c.IsContradictory {
			fmt.Fprintf(w, "  ! %-14s %s\n", c.Severity, c.Reason)
		}
	}
	if report.Coherence != nil {
		for _, c := range report.Coherence.Contradictions {
			fmt.Fprintf(w, "  ! %-14s %s\n", c.Severity, truncate(c.Explanation, 100))
		}
	}
	for _, n := range report.Notes {
		fmt.Fprintf(w, "  ⚠ %s\n", n)
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n-1]) + "…"
}
