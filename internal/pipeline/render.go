package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/parcelscore/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer writes results as JSON files or human-readable summaries
type Renderer struct {
	pretty bool
}

// NewRenderer creates a renderer. pretty indents JSON output.
func NewRenderer(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// WriteJSON encodes v to w
func (r *Renderer) WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// RenderJSON writes v to path, creating parent directories
func (r *Renderer) RenderJSON(v interface{}, path string) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
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

// RenderSummary prints a short report of one aggregation
func (r *Renderer) RenderSummary(w io.Writer, req model.AggregationRequest, resp *model.AggregationResponse) {
	ps := resp.PropertyScore

	fmt.Fprintf(w, "\n%s\n", rule)
	if req.Address != "" {
		fmt.Fprintf(w, "  %s\n", req.Address)
	}
	fmt.Fprintf(w, "  Location: %.5f, %.5f\n", req.Lat, req.Lng)
	fmt.Fprintf(w, "%s\n\n", rule)
	fmt.Fprintf(w, "  Score: %d/100 (%s)\n", ps.Score, ps.Grade)
	fmt.Fprintf(w, "  %s\n\n", ps.Summary)

	for _, f := range ps.Factors {
		fmt.Fprintf(w, "  %+6.1f  %-16s %s\n", f.Impact, f.Name, f.Reason)
	}
	if len(ps.Factors) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  Data:   %s\n", joinKeys(resp.Data))
	if len(resp.Errors) > 0 {
		categories := make([]string, 0, len(resp.Errors))
		for c := range resp.Errors {
			categories = append(categories, string(c))
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Fprintf(w, "  ✗ %s: %s\n", c, resp.Errors[model.Category(c)])
		}
	}

	if resp.Narrative != nil {
		fmt.Fprintf(w, "\n  Narrative (%s/%s):\n  %s\n", resp.Narrative.Provider, resp.Narrative.Model, resp.Narrative.Text)
	}
	fmt.Fprintln(w)
}

// RenderRanking prints ranked match scores as a table
func (r *Renderer) RenderRanking(w io.Writer, scores []model.PropertyScore) {
	fmt.Fprintf(w, "%-5s %-24s %5s\n", "RANK", "PROPERTY", "SCORE")
	for _, s := range scores {
		fmt.Fprintf(w, "%-5d %-24s %5d\n", s.Rank, truncate(s.PropertyID, 24), s.TotalScore)
	}
}

// RenderBreakdown prints the per-factor breakdown of one match score
func (r *Renderer) RenderBreakdown(w io.Writer, s model.PropertyScore) {
	fmt.Fprintf(w, "%s: %d/100\n\n", s.PropertyID, s.TotalScore)
	fmt.Fprintf(w, "%-16s %12s %6s %6s %8s\n", "FACTOR", "RAW", "SCORE", "WEIGHT", "WEIGHTED")
	for _, f := range s.FactorScores {
		raw := "-"
		if f.RawValue != nil {
			raw = fmt.Sprint(f.RawValue)
		}
		if f.UsedDefault {
			raw += "*"
		}
		fmt.Fprintf(w, "%-16s %12s %6.1f %6.2f %8.2f\n", f.FactorID, truncate(raw, 12), f.NormalizedScore, f.Weight, f.WeightedScore)
	}
}

func joinKeys(data map[model.Category]model.Record) string {
	if len(data) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(data))
	for c := range data {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
