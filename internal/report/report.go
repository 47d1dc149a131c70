// Package report renders the terminal summaries printed at the end of a
// run: step outcomes, the indicator ranking and the strongest correlations.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/operations"
	"littleluxuries/internal/retail"
	"littleluxuries/internal/store"
)

// Summary is everything shown after an analysis run
type Summary struct {
	RunID    string
	Status   string
	Duration time.Duration
	Months   int
	Error    string

	Steps     []operations.StageExecution
	Rankings  []analysis.Ranking
	TopPairs  []analysis.Pair
	SweetSpot string

	// History holds the latest stored runs, newest first; BestHistory the
	// best indicator's results across stored runs, oldest first
	History     []store.AnalysisRun
	BestHistory []store.IndicatorResult

	// Label maps an economic column to its display name; nil keeps the column
	Label func(column string) string
}

// FromRun collects the summary of a finished run. top limits the
// correlation pairs shown.
func FromRun(state *operations.OperationState, manifest *operations.PipelineManifest, top int) Summary {
	s := Summary{
		RunID:    state.ID,
		Status:   string(state.GetStatus()),
		Duration: state.Duration(),
		Error:    manifest.Error,
		Steps:    manifest.Stages,
		Rankings: state.Artifacts.Rankings,
	}
	if state.Artifacts.Master != nil {
		s.Months = state.Artifacts.Master.Len()
	}
	if m := state.Artifacts.Correlations; m != nil {
		s.TopPairs = m.Top(top)
	}
	if spot, ok := retail.SweetSpot(state.Artifacts.PriceBins); ok {
		s.SweetSpot = spot.Label
	}
	return s
}

// HistorySource is the run history the summary can be enriched from
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]store.AnalysisRun, error)
	IndicatorHistory(ctx context.Context, indicator string) ([]store.IndicatorResult, error)
}

// AddHistory loads the latest limit runs and the trend of the run's best
// indicator
func (s *Summary) AddHistory(ctx context.Context, h HistorySource, limit int) error {
	runs, err := h.Recent(ctx, limit)
	if err != nil {
		return err
	}
	s.History = runs
	if len(s.Rankings) == 0 {
		return nil
	}
	results, err := h.IndicatorHistory(ctx, s.Rankings[0].Indicator)
	if err != nil {
		return err
	}
	s.BestHistory = results
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(BorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderCellStyle
			}
			return CellStyle
		}).
		Headers(headers...)
}

// Steps renders the step outcomes
func Steps(steps []operations.StageExecution) string {
	t := newTable("Step", "Status", "Duration", "Outputs", "Note")
	for _, s := range steps {
		note := s.Message
		if s.Error != "" {
			note = s.Error
		}
		t.Row(
			s.StageName,
			statusStyle(s.Status).Render(s.Status),
			s.Duration,
			fmt.Sprintf("%d", len(s.Outputs)),
			truncate(note, 60),
		)
	}
	return t.Render()
}

// Ranking renders the composite indicator ranking
func Ranking(rankings []analysis.Ranking) string {
	t := newTable("#", "Indicator", "Category", "R²", "Coef", "p-value", "Sig", "Tier")
	for _, r := range rankings {
		t.Row(
			fmt.Sprintf("%d", r.Overall),
			r.Indicator,
			r.Category,
			fmt.Sprintf("%.4f", r.RSquared),
			fmt.Sprintf("%.4f", r.Coefficient),
			formatP(r.PValue),
			r.Stars,
			r.Tier,
		)
	}
	return t.Render()
}

// Correlations renders indicator/economic pairs
func Correlations(pairs []analysis.Pair, label func(string) string) string {
	if label == nil {
		label = func(s string) string { return s }
	}
	t := newTable("Indicator", "Economic variable", "r", "p-value")
	for _, p := range pairs {
		t.Row(
			analysis.IndicatorName(p.Row),
			label(p.Col),
			fmt.Sprintf("%+.3f", p.R),
			formatP(p.PValue),
		)
	}
	return t.Render()
}

// History renders stored runs
func History(runs []store.AnalysisRun) string {
	t := newTable("Run", "Started", "Status", "Months", "Best indicator", "R²")
	for _, r := range runs {
		t.Row(
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04"),
			statusStyle(r.Status).Render(r.Status),
			fmt.Sprintf("%d", r.Months),
			r.BestName,
			fmt.Sprintf("%.4f", r.BestR2),
		)
	}
	return t.Render()
}

// Trend renders an indicator's R² across runs as "0.4100 → 0.3900"
func Trend(results []store.IndicatorResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%.4f", r.RSquared)
	}
	return strings.Join(parts, " → ")
}

// Render draws the full run summary
func Render(s Summary) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Little Luxuries analysis"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s   %s %d\n",
		LabelStyle.Render("run"), s.RunID,
		LabelStyle.Render("status"), statusStyle(s.Status).Render(s.Status),
		LabelStyle.Render("duration"), s.Duration.Round(time.Millisecond),
		LabelStyle.Render("months"), s.Months)
	if s.Error != "" {
		b.WriteString(ErrorStyle.Render(s.Error))
		b.WriteString("\n")
	}

	if len(s.Steps) > 0 {
		b.WriteString(SectionStyle.Render("Steps"))
		b.WriteString("\n")
		b.WriteString(Steps(s.Steps))
		b.WriteString("\n")
	}
	if len(s.Rankings) > 0 {
		b.WriteString(SectionStyle.Render("Indicator ranking"))
		b.WriteString("\n")
		b.WriteString(Ranking(s.Rankings))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("best indicator"), ScoreStyle.Render(s.Rankings[0].Indicator))
	}
	if len(s.TopPairs) > 0 {
		b.WriteString(SectionStyle.Render("Strongest correlations"))
		b.WriteString("\n")
		b.WriteString(Correlations(s.TopPairs, s.Label))
		b.WriteString("\n")
	}
	if s.SweetSpot != "" {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("little-luxury sweet spot"), ScoreStyle.Render(s.SweetSpot))
	}
	if len(s.History) > 0 {
		b.WriteString(SectionStyle.Render("Recent runs"))
		b.WriteString("\n")
		b.WriteString(History(s.History))
		b.WriteString("\n")
	}
	if len(s.BestHistory) > 1 && len(s.Rankings) > 0 {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(s.Rankings[0].Indicator+" R² trend"), Trend(s.BestHistory))
	}
	return b.String()
}

// Write prints the summary to w
func Write(w io.Writer, s Summary) error {
	_, err := io.WriteString(w, Render(s))
	return err
}

func formatP(p float64) string {
	if p < 0.0001 {
		return "<0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
