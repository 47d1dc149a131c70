package exporter

import (
	"fmt"
	"math"
	"strconv"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/config"
	"littleluxuries/internal/dataset"
	"littleluxuries/internal/stats"
)

// Data_Type values tagging the dashboard datasets
const (
	DataTypeSearch   = "Search Behavior"
	DataTypePurchase = "Purchase Behavior"
	DataTypePrice    = "Price Analysis"
)

// TableauExporter writes the dashboard datasets into the Tableau directory
type TableauExporter struct {
	csvWriter *CSVWriter
	target    string
}

// NewTableauExporter creates a dashboard exporter; target is the
// confidence column every dataset is keyed on
func NewTableauExporter(w *CSVWriter, target string) *TableauExporter {
	return &TableauExporter{csvWriter: w, target: target}
}

func tableauPath(name string) string {
	return TableauPrefix + name
}

// Summary holds the dashboard KPIs
type Summary struct {
	TotalIndicators       int
	SignificantIndicators int
	AvgRSquared           float64
	MaxRSquared           float64
	BestIndicator         string
	TotalMonths           int
	DateRangeStart        string
	DateRangeEnd          string
	AvgTarget             float64
	MinTarget             float64
	MaxTarget             float64
}

// GenerateSummary computes the KPIs from the search results and the
// master frame
func (t *TableauExporter) GenerateSummary(frame *dataset.Frame, results []analysis.SearchResult) Summary {
	s := Summary{
		TotalIndicators:       len(results),
		SignificantIndicators: analysis.CountSignificant(results),
		AvgRSquared:           math.NaN(),
		MaxRSquared:           math.NaN(),
		TotalMonths:           frame.Len(),
		AvgTarget:             math.NaN(),
		MinTarget:             math.NaN(),
		MaxTarget:             math.NaN(),
	}

	if len(results) > 0 {
		r2 := make([]float64, len(results))
		best := 0
		for i, r := range results {
			r2[i] = r.RSquared
			if r.RSquared > results[best].RSquared {
				best = i
			}
		}
		s.AvgRSquared = stats.Mean(r2)
		s.MaxRSquared = results[best].RSquared
		s.BestIndicator = results[best].Indicator
	}

	if frame.Len() > 0 {
		dates := frame.Dates()
		first, last := dates[0], dates[0]
		for _, d := range dates {
			if d.Before(first) {
				first = d
			}
			if d.After(last) {
				last = d
			}
		}
		s.DateRangeStart = formatDate(first)
		s.DateRangeEnd = formatDate(last)
	}

	if target, ok := frame.Column(t.target); ok {
		s.AvgTarget = stats.Mean(presentValues(target))
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range target {
			if !math.IsNaN(v) {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
		if !math.IsInf(lo, 1) {
			s.MinTarget, s.MaxTarget = lo, hi
		}
	}
	return s
}

func presentValues(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// ExportSummary writes the KPIs as a single row
func (t *TableauExporter) ExportSummary(s Summary) error {
	headers := []string{
		"total_indicators", "significant_indicators", "avg_r_squared", "max_r_squared",
		"best_indicator", "total_months", "date_range_start", "date_range_end",
		"avg_" + t.target, "min_" + t.target, "max_" + t.target,
	}
	record := []string{
		formatInt(s.TotalIndicators),
		formatInt(s.SignificantIndicators),
		formatFloat(s.AvgRSquared),
		formatFloat(s.MaxRSquared),
		s.BestIndicator,
		formatInt(s.TotalMonths),
		s.DateRangeStart,
		s.DateRangeEnd,
		formatFloat(s.AvgTarget),
		formatFloat(s.MinTarget),
		formatFloat(s.MaxTarget),
	}
	return t.csvWriter.WriteSimpleCSV(tableauPath(config.TableauSummaryFile), headers, [][]string{record})
}

// ExportTemporal writes the scores in long format, one row per month and
// indicator, with calendar and economic period fields for filtering
func (t *TableauExporter) ExportTemporal(frame *dataset.Frame, scoreCols []string) error {
	target, err := frame.MustColumn(t.target)
	if err != nil {
		return err
	}

	stream, err := t.csvWriter.CreateStreamWriter(tableauPath(config.TableauTemporalFile), []string{
		"date", t.target, "indicator", "trend_score", "year", "month", "quarter", "year_month", "economic_period",
	})
	if err != nil {
		return err
	}

	for _, col := range scoreCols {
		scores, err := frame.MustColumn(col)
		if err != nil {
			stream.Close()
			return err
		}
		name := displayName(analysis.IndicatorName(col))
		for i, d := range frame.Dates() {
			if err := stream.WriteRecord([]string{
				formatDate(d),
				formatFloat(target[i]),
				name,
				formatFloat(scores[i]),
				strconv.Itoa(d.Year()),
				strconv.Itoa(int(d.Month())),
				strconv.Itoa((int(d.Month())-1)/3 + 1),
				d.Format("2006-01"),
				analysis.EconomicPeriod(d),
			}); err != nil {
				stream.Close()
				return fmt.Errorf("failed to write temporal row: %w", err)
			}
		}
	}
	return stream.Close()
}

// significanceLevel grades a p-value for the category dashboard
func significanceLevel(p, alpha float64) string {
	switch {
	case p < 0.001:
		return "Highly Significant"
	case p < alpha:
		return "Significant"
	default:
		return "Not Significant"
	}
}

func correlationDirection(coef float64) string {
	if coef < 0 {
		return "Negative (Inverse)"
	}
	return "Positive"
}

// ExportCategoryComparison writes the search results with display fields,
// significance grade, direction and R² relative to the best indicator
func (t *TableauExporter) ExportCategoryComparison(results []analysis.SearchResult, alpha float64) error {
	maxR2 := 0.0
	for _, r := range results {
		maxR2 = math.Max(maxR2, r.RSquared)
	}

	headers := []string{
		"Indicator", "Category", "Coefficient", "R_squared", "P_value", "Significant",
		"indicator_display", "category_group", "significance_level", "correlation_direction", "luxury_ratio",
	}
	records := make([][]string, 0, len(results))
	for _, r := range results {
		ratio := 0.0
		if maxR2 > 0 {
			ratio = r.RSquared / maxR2
		}
		records = append(records, []string{
			r.Indicator,
			r.Category,
			formatFloat(r.Coefficient),
			formatFloat(r.RSquared),
			formatFloat(r.PValue),
			r.SignificantLabel(),
			displayName(r.Indicator),
			r.Group,
			significanceLevel(r.PValue, alpha),
			correlationDirection(r.Coefficient),
			formatFloat(ratio),
		})
	}
	return t.csvWriter.WriteSimpleCSV(tableauPath(config.TableauCategoryFile), headers, records)
}

// ExportCorrelationExplorer writes the scatter data (target, score,
// indicator) and the per-indicator correlation metrics
func (t *TableauExporter) ExportCorrelationExplorer(frame *dataset.Frame, results []analysis.SearchResult) error {
	target, err := frame.MustColumn(t.target)
	if err != nil {
		return err
	}

	var points, metrics [][]string
	for _, r := range results {
		scores, ok := frame.Column(r.Indicator + "_score")
		if !ok {
			continue
		}
		name := displayName(r.Indicator)
		for i := range scores {
			points = append(points, []string{formatFloat(target[i]), formatFloat(scores[i]), name})
		}

		corr := math.NaN()
		if c, err := stats.Pearson(target, scores); err == nil {
			corr = c.R
		}
		metrics = append(metrics, []string{
			name,
			formatFloat(corr),
			formatFloat(r.RSquared),
			formatFloat(r.PValue),
			formatFloat(r.Coefficient),
			formatBool(r.Significant),
		})
	}

	if err := t.csvWriter.WriteSimpleCSV(tableauPath(config.TableauCorrelationFile),
		[]string{t.target, "trend_score", "indicator"}, points); err != nil {
		return err
	}
	return t.csvWriter.WriteSimpleCSV(tableauPath(config.TableauCorrelationMetrics),
		[]string{"indicator", "correlation_coefficient", "r_squared", "p_value", "coefficient", "significant"}, metrics)
}

// ExportFrame writes a frame-shaped dashboard dataset (main data, lagged
// analysis)
func (t *TableauExporter) ExportFrame(name string, frame *dataset.Frame) error {
	return t.csvWriter.WriteFrame(tableauPath(name), frame)
}
