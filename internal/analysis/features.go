package analysis

import (
	"fmt"
	"math"
	"strings"

	"littleluxuries/internal/dataset"
	"littleluxuries/internal/stats"
)

// Feature columns
const (
	ColLuxuryRatio           = "luxury_ratio"
	ColCategoryConcentration = "category_concentration"
	ColAffordabilityIndex    = "affordability_index"
)

// LuxuryRatio is the row sum of the scores rescaled onto [0, 1]. Missing
// scores count as zero in the sum.
func LuxuryRatio(f *dataset.Frame, scoreCols []string) ([]float64, error) {
	sums := make([]float64, f.Len())
	for _, name := range scoreCols {
		col, err := f.MustColumn(name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			if !math.IsNaN(v) {
				sums[i] += v
			}
		}
	}
	return stats.MinMaxNormalize(sums), nil
}

// CategoryConcentration is the sample standard deviation of the scores
// within each row
func CategoryConcentration(f *dataset.Frame, scoreCols []string) ([]float64, error) {
	cols := make([][]float64, len(scoreCols))
	for j, name := range scoreCols {
		col, err := f.MustColumn(name)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}

	out := make([]float64, f.Len())
	row := make([]float64, len(cols))
	for i := range out {
		for j := range cols {
			row[j] = cols[j][i]
		}
		out[i] = stats.SampleStdDev(row)
	}
	return out, nil
}

// AffordabilityIndex is 100 - cci rescaled onto [0, 100]: low confidence
// gives a high index
func AffordabilityIndex(cci []float64) []float64 {
	inv := make([]float64, len(cci))
	for i, v := range cci {
		inv[i] = 100 - v
	}
	out := stats.MinMaxNormalize(inv)
	for i := range out {
		out[i] *= 100
	}
	return out
}

// AddFeatures appends luxury_ratio, category_concentration and, when the
// target column exists, affordability_index
func AddFeatures(f *dataset.Frame, scoreCols []string, target string) error {
	if len(scoreCols) > 0 {
		ratio, err := LuxuryRatio(f, scoreCols)
		if err != nil {
			return err
		}
		if err := f.SetColumn(ColLuxuryRatio, ratio); err != nil {
			return err
		}
		conc, err := CategoryConcentration(f, scoreCols)
		if err != nil {
			return err
		}
		if err := f.SetColumn(ColCategoryConcentration, conc); err != nil {
			return err
		}
	}
	if cci, ok := f.Column(target); ok {
		return f.SetColumn(ColAffordabilityIndex, AffordabilityIndex(cci))
	}
	return nil
}

// AddCategories adds the dashboard classifications: economic_period,
// is_recession, the confidence tertile of the target and the unemployment
// band
func AddCategories(f *dataset.Frame, target string) error {
	n := f.Len()
	econ := make([]string, n)
	for i, d := range f.Dates() {
		econ[i] = EconomicPeriod(d)
	}
	if err := f.SetLabels(ColEconomicPeriod, econ); err != nil {
		return err
	}

	if periods, ok := f.Labels(ColPeriod); ok {
		flag := make([]float64, n)
		for i, p := range periods {
			if IsRecession(p) {
				flag[i] = 1
			}
		}
		if err := f.SetColumn(ColIsRecession, flag); err != nil {
			return err
		}
	}

	if cci, ok := f.Column(target); ok {
		lo, hi := stats.Quantile(cci, 0.33), stats.Quantile(cci, 0.67)
		labels := make([]string, n)
		for i, v := range cci {
			switch {
			case v <= lo:
				labels[i] = "Low Confidence"
			case v >= hi:
				labels[i] = "High Confidence"
			default:
				labels[i] = "Medium"
			}
		}
		if err := f.SetLabels(ColCCICategory, labels); err != nil {
			return err
		}
	}

	if rate, ok := f.Column(ColUnemploymentRate); ok {
		labels := make([]string, n)
		for i, v := range rate {
			switch {
			case math.IsNaN(v):
				labels[i] = "Normal"
			case v < 5:
				labels[i] = "Low (<5%)"
			case v < 8:
				labels[i] = "Moderate (5-8%)"
			default:
				labels[i] = "High (>=8%)"
			}
		}
		if err := f.SetLabels(ColUnemploymentCat, labels); err != nil {
			return err
		}
	}
	return nil
}

// Lagged builds the leading-indicator dataset: the target, each score with
// its 3 and 6 month lags, and the target 3 and 6 months ahead
func Lagged(f *dataset.Frame, scoreCols []string, target string) (*dataset.Frame, error) {
	out, err := f.Select(append([]string{target}, scoreCols...)...)
	if err != nil {
		return nil, err
	}

	for _, name := range scoreCols {
		base := IndicatorName(name)
		for _, k := range []int{3, 6} {
			lag, err := out.Shift(name, k)
			if err != nil {
				return nil, err
			}
			if err := out.SetColumn(fmt.Sprintf("%s_lag%d", base, k), lag); err != nil {
				return nil, err
			}
		}
	}
	for _, k := range []int{3, 6} {
		lead, err := out.Shift(target, -k)
		if err != nil {
			return nil, err
		}
		if err := out.SetColumn(fmt.Sprintf("%s_lag%d", target, k), lead); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// IndicatorName strips the _score suffix from a score column
func IndicatorName(scoreCol string) string {
	return strings.TrimSuffix(scoreCol, "_score")
}

// ScoreColumns lists the frame's score columns in order
func ScoreColumns(f *dataset.Frame) []string {
	var out []string
	for _, name := range f.NumericColumns() {
		if IndicatorName(name) != name {
			out = append(out, name)
		}
	}
	return out
}
