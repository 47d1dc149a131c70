package analysis

import (
	"fmt"
	"sort"

	"littleluxuries/internal/dataset"
	"littleluxuries/internal/stats"
)

// SearchResult is the regression of the target on one indicator score
type SearchResult struct {
	Indicator     string
	Category      string
	Group         string
	Coefficient   float64
	Intercept     float64
	RSquared      float64
	AdjRSquared   float64
	PValue        float64
	FStatistic    float64
	StdError      float64
	Significant   bool
	VariablesUsed int
	N             int
}

// SignificantLabel renders Significant as Yes/No
func (r SearchResult) SignificantLabel() string {
	if r.Significant {
		return "Yes"
	}
	return "No"
}

// AnalyzeSearch regresses target on each indicator score (target = a +
// b*score) and returns the results sorted by R² descending.
func AnalyzeSearch(f *dataset.Frame, reports []LatentReport, target string, alpha float64) ([]SearchResult, error) {
	y, err := f.MustColumn(target)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(reports))
	for _, rep := range reports {
		x, err := f.MustColumn(rep.ScoreColumn())
		if err != nil {
			return nil, err
		}
		reg, err := stats.SimpleOLS(x, y)
		if err != nil {
			return nil, fmt.Errorf("regress %s on %s: %w", target, rep.Indicator.Name, err)
		}

		used := 0
		if rep.Result != nil {
			used = len(rep.Result.Columns)
		}
		results = append(results, SearchResult{
			Indicator:     rep.Indicator.Name,
			Category:      rep.Indicator.Category,
			Group:         rep.Indicator.Group,
			Coefficient:   reg.Slope,
			Intercept:     reg.Intercept,
			RSquared:      reg.RSquared,
			AdjRSquared:   reg.AdjRSquared,
			PValue:        reg.PValue,
			FStatistic:    reg.FStatistic,
			StdError:      reg.StdError,
			Significant:   reg.PValue < alpha,
			VariablesUsed: used,
			N:             reg.N,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RSquared > results[j].RSquared
	})
	return results, nil
}

// CountSignificant returns how many results are significant
func CountSignificant(results []SearchResult) int {
	n := 0
	for _, r := range results {
		if r.Significant {
			n++
		}
	}
	return n
}
