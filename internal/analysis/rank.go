package analysis

import (
	"math"
	"sort"

	"littleluxuries/internal/config"
	"littleluxuries/internal/stats"
)

// Tier labels
const (
	TierStrong   = "Tier 1: Strong Indicators"
	TierModerate = "Tier 2: Moderate Indicators"
	TierWeak     = "Tier 3: Weak Indicators"
)

// Ranking is a search result with its per-metric and composite ranks
type Ranking struct {
	SearchResult

	RankRSquared    int
	RankCoefficient int
	RankPValue      int
	RankFStatistic  int
	Composite       float64
	Overall         int

	Tier             string
	Stars            string
	R2Interpretation string
}

// Rank orders indicators by a weighted sum of their ranks on R² (desc),
// |coefficient| (desc), p-value (asc) and F statistic (desc). Lower
// composite is better; ties share the lowest overall rank.
func Rank(results []SearchResult, w config.RankWeights) []Ranking {
	n := len(results)
	r2 := make([]float64, n)
	coef := make([]float64, n)
	p := make([]float64, n)
	f := make([]float64, n)
	for i, r := range results {
		r2[i] = r.RSquared
		coef[i] = math.Abs(r.Coefficient)
		p[i] = r.PValue
		f[i] = r.FStatistic
	}
	byR2 := stats.Rank(r2, true)
	byCoef := stats.Rank(coef, true)
	byP := stats.Rank(p, false)
	byF := stats.Rank(f, true)

	out := make([]Ranking, n)
	composite := make([]float64, n)
	for i, r := range results {
		composite[i] = byR2[i]*w.RSquared + byP[i]*w.PValue + byF[i]*w.FStatistic + byCoef[i]*w.Coefficient
		out[i] = Ranking{
			SearchResult:     r,
			RankRSquared:     int(byR2[i]),
			RankCoefficient:  int(byCoef[i]),
			RankPValue:       int(byP[i]),
			RankFStatistic:   int(byF[i]),
			Composite:        composite[i],
			Stars:            stats.SignificanceStars(r.PValue),
			R2Interpretation: InterpretR2(r.RSquared),
		}
	}

	overall := stats.Rank(composite, false)
	for i := range out {
		out[i].Overall = int(overall[i])
		out[i].Tier = TierFor(out[i].Overall)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Overall < out[b].Overall
	})
	return out
}

// TierFor classifies an overall rank
func TierFor(overall int) string {
	switch {
	case overall <= 3:
		return TierStrong
	case overall <= 5:
		return TierModerate
	default:
		return TierWeak
	}
}

// InterpretR2 describes the explanatory power of an R² value
func InterpretR2(r2 float64) string {
	switch {
	case r2 >= 0.15:
		return "High Explanatory Power"
	case r2 >= 0.10:
		return "Moderate Explanatory Power"
	case r2 >= 0.05:
		return "Low Explanatory Power"
	default:
		return "Very Low Explanatory Power"
	}
}
