package retail

import (
	"errors"
	"fmt"
	"math"
	"time"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/dataset"
	"littleluxuries/internal/stats"
)

// Comparison columns
const (
	ColLuxurySpending     = "luxury_spending"
	ColLuxuryTransactions = "luxury_transactions"
)

// Association is the correlation of one series with another over the
// overlapping months
type Association struct {
	Series  string
	Against string
	stats.Correlation
}

// Significant reports whether p < alpha
func (a Association) Significant(alpha float64) bool {
	return a.PValue < alpha
}

// Comparison lines search behaviour up against little-luxury purchases
type Comparison struct {
	// Frame is the target and score columns of the master frame with
	// luxury_spending and luxury_transactions merged in by month.
	Frame *dataset.Frame
	// Overlap counts the months with purchase data.
	Overlap int
	// Associations is empty when Overlap does not exceed the minimum.
	Associations []Association
}

// Overlapping returns the rows that carry purchase data
func (c *Comparison) Overlapping() *dataset.Frame {
	spend, _ := c.Frame.Column(ColLuxurySpending)
	return c.Frame.Filter(func(i int) bool { return !math.IsNaN(spend[i]) })
}

// LuxuryFrame turns the little-luxury rows of a monthly summary into a
// frame with luxury_spending and luxury_transactions
func LuxuryFrame(summary []MonthlyRow) (*dataset.Frame, error) {
	var (
		dates []time.Time
		spend []float64
		count []float64
	)
	for _, r := range summary {
		if r.Type != TypeLittleLuxury {
			continue
		}
		dates = append(dates, r.Month)
		spend = append(spend, r.TotalSpending)
		count = append(count, float64(r.TransactionCount))
	}

	f := dataset.NewFrame(dates)
	if err := f.SetColumn(ColLuxurySpending, spend); err != nil {
		return nil, err
	}
	if err := f.SetColumn(ColLuxuryTransactions, count); err != nil {
		return nil, err
	}
	return f, nil
}

// CompareSearchVsPurchase merges monthly little-luxury spending onto the
// target and indicator scores of master. When more than minOverlap months
// overlap, spending and transaction counts are correlated with the target
// and every score with spending; pairs without variance are left out.
func CompareSearchVsPurchase(master *dataset.Frame, summary []MonthlyRow, target string, minOverlap int) (*Comparison, error) {
	if !master.IsNumeric(target) {
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownColumn, target)
	}
	scores := analysis.ScoreColumns(master)
	search, err := master.Select(append([]string{target}, scores...)...)
	if err != nil {
		return nil, err
	}

	lux, err := LuxuryFrame(summary)
	if err != nil {
		return nil, err
	}
	merged, err := search.MergeLeft(lux)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Frame: merged}
	spend, _ := merged.Column(ColLuxurySpending)
	for _, v := range spend {
		if !math.IsNaN(v) {
			cmp.Overlap++
		}
	}
	if cmp.Overlap <= minOverlap {
		return cmp, nil
	}

	overlap := cmp.Overlapping()
	pairs := [][2]string{
		{ColLuxurySpending, target},
		{ColLuxuryTransactions, target},
	}
	for _, s := range scores {
		pairs = append(pairs, [2]string{s, ColLuxurySpending})
	}

	for _, p := range pairs {
		x, _ := overlap.Column(p[0])
		y, _ := overlap.Column(p[1])
		xs, _, err := stats.CompletePairs(x, y)
		if err != nil {
			return nil, err
		}
		if p[1] == ColLuxurySpending && len(xs) <= minOverlap {
			continue
		}
		c, err := stats.Pearson(x, y)
		switch {
		case errors.Is(err, stats.ErrZeroVariance), errors.Is(err, stats.ErrInsufficientData):
			continue
		case err != nil:
			return nil, fmt.Errorf("correlate %s with %s: %w", p[0], p[1], err)
		}
		cmp.Associations = append(cmp.Associations, Association{Series: p[0], Against: p[1], Correlation: c})
	}
	return cmp, nil
}
