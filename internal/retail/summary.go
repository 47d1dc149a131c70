package retail

import (
	"math"
	"sort"
	"time"

	"littleluxuries/internal/dataset"
)

// MonthlyRow aggregates one purchase type within one calendar month
type MonthlyRow struct {
	Month                time.Time // first day of the month
	Type                 string
	TotalSpending        float64
	TransactionCount     int
	AvgTransaction       float64
	UniqueCustomers      int
	TotalMonthlySpending float64
	SpendingShare        float64 // percent of the month's spending
}

type bucket struct {
	total     float64
	count     int
	customers map[string]struct{}
}

func (b *bucket) add(p Purchase) {
	if b.customers == nil {
		b.customers = make(map[string]struct{})
	}
	b.total += p.TotalSpent
	b.count++
	b.customers[p.CustomerID] = struct{}{}
}

func (b *bucket) mean() float64 {
	if b.count == 0 {
		return math.NaN()
	}
	return b.total / float64(b.count)
}

// MonthlySummary groups purchases by month and purchase type. Rows are
// ordered by month, then type.
func MonthlySummary(purchases []Purchase) []MonthlyRow {
	type key struct {
		month dataset.MonthKey
		typ   string
	}
	buckets := make(map[key]*bucket)
	monthTotals := make(map[dataset.MonthKey]float64)
	for _, p := range purchases {
		k := key{month: dataset.KeyOf(p.Date), typ: p.Type}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.add(p)
		monthTotals[k.month] += p.TotalSpent
	}

	out := make([]MonthlyRow, 0, len(buckets))
	for k, b := range buckets {
		total := monthTotals[k.month]
		share := math.NaN()
		if total != 0 {
			share = b.total / total * 100
		}
		out = append(out, MonthlyRow{
			Month:                time.Date(k.month.Year, k.month.Month, 1, 0, 0, 0, 0, time.UTC),
			Type:                 k.typ,
			TotalSpending:        b.total,
			TransactionCount:     b.count,
			AvgTransaction:       b.mean(),
			UniqueCustomers:      len(b.customers),
			TotalMonthlySpending: total,
			SpendingShare:        share,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// RatioPoint is the little-luxury share of one month's spending
type RatioPoint struct {
	Month time.Time
	Pct   float64
}

// LuxuryRatio extracts the little-luxury spending share per month. Months
// without any little-luxury purchase are absent.
func LuxuryRatio(summary []MonthlyRow) []RatioPoint {
	var out []RatioPoint
	for _, r := range summary {
		if r.Type == TypeLittleLuxury {
			out = append(out, RatioPoint{Month: r.Month, Pct: r.SpendingShare})
		}
	}
	return out
}

// PriceBin aggregates little-luxury purchases whose amount lies in
// (Lower, Upper]
type PriceBin struct {
	Label            string
	Lower            float64
	Upper            float64
	TransactionCount int
	TotalSpent       float64
	AvgTransaction   float64 // NaN for an empty bin
	UniqueCustomers  int
}

var priceEdges = []float64{0, 10, 30, 50, 100, 500, math.Inf(1)}

var priceLabels = []string{"$0-10", "$10-30", "$30-50", "$50-100", "$100-500", "$500+"}

// PriceLabels lists the price range labels in ascending order
func PriceLabels() []string {
	return append([]string(nil), priceLabels...)
}

func priceBin(amount float64) int {
	for i := 1; i < len(priceEdges); i++ {
		if amount > priceEdges[i-1] && amount <= priceEdges[i] {
			return i - 1
		}
	}
	return -1
}

// PricePoints buckets the little-luxury purchases by total spent. Every
// range is returned, empty ones included; non-positive amounts fall outside
// all ranges and are ignored.
func PricePoints(purchases []Purchase) []PriceBin {
	buckets := make([]bucket, len(priceLabels))
	for _, p := range purchases {
		if !p.IsLuxury() {
			continue
		}
		if i := priceBin(p.TotalSpent); i >= 0 {
			buckets[i].add(p)
		}
	}

	out := make([]PriceBin, len(priceLabels))
	for i := range out {
		out[i] = PriceBin{
			Label:            priceLabels[i],
			Lower:            priceEdges[i],
			Upper:            priceEdges[i+1],
			TransactionCount: buckets[i].count,
			TotalSpent:       buckets[i].total,
			AvgTransaction:   buckets[i].mean(),
			UniqueCustomers:  len(buckets[i].customers),
		}
	}
	return out
}

// SweetSpot returns the price range with the most transactions, the lower
// range on ties. ok is false when every range is empty.
func SweetSpot(bins []PriceBin) (PriceBin, bool) {
	best := -1
	for i, b := range bins {
		if b.TransactionCount == 0 {
			continue
		}
		if best < 0 || b.TransactionCount > bins[best].TransactionCount {
			best = i
		}
	}
	if best < 0 {
		return PriceBin{}, false
	}
	return bins[best], true
}

// PeriodCategory aggregates one luxury category within a calendar quarter
type PeriodCategory struct {
	Year             int
	Quarter          int
	LuxuryCategory   string
	TotalSpent       float64
	AvgSpent         float64
	TransactionCount int
	UniqueCustomers  int
}

// CategoryByPeriod groups all purchases by year, quarter and luxury
// category, in that order
func CategoryByPeriod(purchases []Purchase) []PeriodCategory {
	type key struct {
		year, quarter int
		category      string
	}
	buckets := make(map[key]*bucket)
	for _, p := range purchases {
		k := key{year: p.Date.Year(), quarter: (int(p.Date.Month())-1)/3 + 1, category: p.LuxuryCategory}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.add(p)
	}

	out := make([]PeriodCategory, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, PeriodCategory{
			Year:             k.year,
			Quarter:          k.quarter,
			LuxuryCategory:   k.category,
			TotalSpent:       b.total,
			AvgSpent:         b.mean(),
			TransactionCount: b.count,
			UniqueCustomers:  len(b.customers),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Quarter != b.Quarter {
			return a.Quarter < b.Quarter
		}
		return a.LuxuryCategory < b.LuxuryCategory
	})
	return out
}
