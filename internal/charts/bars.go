package charts

import (
	"fmt"
	"math"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/retail"
)

func barStyle(c drawing.Color) chart.Style {
	return chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1}
}

func twoDecimals(v interface{}) string {
	return chart.FloatValueFormatterWithFormat(v, "%.2f")
}

// barChart sizes the bars to fit the canvas and fixes the value range so
// that equal bars still render
func (r *Renderer) barChart(title string, bars []chart.Value, lo, hi float64) chart.BarChart {
	if hi <= lo {
		hi = lo + 1
	}
	slot := r.width / (len(bars)*2 + 1)
	bc := chart.BarChart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 60}},
		BarWidth:   slot,
		BarSpacing: slot,
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: twoDecimals,
		},
		Bars: bars,
	}
	if lo < 0 {
		bc.UseBaseValue = true
		bc.BaseValue = 0
	}
	return bc
}

// Ranking plots the R² of each indicator in ranking order; significant
// indicators are green
func (r *Renderer) Ranking(path string, rankings []analysis.Ranking) error {
	if len(rankings) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, len(rankings))
	hi := 0.0
	for i, rk := range rankings {
		c := colorInsignificant
		if rk.Significant {
			c = colorSignificant
		}
		bars[i] = chart.Value{Label: rk.Indicator, Value: rk.RSquared, Style: barStyle(c)}
		hi = math.Max(hi, rk.RSquared)
	}

	bc := r.barChart("Search indicators ranked by R² against consumer confidence", bars, 0, hi*1.1)
	return r.save(path, func(f *os.File) error { return bc.Render(chart.PNG, f) })
}

// TopCorrelations plots the strongest indicator/economic pairs; positive
// correlations are red, negative blue
func (r *Renderer) TopCorrelations(path string, pairs []analysis.Pair) error {
	if len(pairs) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, len(pairs))
	for i, p := range pairs {
		c := colorPositive
		if p.R < 0 {
			c = colorNegative
		}
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%s / %s", analysis.IndicatorName(p.Row), p.Col),
			Value: p.R,
			Style: barStyle(c),
		}
	}

	bc := r.barChart("Strongest fashion-economic correlations", bars, -1, 1)
	return r.save(path, func(f *os.File) error { return bc.Render(chart.PNG, f) })
}

// PricePoints plots the little-luxury transaction count per price range,
// highlighting the sweet spot
func (r *Renderer) PricePoints(path string, bins []retail.PriceBin) error {
	spot, ok := retail.SweetSpot(bins)
	if !ok {
		return ErrNoData
	}
	bars := make([]chart.Value, len(bins))
	for i, b := range bins {
		c := colorInsignificant
		if b.Label == spot.Label {
			c = colorSignificant
		}
		bars[i] = chart.Value{Label: b.Label, Value: float64(b.TransactionCount), Style: barStyle(c)}
	}

	bc := r.barChart("Little-luxury transactions by price range", bars, 0, float64(spot.TransactionCount)*1.1)
	return r.save(path, func(f *os.File) error { return bc.Render(chart.PNG, f) })
}
