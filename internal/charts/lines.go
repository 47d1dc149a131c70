package charts

import (
	"fmt"
	"math"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"littleluxuries/internal/stats"
)

// Line is one named series of a time-series chart. Secondary lines are
// plotted against the right-hand axis.
type Line struct {
	Name      string
	Values    []float64
	Secondary bool
}

var linePalette = []drawing.Color{
	drawing.ColorFromHex("1565c0"),
	drawing.ColorFromHex("ef6c00"),
	drawing.ColorFromHex("2e7d32"),
	drawing.ColorFromHex("6a1b9a"),
}

// Scatter plots y against x over their complete pairs with the least
// squares line through them
func (r *Renderer) Scatter(path, title, xName, yName string, x, y []float64) error {
	xs, ys, err := stats.CompletePairs(x, y)
	if err != nil {
		return err
	}
	if len(xs) < 2 {
		return ErrNoData
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name: yName,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    linePalette[0],
			},
			XValues: xs,
			YValues: ys,
		},
	}
	if reg, err := stats.SimpleOLS(xs, ys); err == nil {
		lo, hi := extent(xs)
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("fit (R² = %.3f)", reg.RSquared),
			Style:   chart.Style{StrokeWidth: 2, StrokeColor: colorFit},
			XValues: []float64{lo, hi},
			YValues: []float64{reg.Intercept + reg.Slope*lo, reg.Intercept + reg.Slope*hi},
		})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xName, ValueFormatter: twoDecimals},
		YAxis:      chart.YAxis{Name: yName, ValueFormatter: twoDecimals},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return r.save(path, func(f *os.File) error { return ch.Render(chart.PNG, f) })
}

// TimeSeries plots each line against the dates. Missing values are dropped
// from their line; a line with fewer than two points is left out.
func (r *Renderer) TimeSeries(path, title string, dates []time.Time, lines []Line) error {
	var (
		series    []chart.Series
		secondary bool
	)
	for i, l := range lines {
		var xs []time.Time
		var ys []float64
		for j, v := range l.Values {
			if j >= len(dates) || math.IsNaN(v) {
				continue
			}
			xs = append(xs, dates[j])
			ys = append(ys, v)
		}
		if len(xs) < 2 {
			r.logger.Debug("line skipped", "line", l.Name, "points", len(xs))
			continue
		}

		axis := chart.YAxisPrimary
		if l.Secondary {
			axis = chart.YAxisSecondary
			secondary = true
		}
		series = append(series, chart.TimeSeries{
			Name:    l.Name,
			Style:   chart.Style{StrokeWidth: 2, StrokeColor: linePalette[i%len(linePalette)]},
			YAxis:   axis,
			XValues: xs,
			YValues: ys,
		})
	}
	if len(series) == 0 {
		return ErrNoData
	}

	ch := chart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01")},
		YAxis:      chart.YAxis{ValueFormatter: twoDecimals},
		Series:     series,
	}
	if secondary {
		ch.YAxisSecondary = chart.YAxis{ValueFormatter: twoDecimals}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return r.save(path, func(f *os.File) error { return ch.Render(chart.PNG, f) })
}

func extent(x []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
