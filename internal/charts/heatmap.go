package charts

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"littleluxuries/internal/analysis"
)

const (
	glyphWidth  = 7
	glyphHeight = 13
	maxLabelLen = 18
	titleHeight = 30
	margin      = 16
)

var (
	colorMissing = color.RGBA{R: 224, G: 224, B: 224, A: 255}
	colorText    = color.RGBA{A: 255}
)

// Heatmap is a labelled grid of values. Color maps a value onto its cell
// fill; Format, when set, labels cells wide enough to hold the text.
type Heatmap struct {
	Title  string
	Rows   []string
	Cols   []string
	Values [][]float64
	Color  func(v float64) color.Color
	Format func(v float64) string
}

// Heatmap renders h to path as PNG
func (r *Renderer) Heatmap(path string, h Heatmap) error {
	img, err := r.renderHeatmap(h)
	if err != nil {
		return err
	}
	return r.save(path, func(f *os.File) error { return png.Encode(f, img) })
}

// CorrelationHeatmap shades each indicator/economic pair from blue (-1)
// through white to red (+1)
func (r *Renderer) CorrelationHeatmap(path string, m *analysis.CorrelationMatrix) error {
	return r.Heatmap(path, Heatmap{
		Title:  "Fashion indicators vs economic indicators (Pearson r)",
		Rows:   indicatorLabels(m.Rows),
		Cols:   m.Cols,
		Values: m.R,
		Color:  diverging,
		Format: func(v float64) string { return fmt.Sprintf("%.2f", v) },
	})
}

// SignificanceHeatmap marks the pairs with p < alpha
func (r *Renderer) SignificanceHeatmap(path string, m *analysis.CorrelationMatrix, alpha float64) error {
	sig := m.Significance(alpha)
	values := make([][]float64, len(sig))
	for i, row := range sig {
		values[i] = make([]float64, len(row))
		for j, v := range row {
			values[i][j] = float64(v)
		}
	}
	return r.Heatmap(path, Heatmap{
		Title:  fmt.Sprintf("Significant correlations (p < %g): %d of %d", alpha, m.SignificantCount(alpha), len(m.Rows)*len(m.Cols)),
		Rows:   indicatorLabels(m.Rows),
		Cols:   m.Cols,
		Values: values,
		Color: func(v float64) color.Color {
			if v > 0 {
				return colorSignificant
			}
			return colorMissing
		},
	})
}

func indicatorLabels(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = analysis.IndicatorName(c)
	}
	return out
}

// diverging maps [-1, 1] onto blue-white-red; NaN is grey
func diverging(v float64) color.Color {
	if math.IsNaN(v) {
		return colorMissing
	}
	t := math.Min(1, math.Abs(v))
	end := colorPositive
	if v < 0 {
		end = colorNegative
	}
	mix := func(c uint8) uint8 {
		return uint8(math.Round(255 + (float64(c)-255)*t))
	}
	return color.RGBA{R: mix(end.R), G: mix(end.G), B: mix(end.B), A: 255}
}

func truncate(s string) string {
	if len(s) > maxLabelLen {
		return s[:maxLabelLen-1] + "~"
	}
	return s
}

func longest(labels []string) int {
	n := 0
	for _, l := range labels {
		n = max(n, len(truncate(l)))
	}
	return n
}

// renderHeatmap lays out the title, row labels on the left, column labels
// written vertically above the grid and one filled cell per value
func (r *Renderer) renderHeatmap(h Heatmap) (*image.RGBA, error) {
	if len(h.Rows) == 0 || len(h.Cols) == 0 {
		return nil, ErrNoData
	}
	if len(h.Values) != len(h.Rows) {
		return nil, fmt.Errorf("heatmap has %d value rows for %d labels", len(h.Values), len(h.Rows))
	}

	left := margin + longest(h.Rows)*glyphWidth + 8
	top := titleHeight + longest(h.Cols)*glyphHeight + 8
	cellW := (r.width - left - margin) / len(h.Cols)
	cellH := (r.height - top - margin) / len(h.Rows)
	if cellW < 1 || cellH < 1 {
		return nil, fmt.Errorf("%dx%d is too small for a %dx%d heatmap", r.width, r.height, len(h.Rows), len(h.Cols))
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(img, margin, titleHeight-10, h.Title)

	for j, c := range h.Cols {
		x := left + j*cellW + (cellW-glyphWidth)/2
		for k, ch := range truncate(c) {
			drawText(img, x, titleHeight+(k+1)*glyphHeight, string(ch))
		}
	}

	for i, rowLabel := range h.Rows {
		y := top + i*cellH
		drawText(img, margin, y+(cellH+glyphHeight)/2-2, truncate(rowLabel))
		if len(h.Values[i]) != len(h.Cols) {
			return nil, fmt.Errorf("heatmap row %q has %d values for %d columns", rowLabel, len(h.Values[i]), len(h.Cols))
		}

		for j, v := range h.Values[i] {
			x := left + j*cellW
			cell := image.Rect(x+1, y+1, x+cellW, y+cellH)
			draw.Draw(img, cell, image.NewUniform(h.Color(v)), image.Point{}, draw.Src)

			if h.Format == nil || math.IsNaN(v) {
				continue
			}
			label := h.Format(v)
			if len(label)*glyphWidth+4 > cellW || cellH < glyphHeight+2 {
				continue
			}
			drawText(img, x+(cellW-len(label)*glyphWidth)/2, y+(cellH+glyphHeight)/2-2, label)
		}
	}
	return img, nil
}

func drawText(img draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
