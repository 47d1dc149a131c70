package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"littleluxuries/internal/dataset"
	"littleluxuries/internal/stats"
)

// CorrelationMatrix holds Pearson r and p for every (row, column) pair of
// variables, computed over the rows where all variables are present
type CorrelationMatrix struct {
	Rows []string
	Cols []string
	R    [][]float64
	P    [][]float64
	// N is the number of complete rows used.
	N int
}

// Pair is one cell of a correlation matrix
type Pair struct {
	Row    string
	Col    string
	R      float64
	PValue float64
}

// NewCorrelationMatrix correlates every row variable with every column
// variable. Variables missing from the frame are left out. A pair without
// variance in either variable gets NaN.
func NewCorrelationMatrix(f *dataset.Frame, rows, cols []string) (*CorrelationMatrix, error) {
	rows = present(f, rows)
	cols = present(f, cols)
	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("%w: no variables to correlate", dataset.ErrUnknownColumn)
	}

	complete, err := f.CompleteRows(append(append([]string(nil), rows...), cols...)...)
	if err != nil {
		return nil, err
	}
	if complete.Len() < stats.MinObservations {
		return nil, fmt.Errorf("%w: %d complete rows", stats.ErrInsufficientData, complete.Len())
	}

	m := &CorrelationMatrix{
		Rows: rows,
		Cols: cols,
		R:    make([][]float64, len(rows)),
		P:    make([][]float64, len(rows)),
		N:    complete.Len(),
	}
	for i, rname := range rows {
		x, _ := complete.Column(rname)
		m.R[i] = make([]float64, len(cols))
		m.P[i] = make([]float64, len(cols))
		for j, cname := range cols {
			y, _ := complete.Column(cname)
			c, err := stats.Pearson(x, y)
			switch {
			case errors.Is(err, stats.ErrZeroVariance):
				m.R[i][j], m.P[i][j] = math.NaN(), math.NaN()
			case err != nil:
				return nil, fmt.Errorf("correlate %s with %s: %w", rname, cname, err)
			default:
				m.R[i][j], m.P[i][j] = c.R, c.PValue
			}
		}
	}
	return m, nil
}

func present(f *dataset.Frame, names []string) []string {
	var out []string
	for _, n := range names {
		if f.IsNumeric(n) {
			out = append(out, n)
		}
	}
	return out
}

// Significance marks each cell 1 when p < alpha, else 0
func (m *CorrelationMatrix) Significance(alpha float64) [][]int {
	out := make([][]int, len(m.Rows))
	for i := range m.Rows {
		out[i] = make([]int, len(m.Cols))
		for j := range m.Cols {
			if m.P[i][j] < alpha {
				out[i][j] = 1
			}
		}
	}
	return out
}

// SignificantCount is the number of cells with p < alpha
func (m *CorrelationMatrix) SignificantCount(alpha float64) int {
	n := 0
	for _, row := range m.Significance(alpha) {
		for _, v := range row {
			n += v
		}
	}
	return n
}

// Pairs flattens the matrix row by row, skipping undefined cells
func (m *CorrelationMatrix) Pairs() []Pair {
	var out []Pair
	for i, r := range m.Rows {
		for j, c := range m.Cols {
			if math.IsNaN(m.R[i][j]) {
				continue
			}
			out = append(out, Pair{Row: r, Col: c, R: m.R[i][j], PValue: m.P[i][j]})
		}
	}
	return out
}

// Top returns the n strongest pairs by |r|
func (m *CorrelationMatrix) Top(n int) []Pair {
	pairs := m.Pairs()
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].R) > math.Abs(pairs[b].R)
	})
	if n < len(pairs) {
		pairs = pairs[:n]
	}
	return pairs
}

// RowMeanAbs is the mean |r| of each row variable across the columns
func (m *CorrelationMatrix) RowMeanAbs() []float64 {
	out := make([]float64, len(m.Rows))
	for i := range m.Rows {
		abs := make([]float64, len(m.Cols))
		for j := range m.Cols {
			abs[j] = math.Abs(m.R[i][j])
		}
		out[i] = stats.Mean(abs)
	}
	return out
}

// ColMeanAbs is the mean |r| of each column variable across the rows
func (m *CorrelationMatrix) ColMeanAbs() []float64 {
	out := make([]float64, len(m.Cols))
	for j := range m.Cols {
		abs := make([]float64, len(m.Rows))
		for i := range m.Rows {
			abs[i] = math.Abs(m.R[i][j])
		}
		out[j] = stats.Mean(abs)
	}
	return out
}

// Lookup returns the cell for a row and column variable
func (m *CorrelationMatrix) Lookup(row, col string) (Pair, bool) {
	for i, r := range m.Rows {
		if r != row {
			continue
		}
		for j, c := range m.Cols {
			if c == col {
				return Pair{Row: r, Col: c, R: m.R[i][j], PValue: m.P[i][j]}, true
			}
		}
	}
	return Pair{}, false
}
