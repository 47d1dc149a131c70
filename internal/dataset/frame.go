// Package dataset implements Frame, the monthly time-row table every
// analysis stage reads and writes.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"time"

	"littleluxuries/internal/stats"
)

var (
	// ErrUnknownColumn is returned when a named column does not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrLengthMismatch is returned when a column does not have one value per row.
	ErrLengthMismatch = errors.New("column length does not match row count")
	// ErrDuplicateColumn is returned when a column name is already taken.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrNoDateColumn is returned when a CSV has no recognisable date column.
	ErrNoDateColumn = errors.New("no date column")
)

// Frame is an ordered sequence of dated rows with named numeric columns
// (missing = NaN) and named label columns. Columns keep insertion order.
// Rows have no identity beyond their date; duplicate or unordered dates are
// kept as given.
type Frame struct {
	dates  []time.Time
	order  []string
	values map[string][]float64
	labels map[string][]string
}

// NewFrame creates a frame with the given row dates and no columns
func NewFrame(dates []time.Time) *Frame {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &Frame{
		dates:  d,
		values: make(map[string][]float64),
		labels: make(map[string][]string),
	}
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.dates)
}

// Dates returns a copy of the row dates
func (f *Frame) Dates() []time.Time {
	d := make([]time.Time, len(f.dates))
	copy(d, f.dates)
	return d
}

// Date returns the date of row i
func (f *Frame) Date(i int) time.Time {
	return f.dates[i]
}

// Columns returns all column names in insertion order
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// NumericColumns returns the numeric column names in insertion order
func (f *Frame) NumericColumns() []string {
	out := make([]string, 0, len(f.values))
	for _, name := range f.order {
		if _, ok := f.values[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether a column of either kind exists
func (f *Frame) Has(name string) bool {
	_, num := f.values[name]
	_, lab := f.labels[name]
	return num || lab
}

// IsNumeric reports whether name is a numeric column
func (f *Frame) IsNumeric(name string) bool {
	_, ok := f.values[name]
	return ok
}

// Column returns a copy of a numeric column
func (f *Frame) Column(name string) ([]float64, bool) {
	v, ok := f.values[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

// MustColumn returns a copy of a numeric column or an ErrUnknownColumn error
func (f *Frame) MustColumn(name string) ([]float64, error) {
	v, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return v, nil
}

// Value returns one cell of a numeric column, NaN if the column is absent
func (f *Frame) Value(name string, i int) float64 {
	v, ok := f.values[name]
	if !ok {
		return math.NaN()
	}
	return v[i]
}

// SetColumn adds or replaces a numeric column. A label column of the same
// name is replaced.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != f.Len() {
		return fmt.Errorf("%w: %q has %d values for %d rows", ErrLengthMismatch, name, len(values), f.Len())
	}
	v := make([]float64, len(values))
	copy(v, values)

	if _, ok := f.labels[name]; ok {
		delete(f.labels, name)
	} else if _, ok := f.values[name]; !ok {
		f.order = append(f.order, name)
	}
	f.values[name] = v
	return nil
}

// SetLabels adds or replaces a label column
func (f *Frame) SetLabels(name string, labels []string) error {
	if len(labels) != f.Len() {
		return fmt.Errorf("%w: %q has %d labels for %d rows", ErrLengthMismatch, name, len(labels), f.Len())
	}
	l := make([]string, len(labels))
	copy(l, labels)

	if _, ok := f.values[name]; ok {
		delete(f.values, name)
	} else if _, ok := f.labels[name]; !ok {
		f.order = append(f.order, name)
	}
	f.labels[name] = l
	return nil
}

// Labels returns a copy of a label column
func (f *Frame) Labels(name string) ([]string, bool) {
	l, ok := f.labels[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(l))
	copy(out, l)
	return out, true
}

// Drop removes the named columns; unknown names are ignored
func (f *Frame) Drop(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
		delete(f.values, n)
		delete(f.labels, n)
	}
	kept := f.order[:0]
	for _, n := range f.order {
		if !drop[n] {
			kept = append(kept, n)
		}
	}
	f.order = kept
}

// Rename renames a column in place, keeping its position
func (f *Frame) Rename(from, to string) error {
	if from == to {
		if !f.Has(from) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, from)
		}
		return nil
	}
	if !f.Has(from) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, from)
	}
	if f.Has(to) {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, to)
	}

	if v, ok := f.values[from]; ok {
		f.values[to] = v
		delete(f.values, from)
	} else {
		f.labels[to] = f.labels[from]
		delete(f.labels, from)
	}
	for i, n := range f.order {
		if n == from {
			f.order[i] = to
		}
	}
	return nil
}

// Select returns a new frame holding only the named columns, in the given order
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := NewFrame(f.dates)
	for _, n := range names {
		if err := out.copyColumn(f, n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (f *Frame) copyColumn(src *Frame, name string) error {
	if v, ok := src.values[name]; ok {
		return f.SetColumn(name, v)
	}
	if l, ok := src.labels[name]; ok {
		return f.SetLabels(name, l)
	}
	return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// Clone returns a deep copy
func (f *Frame) Clone() *Frame {
	out, _ := f.Select(f.order...)
	return out
}

// Filter returns a new frame with the rows for which keep returns true
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	var rows []int
	for i := range f.dates {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.take(rows)
}

func (f *Frame) take(rows []int) *Frame {
	dates := make([]time.Time, len(rows))
	for j, i := range rows {
		dates[j] = f.dates[i]
	}
	out := NewFrame(dates)
	for _, name := range f.order {
		if v, ok := f.values[name]; ok {
			col := make([]float64, len(rows))
			for j, i := range rows {
				col[j] = v[i]
			}
			out.values[name] = col
		} else {
			l := f.labels[name]
			col := make([]string, len(rows))
			for j, i := range rows {
				col[j] = l[i]
			}
			out.labels[name] = col
		}
		out.order = append(out.order, name)
	}
	return out
}

// CompleteRows returns the rows where none of the named numeric columns is missing
func (f *Frame) CompleteRows(cols ...string) (*Frame, error) {
	series := make([][]float64, len(cols))
	for k, c := range cols {
		v, ok := f.values[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		series[k] = v
	}

	return f.Filter(func(i int) bool {
		for _, s := range series {
			if math.IsNaN(s[i]) {
				return false
			}
		}
		return true
	}), nil
}

// MonthKey identifies a calendar month
type MonthKey struct {
	Year  int
	Month time.Month
}

// KeyOf returns the calendar month of t
func KeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// MergeLeft joins other's columns onto f by calendar month. Every row of f
// is kept; rows without a match get NaN or an empty label. When other has
// several rows in the same month the first one is used. Column names must
// not collide.
func (f *Frame) MergeLeft(other *Frame) (*Frame, error) {
	for _, n := range other.order {
		if f.Has(n) {
			return nil, fmt.Errorf("%w: %q present on both sides", ErrDuplicateColumn, n)
		}
	}

	index := make(map[MonthKey]int, other.Len())
	for i, d := range other.dates {
		k := KeyOf(d)
		if _, seen := index[k]; !seen {
			index[k] = i
		}
	}

	out := f.Clone()
	for _, name := range other.order {
		if v, ok := other.values[name]; ok {
			col := make([]float64, f.Len())
			for i, d := range f.dates {
				if j, ok := index[KeyOf(d)]; ok {
					col[i] = v[j]
				} else {
					col[i] = math.NaN()
				}
			}
			out.values[name] = col
		} else {
			l := other.labels[name]
			col := make([]string, f.Len())
			for i, d := range f.dates {
				if j, ok := index[KeyOf(d)]; ok {
					col[i] = l[j]
				}
			}
			out.labels[name] = col
		}
		out.order = append(out.order, name)
	}
	return out, nil
}

// Shift returns the column moved down by k rows (k > 0 lags, k < 0 leads).
// Vacated positions are NaN.
func (f *Frame) Shift(name string, k int) ([]float64, error) {
	v, ok := f.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]float64, len(v))
	for i := range out {
		j := i - k
		if j < 0 || j >= len(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v[j]
	}
	return out, nil
}

// PctChange returns the fractional change over k rows. Positions without a
// usable base (missing or zero) are NaN.
func (f *Frame) PctChange(name string, k int) ([]float64, error) {
	base, err := f.Shift(name, k)
	if err != nil {
		return nil, err
	}
	v := f.values[name]
	out := make([]float64, len(v))
	for i := range v {
		if math.IsNaN(base[i]) || base[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v[i] - base[i]) / base[i]
	}
	return out, nil
}

// FillMean replaces missing values in a numeric column with the column mean
func (f *Frame) FillMean(name string) error {
	v, ok := f.values[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	f.values[name] = stats.FillMean(v)
	return nil
}
