package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(start string, n int) []time.Time {
	t0, err := time.Parse(DateLayout, start)
	if err != nil {
		panic(err)
	}
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t0.AddDate(0, i, 0)
	}
	return out
}

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame(monthly("2020-01-01", 4))
	require.NoError(t, f.SetColumn("cci", []float64{100, 99.5, math.NaN(), 98}))
	require.NoError(t, f.SetLabels("period", []string{"Normal", "COVID-19 Crisis", "COVID-19 Crisis", "Normal"}))
	require.NoError(t, f.SetColumn("score", []float64{0.1, -0.2, 0.3, 0.4}))
	return f
}

func TestFrame_Columns(t *testing.T) {
	f := sampleFrame(t)

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, []string{"cci", "period", "score"}, f.Columns())
	assert.Equal(t, []string{"cci", "score"}, f.NumericColumns())
	assert.True(t, f.Has("period"))
	assert.False(t, f.IsNumeric("period"))
	assert.False(t, f.Has("missing"))

	col, ok := f.Column("score")
	require.True(t, ok)
	col[0] = 42
	assert.Equal(t, 0.1, f.Value("score", 0), "Column returns a copy")
	assert.True(t, math.IsNaN(f.Value("missing", 0)))

	_, err := f.MustColumn("missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	labels, ok := f.Labels("period")
	require.True(t, ok)
	assert.Equal(t, "COVID-19 Crisis", labels[1])
}

func TestFrame_SetColumnLengthCheck(t *testing.T) {
	f := sampleFrame(t)
	assert.ErrorIs(t, f.SetColumn("short", []float64{1}), ErrLengthMismatch)
	assert.ErrorIs(t, f.SetLabels("short", []string{"a"}), ErrLengthMismatch)
}

func TestFrame_ReplaceKeepsPosition(t *testing.T) {
	f := sampleFrame(t)

	require.NoError(t, f.SetColumn("cci", []float64{1, 2, 3, 4}))
	require.NoError(t, f.SetColumn("period", []float64{0, 1, 1, 0}))

	assert.Equal(t, []string{"cci", "period", "score"}, f.Columns())
	assert.True(t, f.IsNumeric("period"))
	_, ok := f.Labels("period")
	assert.False(t, ok)
}

func TestFrame_DropRenameSelect(t *testing.T) {
	f := sampleFrame(t)

	require.NoError(t, f.Rename("score", "Lipstick Index_score"))
	assert.Equal(t, []string{"cci", "period", "Lipstick Index_score"}, f.Columns())

	assert.ErrorIs(t, f.Rename("nope", "x"), ErrUnknownColumn)
	assert.ErrorIs(t, f.Rename("cci", "period"), ErrDuplicateColumn)
	assert.NoError(t, f.Rename("cci", "cci"))

	sel, err := f.Select("Lipstick Index_score", "cci")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lipstick Index_score", "cci"}, sel.Columns())

	_, err = f.Select("cci", "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	f.Drop("period", "nope")
	assert.Equal(t, []string{"cci", "Lipstick Index_score"}, f.Columns())
	assert.False(t, f.Has("period"))
}

func TestFrame_Clone(t *testing.T) {
	f := sampleFrame(t)
	c := f.Clone()

	require.NoError(t, c.SetColumn("cci", []float64{0, 0, 0, 0}))
	c.Drop("period")

	assert.Equal(t, 100.0, f.Value("cci", 0))
	assert.True(t, f.Has("period"))
	assert.Equal(t, f.Dates(), c.Dates())
}

func TestFrame_CompleteRows(t *testing.T) {
	f := sampleFrame(t)

	complete, err := f.CompleteRows("cci", "score")
	require.NoError(t, err)
	assert.Equal(t, 3, complete.Len())
	assert.Equal(t, time.April, complete.Date(2).Month())

	labels, _ := complete.Labels("period")
	assert.Equal(t, []string{"Normal", "COVID-19 Crisis", "Normal"}, labels)

	_, err = f.CompleteRows("nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFrame_MergeLeft(t *testing.T) {
	left := NewFrame(monthly("2020-01-01", 3))
	require.NoError(t, left.SetColumn("cci", []float64{1, 2, 3}))

	// FRED observations are stamped mid-month in some exports
	right := NewFrame([]time.Time{
		time.Date(2020, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, right.SetColumn("UNRATE", []float64{3.5, 4.4, 9.9, 6.4}))
	require.NoError(t, right.SetLabels("note", []string{"a", "b", "c", "d"}))

	merged, err := left.MergeLeft(right)
	require.NoError(t, err)

	assert.Equal(t, 3, merged.Len())
	assert.Equal(t, []string{"cci", "UNRATE", "note"}, merged.Columns())

	unrate, _ := merged.Column("UNRATE")
	assert.True(t, math.IsNaN(unrate[0]))
	assert.Equal(t, 3.5, unrate[1])
	assert.Equal(t, 4.4, unrate[2], "first row of a month wins")

	notes, _ := merged.Labels("note")
	assert.Equal(t, []string{"", "a", "b"}, notes)

	assert.False(t, left.Has("UNRATE"), "receiver is not modified")

	_, err = left.MergeLeft(left)
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestFrame_ShiftAndPctChange(t *testing.T) {
	f := NewFrame(monthly("2020-01-01", 5))
	require.NoError(t, f.SetColumn("cpi", []float64{100, 110, 0, 121, 133.1}))

	lag, err := f.Shift("cpi", 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(lag[0]))
	assert.True(t, math.IsNaN(lag[1]))
	assert.Equal(t, 100.0, lag[2])

	lead, err := f.Shift("cpi", -1)
	require.NoError(t, err)
	assert.Equal(t, 110.0, lead[0])
	assert.True(t, math.IsNaN(lead[4]))

	pct, err := f.PctChange("cpi", 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(pct[0]))
	assert.InDelta(t, 0.1, pct[1], 1e-12)
	assert.True(t, math.IsNaN(pct[3]), "zero base")
	assert.InDelta(t, 0.1, pct[4], 1e-12)

	_, err = f.Shift("nope", 1)
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = f.PctChange("nope", 1)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFrame_FillMean(t *testing.T) {
	f := sampleFrame(t)
	require.NoError(t, f.FillMean("cci"))

	assert.InDelta(t, 99.166667, f.Value("cci", 2), 1e-6)
	assert.ErrorIs(t, f.FillMean("nope"), ErrUnknownColumn)
}

func TestFrame_Filter(t *testing.T) {
	f := sampleFrame(t)
	covid := f.Filter(func(i int) bool { return f.Date(i).Month() == time.February })
	assert.Equal(t, 1, covid.Len())
	assert.Equal(t, 99.5, covid.Value("cci", 0))

	none := f.Filter(func(int) bool { return false })
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, f.Columns(), none.Columns())
}
