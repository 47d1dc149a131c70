package sources

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "littleluxuries/internal/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var start2004 = time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)

// writeWorkbook saves rows (starting at A1) to a new workbook
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "trends.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTrends(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"US search interest, monthly"},
		{"date", "cci", "lipstick", "red lipstick", ""},
		{"2004-01-01", "101.2", "1,200", 35},
		{"2004-02-01", 100734, "x", 36},
		{"2004-03-01", "99.8", 41, 38},
		{},
	})

	frame, err := LoadTrends(path, TrendsOptions{HeaderRow: 1, Start: start2004}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, frame.Len())
	assert.Equal(t, []string{"cci", "lipstick", "red lipstick"}, frame.Columns())
	assert.Equal(t, time.March, frame.Date(2).Month())

	assert.InDelta(t, 100.734, frame.Value("cci", 1), 1e-9, "decimal point restored")
	assert.Equal(t, 1200.0, frame.Value("lipstick", 0), "thousands separator removed")
	assert.True(t, math.IsNaN(frame.Value("lipstick", 1)), "text becomes missing")
	assert.Equal(t, 38.0, frame.Value("red lipstick", 2))
}

func TestLoadTrends_SynthesisedDates(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
	}{
		{
			name: "no date column",
			rows: [][]interface{}{
				{"title"},
				{"cci", "lipstick"},
				{100, 1}, {101, 2}, {102, 3},
			},
		},
		{
			name: "unparseable dates",
			rows: [][]interface{}{
				{"title"},
				{"date", "cci", "lipstick"},
				{"Jan", 100, 1}, {"Feb", 101, 2}, {"Mar", 102, 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeWorkbook(t, tt.rows)
			frame, err := LoadTrends(path, TrendsOptions{HeaderRow: 1, Start: start2004}, quietLogger())
			require.NoError(t, err)

			require.Equal(t, 3, frame.Len())
			assert.Equal(t, start2004, frame.Date(0))
			assert.Equal(t, time.Date(2004, 3, 1, 0, 0, 0, 0, time.UTC), frame.Date(2))
			assert.False(t, frame.Has("date"))
		})
	}
}

func TestLoadTrends_Errors(t *testing.T) {
	_, err := LoadTrends(filepath.Join(t.TempDir(), "missing.xlsx"), TrendsOptions{}, quietLogger())
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.True(t, apperrors.IsNotFound(err))

	path := writeWorkbook(t, [][]interface{}{{"title"}})
	_, err = LoadTrends(path, TrendsOptions{HeaderRow: 1}, quietLogger())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestRepairCCI(t *testing.T) {
	tests := []struct {
		name    string
		in      []float64
		want    []float64
		changed int
	}{
		{name: "clean", in: []float64{99.1, 101.3}, want: []float64{99.1, 101.3}, changed: 0},
		{name: "thousands", in: []float64{99.1, 101300}, want: []float64{99.1, 101.3}, changed: 1},
		{name: "hundreds", in: []float64{99.1, 160, 250}, want: []float64{99.1, 160, 2.5}, changed: 1},
		{name: "high but plausible", in: []float64{99.1, 180}, want: []float64{99.1, 180}, changed: 0},
		{name: "missing kept", in: []float64{math.NaN(), 100}, want: []float64{math.NaN(), 100}, changed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]float64(nil), tt.in...)
			assert.Equal(t, tt.changed, RepairCCI(got))
			for i := range tt.want {
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got[i]))
					continue
				}
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestMonthlyDates(t *testing.T) {
	dates := MonthlyDates(time.Date(2019, 11, 17, 5, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []time.Time{
		time.Date(2019, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}, dates)
}

func TestLoadFREDSeries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "UNRATE.csv", "observation_date,UNRATE\n2020-01-01,3.5\n2020-02-01,.\n2020-03-01,4.4\n")

	frame, err := LoadFREDSeries(path, "UNRATE")
	require.NoError(t, err)
	assert.Equal(t, []string{"UNRATE"}, frame.Columns())
	assert.True(t, math.IsNaN(frame.Value("UNRATE", 1)))
	assert.Equal(t, 4.4, frame.Value("UNRATE", 2))

	_, err = LoadFREDSeries(path, "PSAVERT")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))

	bad := writeFile(t, dir, "BAD.csv", "observation_date,BAD\n2020-01-01,high\n")
	_, err = LoadFREDSeries(bad, "BAD")
	assert.Error(t, err)
}

func TestLoadFRED(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "CPILFESL.csv", "observation_date,CPILFESL\n2020-01-01,266.0\n2020-02-01,266.6\n")
	writeFile(t, dir, "UNRATE.csv", "observation_date,UNRATE\n2020-01-01,3.5\n")

	series, err := LoadFRED(context.Background(), dir, []string{"UNRATE", "UMCSENT", "CPILFESL"}, quietLogger())
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, "UNRATE", series[0].ID)
	assert.Equal(t, "CPILFESL", series[1].ID)
	assert.Equal(t, 2, series[1].Frame.Len())

	writeFile(t, dir, "PSAVERT.csv", "observation_date\n2020-01-01\n")
	_, err = LoadFRED(context.Background(), dir, []string{"UNRATE", "PSAVERT"}, quietLogger())
	assert.Error(t, err, "a malformed file is not skipped")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LoadFRED(ctx, dir, []string{"UNRATE"}, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadTransactions(t *testing.T) {
	input := "\ufeffCustomer ID,Category,Item,Quantity,Price Per Unit,Total Spent,Payment Method,Location,Transaction Date\n" +
		"CUST_0159,Beauty & Cosmetics,Lipstick,2,12.5,25,Credit Card,Online,2023-05-12\n" +
		"CUST_0017,Groceries,Milk,1,3.2,3.2,Cash,In-store,2023-05-13\n"

	txns, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, Transaction{
		Date:         time.Date(2023, 5, 12, 0, 0, 0, 0, time.UTC),
		CustomerID:   "CUST_0159",
		Category:     "Beauty & Cosmetics",
		Item:         "Lipstick",
		Quantity:     2,
		PricePerUnit: 12.5,
		TotalSpent:   25,
		Payment:      "Credit Card",
		Location:     "Online",
	}, txns[0])

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing column", input: "Customer ID,Category,Transaction Date\nC1,Gifts,2023-01-01\n"},
		{name: "bad date", input: "Customer ID,Category,Total Spent,Transaction Date\nC1,Gifts,5,someday\n"},
		{name: "bad amount", input: "Customer ID,Category,Total Spent,Transaction Date\nC1,Gifts,five,2023-01-01\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTransactions(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadTransactions_Missing(t *testing.T) {
	_, err := LoadTransactions(filepath.Join(t.TempDir(), "spending_patterns_detailed.csv"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}
