package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV_RoundTrip(t *testing.T) {
	f := sampleFrame(t)
	require.NoError(t, f.SetColumn("tiny", []float64{1e-7, 0.1 + 0.2, -3, 1234567.891}))

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "date,cci,period,score,tiny", lines[0])
	assert.Equal(t, "2020-03-01,,COVID-19 Crisis,0.3,-3", lines[3])

	back, err := ReadCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, f.Columns(), back.Columns())
	assert.Equal(t, f.Dates(), back.Dates())
	for _, name := range f.NumericColumns() {
		want, _ := f.Column(name)
		got, _ := back.Column(name)
		for i := range want {
			if math.IsNaN(want[i]) {
				assert.True(t, math.IsNaN(got[i]), "%s[%d]", name, i)
				continue
			}
			assert.Equal(t, want[i], got[i], "%s[%d]", name, i)
		}
	}
	labels, _ := back.Labels("period")
	want, _ := f.Labels("period")
	assert.Equal(t, want, labels)
}

func TestCSV_RoundTripNumericLookingLabels(t *testing.T) {
	f := NewFrame([]time.Time{
		time.Date(2008, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2008, 10, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, f.SetLabels("year", []string{"2008", "2008"}))
	require.NoError(t, f.SetLabels("note", []string{"", ""}))
	require.NoError(t, f.SetLabels("period", []string{"Great Recession", ""}))

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))
	back, err := ReadCSV(&buf)
	require.NoError(t, err)

	assert.True(t, back.IsNumeric("year"))
	assert.Equal(t, 2008.0, back.Value("year", 1))
	assert.True(t, back.IsNumeric("note"))
	assert.True(t, math.IsNaN(back.Value("note", 0)))
	assert.False(t, back.IsNumeric("period"))
}

func TestReadCSV_Variants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		check   func(t *testing.T, f *Frame)
	}{
		{
			name:  "FRED export with BOM",
			input: "\ufeffobservation_date,UNRATE\n2020-01-01,3.5\n2020-02-01,3.5\n2020-03-01,4.4\n",
			check: func(t *testing.T, f *Frame) {
				assert.Equal(t, []string{"UNRATE"}, f.Columns())
				assert.Equal(t, 4.4, f.Value("UNRATE", 2))
			},
		},
		{
			name:  "capitalised date and thousands separators",
			input: "Date,retail,label\n1/1/2020,\"12,345\",x\n2/1/2020,,y\n",
			check: func(t *testing.T, f *Frame) {
				assert.Equal(t, time.February, f.Date(1).Month())
				assert.Equal(t, 12345.0, f.Value("retail", 0))
				assert.True(t, math.IsNaN(f.Value("retail", 1)))
				assert.False(t, f.IsNumeric("label"))
			},
		},
		{
			name:  "date column not first",
			input: "cci,date\n101.2,2004-01\n",
			check: func(t *testing.T, f *Frame) {
				assert.Equal(t, time.January, f.Date(0).Month())
				assert.Equal(t, 101.2, f.Value("cci", 0))
			},
		},
		{
			name:    "no date column",
			input:   "month,cci\n1,100\n",
			wantErr: ErrNoDateColumn,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrNoDateColumn,
		},
		{
			name:  "bad date",
			input: "date,cci\nyesterday,1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ReadCSV(strings.NewReader(tt.input))
			if tt.check == nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func TestSaveLoadCSV(t *testing.T) {
	f := sampleFrame(t)
	path := filepath.Join(t.TempDir(), "Processed_Data", "master.csv")

	require.NoError(t, f.SaveCSV(path))
	// overwrite unconditionally
	require.NoError(t, f.SaveCSV(path))

	back, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 4, back.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "", FormatNumber(math.NaN()))
	assert.Equal(t, "0.1", FormatNumber(0.1))
	assert.Equal(t, "1000000", FormatNumber(1e6))
	assert.Equal(t, "-2.5", FormatNumber(-2.5))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2020-03-01", "2020-03", "3/1/2020", "03/01/2020", "2020-03-01 00:00:00"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, KeyOf(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)), KeyOf(d), s)
	}
}
