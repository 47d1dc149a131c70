package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format written to every dataset
const DateLayout = "2006-01-02"

// dateColumns are the header names recognised as the row date, in priority order
var dateColumns = []string{"date", "Date", "observation_date"}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
}

// ParseDate parses the date formats found in the source files
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseNumber parses a numeric cell. Thousands separators are removed;
// an empty cell is NaN.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// FormatNumber renders a value with the shortest representation that reads
// back to the same float64. Missing values become an empty cell.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the frame with a leading date column
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"date"}, f.order...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for i, d := range f.dates {
		record[0] = d.Format(DateLayout)
		for j, name := range f.order {
			if v, ok := f.values[name]; ok {
				record[j+1] = FormatNumber(v[i])
			} else {
				record[j+1] = f.labels[name][i]
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a frame. The date column is located by name; a column is
// numeric when every non-empty cell parses as a number, otherwise it is
// kept as labels.
//
// Column kinds are not recorded in the file, so a WriteCSV/ReadCSV round
// trip does not preserve them for every label column: a label column whose
// cells are all blank, or all look like numbers (such as "2008"), reads back
// as numeric, with blanks as NaN.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrNoDateColumn)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	dateIdx := -1
	for _, name := range dateColumns {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				dateIdx = i
				break
			}
		}
		if dateIdx >= 0 {
			break
		}
	}
	if dateIdx < 0 {
		return nil, ErrNoDateColumn
	}

	rows := records[1:]
	dates := make([]time.Time, len(rows))
	for i, row := range rows {
		if dateIdx >= len(row) {
			return nil, fmt.Errorf("row %d: missing date", i+2)
		}
		d, err := ParseDate(row[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		dates[i] = d
	}

	f := NewFrame(dates)
	for j, name := range header {
		if j == dateIdx {
			continue
		}
		name = strings.TrimSpace(name)

		cells := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}

		if values, ok := parseNumeric(cells); ok {
			err = f.SetColumn(name, values)
		} else {
			err = f.SetLabels(name, cells)
		}
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

func parseNumeric(cells []string) ([]float64, bool) {
	values := make([]float64, len(cells))
	for i, c := range cells {
		v, err := ParseNumber(c)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// SaveCSV writes the frame to path, creating parent directories and
// overwriting an existing file
func (f *Frame) SaveCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := f.WriteCSV(file); err != nil {
		return err
	}
	return file.Close()
}

// LoadCSV reads a frame from path
func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}
