package sources

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"littleluxuries/internal/dataset"
	apperrors "littleluxuries/internal/errors"
)

// TrendsOptions describes the layout of the trends workbook
type TrendsOptions struct {
	// Sheet defaults to the first sheet of the workbook.
	Sheet string
	// HeaderRow is the zero-based row holding column names; rows above it
	// are titles.
	HeaderRow int
	// Start is the first month used when the workbook has no usable dates.
	Start time.Time
}

// LoadTrends reads the Google Trends workbook: one row per month, a date
// column, the consumer confidence index and one column per search term.
func LoadTrends(path string, opts TrendsOptions, logger *slog.Logger) (*dataset.Frame, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := statSource("trends workbook", path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, notFound("trends workbook", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet "+sheet, err).WithContext("path", path)
	}

	frame, err := parseTrendRows(rows, opts, logger)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid trends workbook", err).WithContext("path", path)
	}

	logger.Info("trends workbook loaded",
		"path", path,
		"sheet", sheet,
		"months", frame.Len(),
		"columns", len(frame.Columns()))
	return frame, nil
}

func parseTrendRows(rows [][]string, opts TrendsOptions, logger *slog.Logger) (*dataset.Frame, error) {
	if opts.HeaderRow < 0 || opts.HeaderRow >= len(rows) {
		return nil, fmt.Errorf("header row %d outside %d rows", opts.HeaderRow, len(rows))
	}

	header := uniqueHeader(rows[opts.HeaderRow])

	var data [][]string
	for _, row := range rows[opts.HeaderRow+1:] {
		if !blankRow(row) {
			data = append(data, row)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no data rows below header")
	}

	dateIdx := -1
	for i, h := range header {
		if strings.EqualFold(h, "date") {
			dateIdx = i
			break
		}
	}

	dates, ok := trendDates(data, dateIdx)
	if !ok {
		logger.Warn("workbook dates missing or unparseable, synthesising monthly dates",
			"start", opts.Start.Format(dataset.DateLayout),
			"months", len(data))
		dates = MonthlyDates(opts.Start, len(data))
	}

	frame := dataset.NewFrame(dates)
	for j, name := range header {
		if j == dateIdx || name == "" {
			continue
		}
		values := make([]float64, len(data))
		for i, row := range data {
			values[i] = math.NaN()
			if j < len(row) {
				if v, err := dataset.ParseNumber(row[j]); err == nil {
					values[i] = v
				}
			}
		}
		if name == "cci" {
			if n := RepairCCI(values); n > 0 {
				logger.Info("rescaled consumer confidence values", "count", n)
			}
		}
		if err := frame.SetColumn(name, values); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// trendDates parses the date column. Cells may be text dates or Excel
// serial numbers; a single bad cell rejects the whole column.
func trendDates(data [][]string, idx int) ([]time.Time, bool) {
	if idx < 0 {
		return nil, false
	}
	dates := make([]time.Time, len(data))
	for i, row := range data {
		if idx >= len(row) {
			return nil, false
		}
		d, err := parseCellDate(row[idx])
		if err != nil {
			return nil, false
		}
		dates[i] = d
	}
	return dates, true
}

func parseCellDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return dataset.ParseDate(cell)
}

// MonthlyDates returns n month starts beginning at start
func MonthlyDates(start time.Time, n int) []time.Time {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = first.AddDate(0, i, 0)
	}
	return out
}

// RepairCCI fixes consumer confidence values that lost their decimal point
// in the spreadsheet export: values above 1000 are divided by 1000, then,
// when values between 150 and 1000 remain, those above 200 are divided by
// 100. It returns the number of values changed.
func RepairCCI(values []float64) int {
	changed := 0
	for i, v := range values {
		if v > 1000 {
			values[i] = v / 1000
			changed++
		}
	}

	suspicious := false
	for _, v := range values {
		if v > 150 && v < 1000 {
			suspicious = true
			break
		}
	}
	if !suspicious {
		return changed
	}
	for i, v := range values {
		if v > 200 {
			values[i] = v / 100
			changed++
		}
	}
	return changed
}

// uniqueHeader trims names and suffixes repeats with .1, .2, ...
func uniqueHeader(row []string) []string {
	seen := make(map[string]int, len(row))
	out := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		out[i] = h
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
