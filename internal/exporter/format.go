package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"littleluxuries/internal/dataset"
)

var titleCaser = cases.Title(language.English)

// formatFloat renders a statistic at full precision; NaN is an empty cell
func formatFloat(f float64) string {
	return dataset.FormatNumber(f)
}

// formatMoney formats an amount with exactly 2 decimal places
func formatMoney(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool renders a boolean the way pandas does
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatDate(t time.Time) string {
	return t.Format(dataset.DateLayout)
}

// displayName turns an indicator or column name into a dashboard label:
// "high_heel_index" -> "High Heel Index"
func displayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}
