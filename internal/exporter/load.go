package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/dataset"
	apperrors "littleluxuries/internal/errors"
)

// LoadSearchResults reads a search results dataset written by
// ExportSearchResults. Extra columns such as Data_Type are ignored.
func LoadSearchResults(path string) ([]analysis.SearchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(path, err)
	}
	return ReadSearchResults(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
}

// ReadSearchResults parses search results CSV from r
func ReadSearchResults(r io.Reader) ([]analysis.SearchResult, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read search results", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewValidationError("search results file is empty")
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[h] = i
	}
	for _, required := range []string{"Indicator", "R_squared", "Coefficient", "P_value", "F_statistic"} {
		if _, ok := index[required]; !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("search results missing column %s", required))
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	number := func(rec []string, name string, line int) (float64, error) {
		v, err := dataset.ParseNumber(cell(rec, name))
		if err != nil {
			return 0, apperrors.NewParsingError(fmt.Sprintf("line %d: bad %s", line, name), err)
		}
		return v, nil
	}

	results := make([]analysis.SearchResult, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		r := analysis.SearchResult{
			Indicator:   cell(rec, "Indicator"),
			Category:    cell(rec, "Category"),
			Significant: cell(rec, "Significant") == "Yes",
		}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"Coefficient", &r.Coefficient},
			{"Intercept", &r.Intercept},
			{"R_squared", &r.RSquared},
			{"Adj_R_squared", &r.AdjRSquared},
			{"P_value", &r.PValue},
			{"F_statistic", &r.FStatistic},
			{"Std_error", &r.StdError},
		}
		for _, f := range fields {
			v, err := number(rec, f.name, line)
			if err != nil {
				return nil, err
			}
			*f.dst = v
		}
		if s := cell(rec, "Variables_used"); s != "" {
			if r.VariablesUsed, err = strconv.Atoi(s); err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: bad Variables_used", line), err)
			}
		}
		if s := cell(rec, "N"); s != "" {
			if r.N, err = strconv.Atoi(s); err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: bad N", line), err)
			}
		}
		results = append(results, r)
	}
	return results, nil
}
