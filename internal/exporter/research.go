package exporter

import (
	"fmt"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/config"
	"littleluxuries/internal/dataset"
	"littleluxuries/internal/stats"
)

// ResearchExporter writes the analysis datasets: search regressions,
// indicator ranking and the correlation matrices
type ResearchExporter struct {
	csvWriter *CSVWriter
}

// NewResearchExporter creates a new research dataset exporter
func NewResearchExporter(w *CSVWriter) *ResearchExporter {
	return &ResearchExporter{csvWriter: w}
}

// ExportFrame writes a dataset such as the master or lagged frame
func (e *ResearchExporter) ExportFrame(filePath string, frame *dataset.Frame) error {
	if err := e.csvWriter.WriteFrame(filePath, frame); err != nil {
		return fmt.Errorf("failed to export %s: %w", filePath, err)
	}
	return nil
}

func (e *ResearchExporter) searchHeaders() []string {
	return []string{
		"Indicator", "Category", "Coefficient", "Intercept", "R_squared", "Adj_R_squared",
		"P_value", "F_statistic", "Std_error", "Significant", "Variables_used", "N",
	}
}

func (e *ResearchExporter) searchToCSVRow(r analysis.SearchResult) []string {
	return []string{
		r.Indicator,
		r.Category,
		formatFloat(r.Coefficient),
		formatFloat(r.Intercept),
		formatFloat(r.RSquared),
		formatFloat(r.AdjRSquared),
		formatFloat(r.PValue),
		formatFloat(r.FStatistic),
		formatFloat(r.StdError),
		r.SignificantLabel(),
		formatInt(r.VariablesUsed),
		formatInt(r.N),
	}
}

// ExportSearchResults writes one row per indicator regression. tableau
// marks the rows with the dashboard data type and routes the file to the
// Tableau directory.
func (e *ResearchExporter) ExportSearchResults(filePath string, results []analysis.SearchResult, tableau bool) error {
	headers := e.searchHeaders()
	if tableau {
		headers = append(headers, "Data_Type")
	}

	records := make([][]string, 0, len(results))
	for _, r := range results {
		row := e.searchToCSVRow(r)
		if tableau {
			row = append(row, DataTypeSearch)
		}
		records = append(records, row)
	}
	return e.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

// ExportRanking writes the composite indicator ranking
func (e *ResearchExporter) ExportRanking(filePath string, rankings []analysis.Ranking) error {
	headers := []string{
		"Overall_Rank", "Indicator", "Category", "Tier", "R_squared", "Coefficient", "P_value",
		"F_statistic", "Significance", "R2_Interpretation", "Rank_R_squared", "Rank_Coefficient",
		"Rank_P_value", "Rank_F_statistic", "Composite_Score", "Significant",
	}

	records := make([][]string, 0, len(rankings))
	for _, r := range rankings {
		records = append(records, []string{
			formatInt(r.Overall),
			r.Indicator,
			r.Category,
			r.Tier,
			formatFloat(r.RSquared),
			formatFloat(r.Coefficient),
			formatFloat(r.PValue),
			formatFloat(r.FStatistic),
			r.Stars,
			r.R2Interpretation,
			formatInt(r.RankRSquared),
			formatInt(r.RankCoefficient),
			formatInt(r.RankPValue),
			formatInt(r.RankFStatistic),
			formatFloat(r.Composite),
			r.SignificantLabel(),
		})
	}
	return e.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

// exportMatrix writes a grid with indicator names down the first column
func (e *ResearchExporter) exportMatrix(filePath string, m *analysis.CorrelationMatrix, cell func(i, j int) string) error {
	headers := append([]string{"indicator"}, m.Cols...)
	records := make([][]string, len(m.Rows))
	for i, row := range m.Rows {
		rec := make([]string, 0, len(m.Cols)+1)
		rec = append(rec, analysis.IndicatorName(row))
		for j := range m.Cols {
			rec = append(rec, cell(i, j))
		}
		records[i] = rec
	}
	return e.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

// ExportCorrelations writes the r, p-value and binary significance
// matrices
func (e *ResearchExporter) ExportCorrelations(m *analysis.CorrelationMatrix, alpha float64) error {
	if err := e.exportMatrix(config.CorrelationsFile, m, func(i, j int) string {
		return formatFloat(m.R[i][j])
	}); err != nil {
		return err
	}
	if err := e.exportMatrix(config.PValueMatrixFile, m, func(i, j int) string {
		return formatFloat(m.P[i][j])
	}); err != nil {
		return err
	}
	sig := m.Significance(alpha)
	return e.exportMatrix(config.BinaryMatrixFile, m, func(i, j int) string {
		return formatInt(sig[i][j])
	})
}

// ExportTopCorrelations writes the strongest pairs with their stars
func (e *ResearchExporter) ExportTopCorrelations(filePath string, pairs []analysis.Pair) error {
	headers := []string{"indicator", "economic_variable", "correlation", "p_value", "significance"}
	records := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		records = append(records, []string{
			analysis.IndicatorName(p.Row),
			p.Col,
			formatFloat(p.R),
			formatFloat(p.PValue),
			stats.SignificanceStars(p.PValue),
		})
	}
	return e.csvWriter.WriteSimpleCSV(filePath, headers, records)
}
