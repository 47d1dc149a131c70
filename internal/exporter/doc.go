// Package exporter writes the CSV datasets of a run.
//
// CSVWriter: Core CSV writing functionality with support for headers, streaming,
// frames and UTF-8 BOM for Excel compatibility. Relative paths land in the
// processed directory, or in the Tableau directory when prefixed "tableau/".
//
// ResearchExporter: Search regression results, the indicator ranking, the
// correlation, p-value and binary significance matrices and the top pairs.
//
// TableauExporter: The dashboard datasets: temporal long format, category
// comparison, correlation explorer and metrics, summary KPIs and the
// purchase-behaviour datasets.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, cfg.Outputs.BOMPrefix)
//	research := exporter.NewResearchExporter(w)
//	err := research.ExportSearchResults(config.SearchResultsFile, results, false)
//
//	tableau := exporter.NewTableauExporter(w, "cci")
//	err = tableau.ExportSummary(tableau.GenerateSummary(master, results))
package exporter
