package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/config"
	"littleluxuries/internal/exporter"
	"littleluxuries/internal/infrastructure"
	"littleluxuries/internal/report"
)

func main() {
	configFile := flag.String("config", "", "path to config.yaml")
	baseDir := flag.String("base", "", "base directory for relative data paths")
	input := flag.String("in", "", "search results CSV (defaults to the processed search results)")
	flag.Parse()

	if err := run(*configFile, *baseDir, *input, os.Stdout); err != nil {
		slog.Error("Ranking failed", slog.String("error", err.Error()))
		_ = infrastructure.CloseLogFile()
		os.Exit(1)
	}
	_ = infrastructure.CloseLogFile()
}

// run re-ranks the indicators of a search results file with the configured
// weights and rewrites the Tableau ranking
func run(configFile, baseDir, input string, out io.Writer) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if baseDir != "" {
		cfg.Paths.BaseDir = baseDir
	}
	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if input == "" {
		input = paths.SearchResultsCSV
	}
	results, err := exporter.LoadSearchResults(input)
	if err != nil {
		return err
	}

	rankings := analysis.Rank(results, cfg.Analysis.RankWeights)
	research := exporter.NewResearchExporter(exporter.NewCSVWriter(paths, cfg.Outputs.BOMPrefix))
	if err := research.ExportRanking(exporter.TableauPrefix+config.TableauRankingFile, rankings); err != nil {
		return err
	}

	logger.Info("Ranking written",
		slog.String("input", input),
		slog.Int("indicators", len(rankings)),
		slog.String("output", paths.TableauPath(config.TableauRankingFile)))

	_, err = fmt.Fprintln(out, report.Ranking(rankings))
	return err
}
