package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/config"
	"littleluxuries/internal/dataset"
	"littleluxuries/internal/exporter"
	"littleluxuries/internal/infrastructure"
	"littleluxuries/internal/report"
)

func main() {
	configFile := flag.String("config", "", "path to config.yaml")
	baseDir := flag.String("base", "", "base directory for relative data paths")
	input := flag.String("in", "", "dataset with latent scores (defaults to the processed scores file)")
	top := flag.Int("top", 0, "number of pairs to print (defaults to analysis.top_correlations)")
	flag.Parse()

	if err := run(*configFile, *baseDir, *input, *top, os.Stdout); err != nil {
		slog.Error("Correlation failed", slog.String("error", err.Error()))
		_ = infrastructure.CloseLogFile()
		os.Exit(1)
	}
	_ = infrastructure.CloseLogFile()
}

// run recomputes the fashion/economic correlation datasets from an
// existing scores file
func run(configFile, baseDir, input string, top int, out io.Writer) error {
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
		input = paths.ProcessedPath(config.ScoresFile)
	}
	if top <= 0 {
		top = cfg.Analysis.TopCorrelations
	}

	frame, err := dataset.LoadCSV(input)
	if err != nil {
		return err
	}
	scores := analysis.ScoreColumns(frame)
	econ := make([]string, 0, len(cfg.Analysis.Economic))
	for _, e := range cfg.Analysis.Economic {
		econ = append(econ, e.Column)
	}

	m, err := analysis.NewCorrelationMatrix(frame, scores, econ)
	if err != nil {
		return err
	}

	research := exporter.NewResearchExporter(exporter.NewCSVWriter(paths, cfg.Outputs.BOMPrefix))
	if err := research.ExportCorrelations(m, cfg.Analysis.Alpha); err != nil {
		return err
	}
	pairs := m.Top(top)
	if err := research.ExportTopCorrelations(config.TopCorrelationsFile, pairs); err != nil {
		return err
	}

	logger.Info("Correlations written",
		slog.String("input", input),
		slog.Int("indicators", len(m.Rows)),
		slog.Int("economic", len(m.Cols)),
		slog.Int("observations", m.N),
		slog.Int("significant", m.SignificantCount(cfg.Analysis.Alpha)))

	_, err = fmt.Fprintln(out, report.Correlations(pairs, cfg.Analysis.EconomicLabel))
	return err
}
