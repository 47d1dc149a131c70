package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"littleluxuries/internal/config"
	"littleluxuries/internal/infrastructure"
	"littleluxuries/internal/operations"
	"littleluxuries/internal/report"
	"littleluxuries/internal/store"
	"littleluxuries/internal/validation"
)

type options struct {
	configFile      string
	baseDir         string
	noCharts        bool
	continueOnError bool
	historyDB       string
	recentRuns      int
	runID           string
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "path to config.yaml (searched in the usual places when empty)")
	flag.StringVar(&opts.baseDir, "base", "", "base directory for relative data paths (defaults to the working directory)")
	flag.BoolVar(&opts.noCharts, "no-charts", false, "skip chart rendering")
	flag.BoolVar(&opts.continueOnError, "continue-on-error", false, "keep running independent steps after a failure")
	flag.StringVar(&opts.historyDB, "history", "", "sqlite run history database (overrides outputs.history_db)")
	flag.IntVar(&opts.recentRuns, "recent", 5, "stored runs listed in the summary when a history database is open")
	flag.StringVar(&opts.runID, "run-id", "", "run identifier (generated when empty)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("Analysis failed", slog.String("error", err.Error()))
		_ = infrastructure.CloseLogFile()
		os.Exit(1)
	}
	_ = infrastructure.CloseLogFile()
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.baseDir != "" {
		cfg.Paths.BaseDir = opts.baseDir
	}
	if opts.noCharts {
		cfg.Outputs.Charts = false
	}
	if opts.historyDB != "" {
		cfg.Outputs.HistoryDB = opts.historyDB
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	if cfg.Logging.FilePath != "" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = filepath.Join(paths.BaseDir, cfg.Logging.FilePath)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	paths.LogPathResolution()

	inputs := validation.NewInputValidator(logger)
	for _, dir := range []string{paths.ProcessedDir, paths.TableauDir, paths.VizDir} {
		if err := inputs.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}

	tcfg := infrastructure.TelemetryConfig{ServiceVersion: config.AppVersion}
	if cfg.Outputs.Traces {
		tcfg.TracePath = paths.LogPath(config.TracesFile)
	}
	tel, err := infrastructure.InitializeTelemetry(tcfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	env := operations.NewEnvironment(cfg, paths, logger, tel.Metrics)
	var st *store.Store
	if cfg.Outputs.HistoryDB != "" {
		st, err = store.Open(paths.ResolveOutput(cfg.Outputs.HistoryDB), logger)
		if err != nil {
			return err
		}
		defer st.Close()
		env.Store = st
	}

	registry := operations.NewRegistry()
	if err := operations.RegisterAnalysisSteps(registry, env); err != nil {
		return err
	}
	manager := operations.NewManager(registry, operations.NewConfigBuilder().
		WithContinueOnError(opts.continueOnError).
		WithManifest(paths.ManifestJSON).
		WithScanDir("processed", paths.ProcessedDir).
		WithScanDir("tableau", paths.TableauDir).
		WithScanDir("viz", paths.VizDir).
		Build(), logger)
	manager.SetTracer(operations.NewOperationTracer(tel.Tracer, tel.Metrics))

	logger.Info("Starting analysis",
		slog.String("app", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("target", cfg.Analysis.TargetColumn),
		slog.Bool("charts", cfg.Outputs.Charts))

	state := operations.NewOperationState(opts.runID)
	manifest, runErr := manager.Run(ctx, state)

	if path := paths.ResolveOutput(cfg.Outputs.MetricsFile); path != "" {
		if err := tel.WriteMetrics(path); err != nil {
			logger.Warn("failed to write metrics", slog.String("error", err.Error()))
		}
	}

	summary := report.FromRun(state, manifest, cfg.Analysis.TopCorrelations)
	summary.Label = cfg.Analysis.EconomicLabel
	if st != nil && opts.recentRuns > 0 {
		if err := summary.AddHistory(ctx, st, opts.recentRuns); err != nil {
			logger.Warn("failed to load run history", slog.String("error", err.Error()))
		}
	}
	if err := report.Write(out, summary); err != nil {
		return err
	}
	return runErr
}
