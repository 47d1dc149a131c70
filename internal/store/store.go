// Package store keeps the history of analysis runs in a SQLite database:
// one row per run with its indicator regressions and the significant
// fashion/economic correlations, so results can be compared across runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"littleluxuries/internal/analysis"
	apperrors "littleluxuries/internal/errors"
)

// Store is the run history database
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates the
// schema. ":memory:" gives a private in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, apperrors.NewStorageError("failed to create database directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open run history", err)
	}
	if err := db.AutoMigrate(&AnalysisRun{}, &IndicatorResult{}, &CorrelationPair{}); err != nil {
		return nil, apperrors.NewStorageError("failed to migrate run history", err)
	}

	logger.Debug("run history opened", slog.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RunRecord is what a finished run hands to the history
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Target     string
	Months     int
	Rankings   []analysis.Ranking
	// Pairs are the correlations worth keeping, usually the significant ones
	Pairs []analysis.Pair
}

// finite stores NaN as zero; SQLite has no NaN
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SaveRun inserts a run with its results and correlations in one
// transaction
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) (*AnalysisRun, error) {
	if rec.ID == "" {
		return nil, apperrors.NewValidationError("run id is required")
	}

	run := &AnalysisRun{
		ID:         rec.ID,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Status:     rec.Status,
		Target:     rec.Target,
		Months:     rec.Months,
		Indicators: len(rec.Rankings),
	}

	for _, r := range rec.Rankings {
		if r.Significant {
			run.Significant++
		}
		if run.BestName == "" || r.RSquared > run.BestR2 {
			run.BestName, run.BestR2 = r.Indicator, finite(r.RSquared)
		}
		run.Results = append(run.Results, IndicatorResult{
			Rank:        r.Overall,
			Indicator:   r.Indicator,
			Category:    r.Category,
			Coefficient: finite(r.Coefficient),
			RSquared:    finite(r.RSquared),
			PValue:      finite(r.PValue),
			FStatistic:  finite(r.FStatistic),
			Significant: r.Significant,
			Tier:        r.Tier,
		})
	}
	for _, p := range rec.Pairs {
		run.Correlations = append(run.Correlations, CorrelationPair{
			Indicator: analysis.IndicatorName(p.Row),
			Economic:  p.Col,
			R:         finite(p.R),
			PValue:    finite(p.PValue),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to save run %s", rec.ID), err)
	}

	s.logger.InfoContext(ctx, "run saved to history",
		slog.String("run_id", run.ID),
		slog.Int("results", len(run.Results)),
		slog.Int("correlations", len(run.Correlations)))
	return run, nil
}

// Get loads a run with its results (by rank) and correlations
func (s *Store) Get(ctx context.Context, id string) (*AnalysisRun, error) {
	var run AnalysisRun
	err := s.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC, id ASC") }).
		Preload("Correlations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("run "+id, err)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load run", err)
	}
	return &run, nil
}

// Recent lists the latest runs, newest first, without their children
func (s *Store) Recent(ctx context.Context, limit int) ([]AnalysisRun, error) {
	var runs []AnalysisRun
	q := s.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, apperrors.NewStorageError("failed to list runs", err)
	}
	return runs, nil
}

// IndicatorHistory returns an indicator's results across runs, oldest
// run first
func (s *Store) IndicatorHistory(ctx context.Context, indicator string) ([]IndicatorResult, error) {
	var results []IndicatorResult
	err := s.db.WithContext(ctx).
		Joins("JOIN analysis_runs ON analysis_runs.id = indicator_results.run_id").
		Where("indicator_results.indicator = ?", indicator).
		Order("analysis_runs.started_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load indicator history", err)
	}
	return results, nil
}
