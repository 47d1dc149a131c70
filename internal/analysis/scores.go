package analysis

import (
	"fmt"
	"log/slog"

	"littleluxuries/internal/config"
	"littleluxuries/internal/dataset"
	"littleluxuries/internal/factor"
)

// LatentReport describes how one indicator's score was produced
type LatentReport struct {
	Indicator config.Indicator
	// Available are the indicator's terms present in the frame.
	Available []string
	Result    *factor.Result
}

// ScoreColumn is the frame column holding the score
func (r LatentReport) ScoreColumn() string {
	return r.Indicator.ScoreColumn()
}

// BuildLatentScores adds <Indicator>_score to the frame for every indicator
// with at least two search terms present. Indicators with fewer terms are
// skipped.
func BuildLatentScores(f *dataset.Frame, indicators []config.Indicator, cfg factor.Config, logger *slog.Logger) ([]LatentReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	extractor, err := factor.NewExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}

	var reports []LatentReport
	for _, ind := range indicators {
		var available []string
		for _, term := range ind.Terms {
			if f.IsNumeric(term) {
				available = append(available, term)
			}
		}
		if len(available) < 2 {
			logger.Warn("skipping indicator with too few search terms",
				"indicator", ind.Name,
				"available", len(available),
				"required", 2)
			continue
		}

		res, err := extractor.ExtractFrame(f, available)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", ind.Name, err)
		}
		if err := f.SetColumn(ind.ScoreColumn(), res.Scores); err != nil {
			return nil, err
		}

		logger.Info("latent score created",
			"indicator", ind.Name,
			"state", res.State,
			"iterations", res.Iterations,
			"columns", res.Columns,
			"removed", res.Removed,
			"fallback", res.Fallback)
		reports = append(reports, LatentReport{Indicator: ind, Available: available, Result: res})
	}
	return reports, nil
}
