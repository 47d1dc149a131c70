package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"littleluxuries/internal/dataset"
	apperrors "littleluxuries/internal/errors"
)

// maxConcurrentLoads bounds the goroutines reading FRED files
const maxConcurrentLoads = 4

// Series is one loaded FRED series
type Series struct {
	ID    string
	Frame *dataset.Frame
}

// LoadFREDSeries reads a FRED CSV export (observation_date,<ID>). FRED
// writes "." for a missing observation.
func LoadFREDSeries(path, id string) (*dataset.Frame, error) {
	if err := statSource("FRED series "+id, path); err != nil {
		return nil, err
	}

	frame, err := dataset.LoadCSV(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse FRED series "+id, err).WithContext("path", path)
	}
	if !frame.Has(id) {
		return nil, apperrors.NewParsingError(fmt.Sprintf("FRED file has no %s column", id), dataset.ErrUnknownColumn).
			WithContext("path", path)
	}

	if !frame.IsNumeric(id) {
		labels, _ := frame.Labels(id)
		values := make([]float64, len(labels))
		for i, cell := range labels {
			if strings.TrimSpace(cell) == "." {
				values[i] = math.NaN()
				continue
			}
			v, err := dataset.ParseNumber(cell)
			if err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("bad %s value on row %d", id, i+2), err).
					WithContext("path", path)
			}
			values[i] = v
		}
		if err := frame.SetColumn(id, values); err != nil {
			return nil, err
		}
	}

	return frame.Select(id)
}

// LoadFRED loads the series <dir>/<id>.csv concurrently. Missing files are
// logged and skipped; any other failure cancels the remaining loads. The
// result keeps the order of ids.
func LoadFRED(ctx context.Context, dir string, ids []string, logger *slog.Logger) ([]Series, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loaded := make([]*dataset.Frame, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, id+".csv")
			frame, err := LoadFREDSeries(path, id)
			if errors.Is(err, ErrSourceNotFound) {
				logger.Warn("FRED series not found, skipping", "series", id, "path", path)
				return nil
			}
			if err != nil {
				return err
			}
			logger.Debug("FRED series loaded", "series", id, "observations", frame.Len())
			loaded[i] = frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Series, 0, len(ids))
	for i, frame := range loaded {
		if frame != nil {
			out = append(out, Series{ID: ids[i], Frame: frame})
		}
	}
	logger.Info("FRED series loaded", "requested", len(ids), "loaded", len(out))
	return out, nil
}
