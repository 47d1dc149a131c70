// Package charts renders the PNG figures of a run: indicator ranking and
// top-correlation bars, scatter and time-series plots drawn with go-chart,
// and correlation heatmaps drawn directly onto an RGBA image.
package charts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "littleluxuries/internal/errors"
)

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Default chart size in pixels
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

var (
	colorSignificant   = drawing.ColorFromHex("2e7d32")
	colorInsignificant = drawing.ColorFromHex("9e9e9e")
	colorPositive      = drawing.ColorFromHex("c62828")
	colorNegative      = drawing.ColorFromHex("1565c0")
	colorFit           = drawing.ColorFromHex("d81b60")
)

// Renderer writes charts of a fixed size. Existing files are overwritten.
type Renderer struct {
	width  int
	height int
	logger *slog.Logger
}

// NewRenderer creates a renderer; non-positive sizes fall back to the
// defaults
func NewRenderer(width, height int, logger *slog.Logger) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{width: width, height: height, logger: logger}
}

// Size returns the configured width and height
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// create opens path for writing, creating its directory
func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create chart directory", err).WithContext("path", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create chart file", err).WithContext("path", path)
	}
	return f, nil
}

// save renders a go-chart chart to path as PNG
func (r *Renderer) save(path string, render func(f *os.File) error) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorageError("failed to close chart file", err).WithContext("path", path)
	}

	r.logger.Info("chart saved", slog.String("path", path))
	return nil
}
