package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the directories a run reads from or writes to.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir      string
	SourcesDir   string
	ProcessedDir string
	TableauDir   string
	VizDir       string
	LogsDir      string

	// Well-known files
	MasterCSV        string
	SearchResultsCSV string
	ManifestJSON     string
}

// GetPaths resolves the configured directories. Relative directories are
// joined onto BaseDir, which defaults to the current working directory.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(base, dir)
	}

	p := &Paths{
		BaseDir:      base,
		SourcesDir:   resolve(cfg.SourcesDir),
		ProcessedDir: resolve(cfg.ProcessedDir),
		TableauDir:   resolve(cfg.TableauDir),
		VizDir:       resolve(cfg.VizDir),
		LogsDir:      resolve(cfg.LogsDir),
	}

	p.MasterCSV = filepath.Join(p.ProcessedDir, MasterDatasetFile)
	p.SearchResultsCSV = filepath.Join(p.ProcessedDir, SearchResultsFile)
	p.ManifestJSON = filepath.Join(p.ProcessedDir, ManifestFile)

	return p, nil
}

// EnsureDirectories creates all output directories if they don't exist.
// The sources directory is input only and is never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ProcessedDir,
		p.TableauDir,
		p.VizDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// SourcePath returns the path of an input file
func (p *Paths) SourcePath(filename string) string {
	return filepath.Join(p.SourcesDir, filename)
}

// FREDPath returns the path of the CSV download for a FRED series id
func (p *Paths) FREDPath(seriesID string) string {
	return filepath.Join(p.SourcesDir, seriesID+".csv")
}

// ProcessedPath returns the path for an intermediate dataset
func (p *Paths) ProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDir, filename)
}

// TableauPath returns the path for a Tableau dataset
func (p *Paths) TableauPath(filename string) string {
	return filepath.Join(p.TableauDir, filename)
}

// VizPath returns the path for a chart image
func (p *Paths) VizPath(filename string) string {
	return filepath.Join(p.VizDir, filename)
}

// LogPath returns the path for a log file
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// ResolveOutput returns name unchanged when it is absolute and joins it onto
// the processed directory otherwise. Empty names stay empty.
func (p *Paths) ResolveOutput(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.ProcessedDir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution() {
	slog.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("sources", p.SourcesDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("tableau", p.TableauDir),
			slog.String("viz", p.VizDir),
			slog.String("logs", p.LogsDir),
		))
}
