package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "LUXURY"

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Sources  SourcesConfig  `yaml:"sources" envconfig:"SOURCES"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Outputs  OutputsConfig  `yaml:"outputs" envconfig:"OUTPUTS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration. Relative
// directories are resolved against BaseDir (the working directory when empty).
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	SourcesDir   string `yaml:"sources_dir" envconfig:"SOURCES_DIR" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR" validate:"required"`
	TableauDir   string `yaml:"tableau_dir" envconfig:"TABLEAU_DIR" validate:"required"`
	VizDir       string `yaml:"viz_dir" envconfig:"VIZ_DIR" validate:"required"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// SourcesConfig names the input files of a run
type SourcesConfig struct {
	TrendsWorkbook string `yaml:"trends_workbook" envconfig:"TRENDS_WORKBOOK" validate:"required"`
	// HeaderRow is the zero-based row holding the column names; the source
	// workbook carries a title in its first row.
	HeaderRow   int      `yaml:"header_row" envconfig:"HEADER_ROW" validate:"gte=0"`
	TrendsStart string   `yaml:"trends_start" envconfig:"TRENDS_START" validate:"datetime=2006-01-02"`
	FREDSeries  []string `yaml:"fred_series" envconfig:"FRED_SERIES"`
	RetailFile  string   `yaml:"retail_file" envconfig:"RETAIL_FILE"`
}

// AnalysisConfig holds the statistical knobs of the pipeline
type AnalysisConfig struct {
	// Acceptable absolute factor loading band and refit cap used when
	// pruning indicator terms.
	LoadingLower  float64 `yaml:"loading_lower" envconfig:"LOADING_LOWER" validate:"gte=0,ltfield=LoadingUpper"`
	LoadingUpper  float64 `yaml:"loading_upper" envconfig:"LOADING_UPPER" validate:"gt=0,lte=1"`
	MaxIterations int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"min=1"`

	Alpha            float64 `yaml:"alpha" envconfig:"ALPHA" validate:"gt=0,lt=1"`
	TargetColumn     string  `yaml:"target_column" envconfig:"TARGET_COLUMN" validate:"required"`
	MinOverlapMonths int     `yaml:"min_overlap_months" envconfig:"MIN_OVERLAP_MONTHS" validate:"gte=3"`
	TopCorrelations  int     `yaml:"top_correlations" envconfig:"TOP_CORRELATIONS" validate:"min=1"`

	RankWeights RankWeights `yaml:"rank_weights" envconfig:"RANK_WEIGHTS"`

	Indicators []Indicator         `yaml:"indicators" ignored:"true" validate:"dive"`
	Economic   []EconomicIndicator `yaml:"economic" ignored:"true" validate:"dive"`
}

// RankWeights weights the per-metric ranks in the composite indicator ranking
type RankWeights struct {
	RSquared    float64 `yaml:"r_squared" envconfig:"R_SQUARED" validate:"gte=0"`
	PValue      float64 `yaml:"p_value" envconfig:"P_VALUE" validate:"gte=0"`
	FStatistic  float64 `yaml:"f_statistic" envconfig:"F_STATISTIC" validate:"gte=0"`
	Coefficient float64 `yaml:"coefficient" envconfig:"COEFFICIENT" validate:"gte=0"`
}

// OutputsConfig controls what a run writes besides the CSV datasets
type OutputsConfig struct {
	Charts      bool   `yaml:"charts" envconfig:"CHARTS"`
	ChartWidth  int    `yaml:"chart_width" envconfig:"CHART_WIDTH" validate:"min=200"`
	ChartHeight int    `yaml:"chart_height" envconfig:"CHART_HEIGHT" validate:"min=200"`
	BOMPrefix   bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
	HistoryDB   string `yaml:"history_db" envconfig:"HISTORY_DB"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	Traces      bool   `yaml:"traces" envconfig:"TRACES"`
}

// Load builds the configuration from defaults, an optional YAML file and
// LUXURY_* environment variables, in increasing order of precedence.
// An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints and normalises the logging section
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/analysis.log"
	}

	seen := make(map[string]bool, len(c.Analysis.Indicators))
	for _, ind := range c.Analysis.Indicators {
		if seen[ind.Name] {
			return fmt.Errorf("duplicate indicator %q", ind.Name)
		}
		seen[ind.Name] = true
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/analysis.log",
		},
		Paths: PathsConfig{
			SourcesDir:   "Data_Sources",
			ProcessedDir: "Processed_Data",
			TableauDir:   "Tableau_Data",
			VizDir:       "Viz",
			LogsDir:      "logs",
		},
		Sources: SourcesConfig{
			TrendsWorkbook: "All_Variables_Us_Data_Sheet1.xlsx",
			HeaderRow:      1,
			TrendsStart:    "2004-01-01",
			FREDSeries:     DefaultFREDSeriesIDs(),
			RetailFile:     "spending_patterns_detailed.csv",
		},
		Analysis: AnalysisConfig{
			LoadingLower:     0.3,
			LoadingUpper:     0.95,
			MaxIterations:    3,
			Alpha:            0.05,
			TargetColumn:     "cci",
			MinOverlapMonths: 10,
			TopCorrelations:  20,
			RankWeights: RankWeights{
				RSquared:    0.4,
				PValue:      0.3,
				FStatistic:  0.2,
				Coefficient: 0.1,
			},
			Indicators: DefaultIndicators(),
			Economic:   DefaultEconomicIndicators(),
		},
		Outputs: OutputsConfig{
			Charts:      true,
			ChartWidth:  1600,
			ChartHeight: 1000,
			HistoryDB:   "runs.db",
			MetricsFile: "analysis_metrics.prom",
			Traces:      true,
		},
	}
}
