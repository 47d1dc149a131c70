package operations

import (
	"time"
)

// Config represents the operation execution configuration
type Config struct {
	// Step-specific timeouts
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`

	// Whether to keep running independent steps after a failure
	ContinueOnError bool `json:"continue_on_error"`

	// ManifestPath receives the run manifest; empty disables it
	ManifestPath string `json:"manifest_path"`

	// ScanDirs are globbed into the manifest's available data after the
	// run, keyed by data type
	ScanDirs map[string]string `json:"scan_dirs"`
}

// NewConfig returns the default operation configuration
func NewConfig() *Config {
	return &Config{
		StageTimeouts: map[string]time.Duration{
			StageIDSources: DefaultSourceTimeout,
		},
		ScanDirs: make(map[string]string),
	}
}

// GetStageTimeout returns the timeout for a specific Step
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok && timeout > 0 {
		return timeout
	}
	return DefaultStageTimeout
}

// SetStageTimeout sets the timeout for a specific Step
func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}

// ConfigBuilder provides a fluent interface for building operation configurations
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: NewConfig(),
	}
}

// WithStageTimeout sets the timeout for a Step
func (b *ConfigBuilder) WithStageTimeout(stageID string, timeout time.Duration) *ConfigBuilder {
	b.config.SetStageTimeout(stageID, timeout)
	return b
}

// WithContinueOnError sets whether to continue on errors
func (b *ConfigBuilder) WithContinueOnError(continueOnError bool) *ConfigBuilder {
	b.config.ContinueOnError = continueOnError
	return b
}

// WithManifest sets where the run manifest is written
func (b *ConfigBuilder) WithManifest(path string) *ConfigBuilder {
	b.config.ManifestPath = path
	return b
}

// WithScanDir records the CSV files of dir in the manifest under dataType
func (b *ConfigBuilder) WithScanDir(dataType, dir string) *ConfigBuilder {
	if b.config.ScanDirs == nil {
		b.config.ScanDirs = make(map[string]string)
	}
	b.config.ScanDirs[dataType] = dir
	return b
}

// Build returns the built configuration
func (b *ConfigBuilder) Build() *Config {
	return b.config
}
