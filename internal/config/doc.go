// Package config provides configuration management for the analysis toolkit.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern LUXURY_<SECTION>_<FIELD>:
//
//	LUXURY_LOGGING_LEVEL=debug
//	LUXURY_ANALYSIS_LOADING_LOWER=0.25
//	LUXURY_ANALYSIS_MAX_ITERATIONS=5
//	LUXURY_SOURCES_FRED_SERIES=CPILFESL,UNRATE
//	LUXURY_OUTPUTS_CHARTS=false
//
// The indicator catalogue can only be overridden from the YAML file.
//
// # Path Management
//
// Paths resolves the source and output directories against a base directory:
//
//	paths, err := config.GetPaths(cfg.Paths)
//	workbook := paths.SourcePath(cfg.Sources.TrendsWorkbook)
//	out := paths.TableauPath(config.TableauSearchResultsFile)
package config
