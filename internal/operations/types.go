package operations

import (
	"time"
)

// Analysis step identifiers
const (
	StageIDSources      = "sources"
	StageIDMaster       = "master"
	StageIDScores       = "scores"
	StageIDSearch       = "search"
	StageIDCorrelations = "correlations"
	StageIDRanking      = "ranking"
	StageIDRetail       = "retail"
	StageIDTableau      = "tableau"
	StageIDCharts       = "charts"
	StageIDHistory      = "history"
)

// Analysis step names
const (
	StageNameSources      = "Load Sources"
	StageNameMaster       = "Master Dataset"
	StageNameScores       = "Latent Search Scores"
	StageNameSearch       = "Search Regressions"
	StageNameCorrelations = "Fashion/Economic Correlations"
	StageNameRanking      = "Indicator Ranking"
	StageNameRetail       = "Purchase Behaviour"
	StageNameTableau      = "Tableau Datasets"
	StageNameCharts       = "Charts"
	StageNameHistory      = "Run History"
)

// Default timeouts
const (
	DefaultStageTimeout  = 10 * time.Minute
	DefaultSourceTimeout = 2 * time.Minute
)
