package store

import "time"

// AnalysisRun is one pipeline execution
type AnalysisRun struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	StartedAt   time.Time `json:"started_at" gorm:"index"`
	FinishedAt  time.Time `json:"finished_at"`
	Status      string    `json:"status"`
	Target      string    `json:"target"`
	Months      int       `json:"months"`
	Indicators  int       `json:"indicators"`
	Significant int       `json:"significant"`
	BestName    string    `json:"best_indicator"`
	BestR2      float64   `json:"best_r_squared"`

	Results      []IndicatorResult `json:"results" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Correlations []CorrelationPair `json:"correlations" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// IndicatorResult is the regression of the target on one indicator score
type IndicatorResult struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	RunID       string  `json:"run_id" gorm:"index"`
	Rank        int     `json:"rank"`
	Indicator   string  `json:"indicator"`
	Category    string  `json:"category"`
	Coefficient float64 `json:"coefficient"`
	RSquared    float64 `json:"r_squared"`
	PValue      float64 `json:"p_value"`
	FStatistic  float64 `json:"f_statistic"`
	Significant bool    `json:"significant"`
	Tier        string  `json:"tier"`
}

// CorrelationPair is a significant fashion/economic correlation
type CorrelationPair struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	RunID     string  `json:"run_id" gorm:"index"`
	Indicator string  `json:"indicator"`
	Economic  string  `json:"economic"`
	R         float64 `json:"r"`
	PValue    float64 `json:"p_value"`
}
