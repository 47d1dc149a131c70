package config

// Application constants
const (
	AppName    = "Little Luxuries Analyzer"
	AppVersion = "1.0.0"

	// Intermediate datasets
	MasterDatasetFile   = "master_dataset_complete.csv"
	SearchResultsFile   = "search_indicators_results_final.csv"
	ScoresFile          = "data_with_scores.csv"
	CorrelationsFile    = "fashion_economic_correlations.csv"
	PValueMatrixFile    = "fashion_economic_pvalues.csv"
	BinaryMatrixFile    = "binary_significance_matrix.csv"
	TopCorrelationsFile = "fashion_economic_top_correlations.csv"
	RetailProcessedFile = "retail_transactions_processed.csv"
	ManifestFile        = "run_manifest.json"
	TracesFile          = "traces.jsonl"

	// Tableau datasets
	TableauMainFile             = "tableau_main_data_final.csv"
	TableauSearchResultsFile    = "tableau_search_results.csv"
	TableauRankingFile          = "tableau_search_indicators_ranking.csv"
	TableauTemporalFile         = "tableau_temporal_trends.csv"
	TableauCategoryFile         = "tableau_category_comparison.csv"
	TableauCorrelationFile      = "tableau_correlation_explorer.csv"
	TableauCorrelationMetrics   = "tableau_correlation_metrics.csv"
	TableauSummaryFile          = "tableau_summary_stats.csv"
	TableauLaggedFile           = "tableau_lagged_analysis.csv"
	TableauPurchaseSummaryFile  = "tableau_purchase_summary.csv"
	TableauPriceAnalysisFile    = "tableau_price_analysis.csv"
	TableauSearchVsPurchaseFile = "tableau_search_vs_purchase.csv"
	TableauCategoryPeriodFile   = "tableau_category_by_period.csv"

	// Charts
	ChartRankingFile    = "search_indicators_ranking.png"
	ChartHeatmapFile    = "fashion_economic_correlation_heatmap.png"
	ChartBinaryFile     = "binary_significance_matrix.png"
	ChartTopCorrFile    = "fashion_economic_top_correlations.png"
	ChartTimeSeriesFile = "temporal_trends.png"
	ChartScatterFile    = "scatter_top_indicator.png"
	ChartPurchaseFile   = "purchase_behavior_analysis.png"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "analysis.log"
)
