package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"littleluxuries/internal/analysis"
	"littleluxuries/internal/charts"
	"littleluxuries/internal/config"
	"littleluxuries/internal/dataset"
	apperrors "littleluxuries/internal/errors"
	"littleluxuries/internal/exporter"
	"littleluxuries/internal/factor"
	"littleluxuries/internal/infrastructure"
	"littleluxuries/internal/retail"
	"littleluxuries/internal/sources"
	"littleluxuries/internal/stats"
	"littleluxuries/internal/store"
	"littleluxuries/internal/validation"
)

// Environment is everything the analysis steps share: configuration,
// resolved paths and the writers for datasets, charts and history
type Environment struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	Metrics *infrastructure.PipelineMetrics

	CSV      *exporter.CSVWriter
	Research *exporter.ResearchExporter
	Tableau  *exporter.TableauExporter
	Charts   *charts.Renderer
	Inputs   *validation.InputValidator

	// Store is nil when run history is disabled.
	Store *store.Store
}

// NewEnvironment wires the exporters and chart renderer for cfg
func NewEnvironment(cfg *config.Config, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Environment {
	if logger == nil {
		logger = slog.Default()
	}
	w := exporter.NewCSVWriter(paths, cfg.Outputs.BOMPrefix)
	return &Environment{
		Config:   cfg,
		Paths:    paths,
		Logger:   logger,
		Metrics:  metrics,
		CSV:      w,
		Research: exporter.NewResearchExporter(w),
		Tableau:  exporter.NewTableauExporter(w, cfg.Analysis.TargetColumn),
		Charts:   charts.NewRenderer(cfg.Outputs.ChartWidth, cfg.Outputs.ChartHeight, logger),
		Inputs:   validation.NewInputValidator(logger),
	}
}

func (e *Environment) target() string {
	return e.Config.Analysis.TargetColumn
}

func (e *Environment) alpha() float64 {
	return e.Config.Analysis.Alpha
}

func (e *Environment) stepLogger(id string) *slog.Logger {
	return e.Logger.With(slog.String("step", id))
}

// FactorConfig maps the analysis settings onto the factor extractor
func (e *Environment) FactorConfig() factor.Config {
	fc := factor.DefaultConfig()
	a := e.Config.Analysis
	if a.LoadingUpper > 0 {
		fc.LoadingLower = a.LoadingLower
		fc.LoadingUpper = a.LoadingUpper
	}
	if a.MaxIterations > 0 {
		fc.MaxIterations = a.MaxIterations
	}
	return fc
}

// RegisterAnalysisSteps registers the full analysis pipeline. Steps are
// registered so that optional retail output exists before charts and
// history run.
func RegisterAnalysisSteps(registry *Registry, env *Environment) error {
	steps := []Step{
		NewSourcesStage(env),
		NewMasterStage(env),
		NewScoresStage(env),
		NewSearchStage(env),
		NewCorrelationsStage(env),
		NewRankingStage(env),
		NewRetailStage(env),
		NewTableauStage(env),
		NewChartsStage(env),
		NewHistoryStage(env),
	}
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			return err
		}
	}
	return registry.ValidateDependencies()
}

// SourcesStage loads the trends workbook and the FRED series
type SourcesStage struct {
	BaseStage
	env    *Environment
	logger *slog.Logger
}

// NewSourcesStage creates the source loading step
func NewSourcesStage(env *Environment) *SourcesStage {
	return &SourcesStage{
		BaseStage: NewBaseStage(StageIDSources, StageNameSources, nil),
		env:       env,
		logger:    env.stepLogger(StageIDSources),
	}
}

// Validate requires the trends workbook; FRED series are optional
func (s *SourcesStage) Validate(state *OperationState) error {
	path := s.env.Paths.SourcePath(s.env.Config.Sources.TrendsWorkbook)
	if err := s.env.Inputs.ValidateWorkbook(path); err != nil {
		if apperrors.IsNotFound(err) {
			return fmt.Errorf("trends workbook not found: %s", path)
		}
		return err
	}

	_, missing, err := s.env.Inputs.SeriesFiles(s.env.Paths.SourcesDir, s.env.Config.Sources.FREDSeries)
	if err != nil {
		return err
	}
	if step := state.GetStage(s.ID()); step != nil && len(missing) > 0 {
		step.SetMetadata("missing_series", missing)
	}
	return nil
}

// Execute loads the inputs into the state
func (s *SourcesStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())
	src := s.env.Config.Sources

	start, err := time.Parse("2006-01-02", src.TrendsStart)
	if err != nil {
		start = time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	trends, err := sources.LoadTrends(s.env.Paths.SourcePath(src.TrendsWorkbook), sources.TrendsOptions{
		HeaderRow: src.HeaderRow,
		Start:     start,
	}, s.logger)
	if err != nil {
		return err
	}
	s.env.Metrics.RecordRows("trends", trends.Len())
	step.UpdateProgress(50, "trends loaded")

	series, err := sources.LoadFRED(ctx, s.env.Paths.SourcesDir, src.FREDSeries, s.logger)
	if err != nil {
		return fmt.Errorf("failed to load FRED series: %w", err)
	}
	for _, sr := range series {
		s.env.Metrics.RecordRows("fred_"+sr.ID, sr.Frame.Len())
	}

	state.Artifacts.Trends = trends
	state.Artifacts.FRED = series
	step.SetMetadata("trend_months", trends.Len())
	step.SetMetadata("fred_series", len(series))
	return nil
}

// MasterStage merges trends and FRED into the master dataset
type MasterStage struct {
	BaseStage
	env    *Environment
	logger *slog.Logger
}

// NewMasterStage creates the master dataset step
func NewMasterStage(env *Environment) *MasterStage {
	return &MasterStage{
		BaseStage: NewBaseStage(StageIDMaster, StageNameMaster, []string{StageIDSources}),
		env:       env,
		logger:    env.stepLogger(StageIDMaster),
	}
}

// Validate checks the trends were loaded
func (s *MasterStage) Validate(state *OperationState) error {
	if state.Artifacts.Trends == nil {
		return errors.New("no trends loaded")
	}
	return nil
}

// Execute builds, categorises and writes the master dataset
func (s *MasterStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())

	master, err := analysis.BuildMaster(state.Artifacts.Trends, state.Artifacts.FRED)
	if err != nil {
		return err
	}
	if err := analysis.AddCategories(master, s.env.target()); err != nil {
		return err
	}
	if err := s.env.Research.ExportFrame(config.MasterDatasetFile, master); err != nil {
		return err
	}

	state.Artifacts.Master = master
	s.env.Metrics.RecordRows("master", master.Len())
	step.AddOutput(s.env.Paths.MasterCSV)
	step.SetMetadata("months", master.Len())
	step.SetMetadata("columns", len(master.Columns()))
	s.logger.InfoContext(ctx, "master dataset built",
		slog.Int("months", master.Len()),
		slog.Int("columns", len(master.Columns())))
	return nil
}

// ScoresStage builds one latent score per fashion indicator
type ScoresStage struct {
	BaseStage
	env    *Environment
	logger *slog.Logger
}

// NewScoresStage creates the latent score step
func NewScoresStage(env *Environment) *ScoresStage {
	return &ScoresStage{
		BaseStage: NewBaseStage(StageIDScores, StageNameScores, []string{StageIDMaster}),
		env:       env,
		logger:    env.stepLogger(StageIDScores),
	}
}

// Validate checks the master dataset exists
func (s *ScoresStage) Validate(state *OperationState) error {
	if state.Artifacts.Master == nil {
		return errors.New("no master dataset")
	}
	return nil
}

// Execute extracts the scores indicator by indicator and adds the derived
// features
func (s *ScoresStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())
	master := state.Artifacts.Master
	indicators := s.env.Config.Analysis.Indicators
	fc := s.env.FactorConfig()

	progress := NewProgressTracker(step, len(indicators))
	var reports []analysis.LatentReport
	for _, ind := range indicators {
		if err := ctx.Err(); err != nil {
			return err
		}
		built, err := analysis.BuildLatentScores(master, []config.Indicator{ind}, fc, s.logger)
		if err != nil {
			return err
		}
		for _, r := range built {
			s.env.Metrics.RecordFactor(r.Indicator.Name, string(r.Result.State), r.Result.Iterations, len(r.Result.Removed))
		}
		reports = append(reports, built...)
		progress.Increment(ind.Name)
	}
	if len(reports) == 0 {
		return errors.New("no indicator has enough search terms for a score")
	}

	scoreCols := make([]string, len(reports))
	for i, r := range reports {
		scoreCols[i] = r.ScoreColumn()
	}
	if err := analysis.AddFeatures(master, scoreCols, s.env.target()); err != nil {
		return err
	}
	if err := s.env.Research.ExportFrame(config.ScoresFile, master); err != nil {
		return err
	}

	state.Artifacts.Latent = reports
	state.Artifacts.ScoreColumns = scoreCols
	step.AddOutput(s.env.Paths.ProcessedPath(config.ScoresFile))
	step.SetMetadata("scores", len(reports))
	step.SetMetadata("skipped_indicators", len(indicators)-len(reports))
	s.logger.InfoContext(ctx, "latent scores built", slog.String("progress", progress.Summary()))
	return nil
}

// SearchStage regresses the target on every indicator score
type SearchStage struct {
	BaseStage
	env    *Environment
	logger *slog.Logger
}

// NewSearchStage creates the search regression step
func NewSearchStage(env *Environment) *SearchStage {
	return &SearchStage{
		BaseStage: NewBaseStage(StageIDSearch, StageNameSearch, []string{StageIDScores}),
		env:       env,
		logger:    env.stepLogger(StageIDSearch),
	}
}

// Validate checks scores exist
func (s *SearchStage) Validate(state *OperationState) error {
	if len(state.Artifacts.Latent) == 0 {
		return errors.New("no latent scores")
	}
	return nil
}

// Execute runs the regressions and writes the results
func (s *SearchStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())

	results, err := analysis.AnalyzeSearch(state.Artifacts.Master, state.Artifacts.Latent, s.env.target(), s.env.alpha())
	if err != nil {
		return err
	}
	if err := s.env.Research.ExportSearchResults(config.SearchResultsFile, results, false); err != nil {
		return err
	}
	if err := s.env.Research.ExportSearchResults(exporter.TableauPrefix+config.TableauSearchResultsFile, results, true); err != nil {
		return err
	}

	state.Artifacts.Search = results
	significant := analysis.CountSignificant(results)
	step.AddOutput(s.env.Paths.SearchResultsCSV)
	step.AddOutput(s.env.Paths.TableauPath(config.TableauSearchResultsFile))
	step.SetMetadata("indicators", len(results))
	step.SetMetadata("significant", significant)
	s.logger.InfoContext(ctx, "search regressions complete",
		slog.Int("indicators", len(results)),
		slog.Int("significant", significant))
	return nil
}

// CorrelationsStage correlates every score with every economic indicator
type CorrelationsStage struct {
	BaseStage
	env    *Environment
	logger *slog.Logger
}

// NewCorrelationsStage creates the correlation matrix step
func NewCorrelationsStage(env *Environment) *CorrelationsStage {
	return &CorrelationsStage{
		BaseStage: NewBaseStage(StageIDCorrelations, StageNameCorrelations, []string{StageIDScores}),
		env:       env,
		logger:    env.stepLogger(StageIDCorrelations),
	}
}

// Validate checks scores exist
func (s *CorrelationsStage) Validate(state *OperationState) error {
	if len(state.Artifacts.ScoreColumns) == 0 {
		return errors.New("no latent scores")
	}
	return nil
}

// Execute writes the r, p-value, binary and top-pair datasets
func (s *CorrelationsStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())

	econ := make([]string, 0, len(s.env.Config.Analysis.Economic))
	for _, e := range s.env.Config.Analysis.Economic {
		econ = append(econ, e.Column)
	}
	m, err := analysis.NewCorrelationMatrix(state.Artifacts.Master, state.Artifacts.ScoreColumns, econ)
	if err != nil {
		return err
	}
	if err := s.env.Research.ExportCorrelations(m, s.env.alpha()); err != nil {
		return err
	}
	top := m.Top(s.env.Config.Analysis.TopCorrelations)
	if err := s.env.Research.ExportTopCorrelations(config.TopCorrelationsFile, top); err != nil {
		return err
	}

	state.Artifacts.Correlations = m
	for _, name := range []string{config.CorrelationsFile, config.PValueMatrixFile, config.BinaryMatrixFile, config.TopCorrelationsFile} {
		step.AddOutput(s.env.Paths.ProcessedPath(name))
	}
	significant := m.SignificantCount(s.env.alpha())
	step.SetMetadata("pairs", len(m.Rows)*len(m.Cols))
	step.SetMetadata("significant", significant)
	s.logger.InfoContext(ctx, "correlation matrix complete",
		slog.Int("indicators", len(m.Rows)),
		slog.Int("economic", len(m.Cols)),
		slog.Int("significant", significant))
	return nil
}

// RankingStage ranks the indicators by their regression metrics
type RankingStage struct {
	BaseStage
	env *Environment
}

// NewRankingStage creates the ranking step
func NewRankingStage(env *Environment) *RankingStage {
	return &RankingStage{
		BaseStage: NewBaseStage(StageIDRanking, StageNameRanking, []string{StageIDSearch}),
		env:       env,
	}
}

// Execute ranks and writes the ranking dataset
func (s *RankingStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())

	rankings := analysis.Rank(state.Artifacts.Search, s.env.Config.Analysis.RankWeights)
	if err := s.env.Research.ExportRanking(exporter.TableauPrefix+config.TableauRankingFile, rankings); err != nil {
		return err
	}

	state.Artifacts.Rankings = rankings
	step.AddOutput(s.env.Paths.TableauPath(config.TableauRankingFile))
	if len(rankings) > 0 {
		step.SetMetadata("top_indicator", rankings[0].Indicator)
	}
	return nil
}

// RetailStage analyses the optional transaction log
type RetailStage struct {
	BaseStage
	env    *Environment
	logger *slog.Logger
}

// NewRetailStage creates the purchase behaviour step
func NewRetailStage(env *Environment) *RetailStage {
	return &RetailStage{
		BaseStage: NewBaseStage(StageIDRetail, StageNameRetail, []string{StageIDScores}),
		env:       env,
		logger:    env.stepLogger(StageIDRetail),
	}
}

func (s *RetailStage) path() string {
	return s.env.Paths.SourcePath(s.env.Config.Sources.RetailFile)
}

// Validate skips the step when no transaction log is configured or present
func (s *RetailStage) Validate(state *OperationState) error {
	if s.env.Config.Sources.RetailFile == "" {
		return SkipStep("no retail file configured")
	}
	if err := s.env.Inputs.ValidateCSV(s.path()); err != nil {
		if apperrors.IsNotFound(err) {
			return SkipStep("retail file %s not available", s.path())
		}
		return err
	}
	return nil
}

// Execute categorises the purchases and writes the purchase datasets
func (s *RetailStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())
	a := s.env.Config.Analysis

	txns, err := sources.LoadTransactions(s.path())
	if err != nil {
		return err
	}
	purchases := retail.Categorize(txns)
	s.env.Metrics.RecordRows("transactions", len(purchases))

	processed := s.env.Paths.ProcessedPath(config.RetailProcessedFile)
	if err := s.env.Tableau.ExportPurchases(config.RetailProcessedFile, purchases); err != nil {
		return err
	}
	step.AddOutput(processed)

	summary := retail.MonthlySummary(purchases)
	bins := retail.PricePoints(purchases)
	if err := s.env.Tableau.ExportPurchaseSummary(summary); err != nil {
		return err
	}
	if err := s.env.Tableau.ExportPriceAnalysis(bins); err != nil {
		return err
	}
	if err := s.env.Tableau.ExportCategoryByPeriod(retail.CategoryByPeriod(purchases)); err != nil {
		return err
	}
	for _, name := range []string{config.TableauPurchaseSummaryFile, config.TableauPriceAnalysisFile, config.TableauCategoryPeriodFile} {
		step.AddOutput(s.env.Paths.TableauPath(name))
	}

	cmp, err := retail.CompareSearchVsPurchase(state.Artifacts.Master, summary, a.TargetColumn, a.MinOverlapMonths)
	if err != nil {
		return err
	}
	written, err := s.env.Tableau.ExportSearchVsPurchase(cmp)
	if err != nil {
		return err
	}
	if written {
		step.AddOutput(s.env.Paths.TableauPath(config.TableauSearchVsPurchaseFile))
	}

	state.Artifacts.Purchases = purchases
	state.Artifacts.Monthly = summary
	state.Artifacts.PriceBins = bins
	state.Artifacts.Comparison = cmp

	step.SetMetadata("transactions", len(purchases))
	step.SetMetadata("overlap_months", cmp.Overlap)
	if sweet, ok := retail.SweetSpot(bins); ok {
		step.SetMetadata("sweet_spot", sweet.Label)
	}
	for _, total := range retail.Distribution(purchases) {
		if total.Type == retail.TypeLittleLuxury {
			step.SetMetadata("luxury_share", total.Share)
			step.SetMetadata("luxury_spend", total.TotalSpent)
		}
	}
	for _, assoc := range cmp.Associations {
		s.logger.InfoContext(ctx, "search vs purchase",
			slog.String("series", assoc.Series),
			slog.String("against", assoc.Against),
			slog.Float64("r", assoc.R),
			slog.Float64("p_value", assoc.PValue),
			slog.Bool("significant", assoc.Significant(a.Alpha)))
	}
	return nil
}

// TableauStage writes the dashboard datasets
type TableauStage struct {
	BaseStage
	env *Environment
}

// NewTableauStage creates the dashboard export step
func NewTableauStage(env *Environment) *TableauStage {
	return &TableauStage{
		BaseStage: NewBaseStage(StageIDTableau, StageNameTableau, []string{StageIDSearch}),
		env:       env,
	}
}

// Execute writes main, temporal, category, explorer, summary and lagged
// datasets
func (s *TableauStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())
	master := state.Artifacts.Master
	results := state.Artifacts.Search
	t := s.env.Tableau

	lagged, err := analysis.Lagged(master, state.Artifacts.ScoreColumns, s.env.target())
	if err != nil {
		return err
	}

	writes := []struct {
		files []string
		write func() error
	}{
		{[]string{config.TableauMainFile}, func() error { return t.ExportFrame(config.TableauMainFile, master) }},
		{[]string{config.TableauTemporalFile}, func() error { return t.ExportTemporal(master, state.Artifacts.ScoreColumns) }},
		{[]string{config.TableauCategoryFile}, func() error { return t.ExportCategoryComparison(results, s.env.alpha()) }},
		{[]string{config.TableauCorrelationFile, config.TableauCorrelationMetrics}, func() error { return t.ExportCorrelationExplorer(master, results) }},
		{[]string{config.TableauSummaryFile}, func() error { return t.ExportSummary(t.GenerateSummary(master, results)) }},
		{[]string{config.TableauLaggedFile}, func() error { return t.ExportFrame(config.TableauLaggedFile, lagged) }},
	}

	progress := NewProgressTracker(step, len(writes))
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.write(); err != nil {
			return err
		}
		for _, f := range w.files {
			step.AddOutput(s.env.Paths.TableauPath(f))
		}
		progress.Increment(w.files[0])
	}

	state.Artifacts.Lagged = lagged
	return nil
}

// ChartsStage draws the PNG figures
type ChartsStage struct {
	BaseStage
	env    *Environment
	logger *slog.Logger
}

// NewChartsStage creates the chart step
func NewChartsStage(env *Environment) *ChartsStage {
	return &ChartsStage{
		BaseStage: NewBaseStage(StageIDCharts, StageNameCharts, []string{StageIDRanking, StageIDCorrelations}),
		env:       env,
		logger:    env.stepLogger(StageIDCharts),
	}
}

// Validate skips the step when charts are turned off
func (s *ChartsStage) Validate(state *OperationState) error {
	if !s.env.Config.Outputs.Charts {
		return SkipStep("charts disabled")
	}
	return nil
}

type chartJob struct {
	file string
	draw func(path string) error
}

func (s *ChartsStage) jobs(state *OperationState) []chartJob {
	r := s.env.Charts
	art := state.Artifacts
	master := art.Master
	target := s.env.target()
	alpha := s.env.alpha()

	jobs := []chartJob{
		{config.ChartRankingFile, func(p string) error { return r.Ranking(p, art.Rankings) }},
		{config.ChartHeatmapFile, func(p string) error { return r.CorrelationHeatmap(p, art.Correlations) }},
		{config.ChartBinaryFile, func(p string) error { return r.SignificanceHeatmap(p, art.Correlations, alpha) }},
		{config.ChartTopCorrFile, func(p string) error {
			return r.TopCorrelations(p, art.Correlations.Top(s.env.Config.Analysis.TopCorrelations))
		}},
	}

	if len(art.Rankings) > 0 {
		best := art.Rankings[0].Indicator
		scoreCol := best + "_score"
		jobs = append(jobs,
			chartJob{config.ChartTimeSeriesFile, func(p string) error {
				return r.TimeSeries(p, "Consumer Confidence vs "+best, master.Dates(), timeSeriesLines(master, target, scoreCol, s.env.Config.Analysis))
			}},
			chartJob{config.ChartScatterFile, func(p string) error {
				x, _ := master.Column(scoreCol)
				y, _ := master.Column(target)
				return r.Scatter(p, best+" vs "+s.env.Config.Analysis.EconomicLabel(target), best, s.env.Config.Analysis.EconomicLabel(target), x, y)
			}},
		)
	}
	if len(art.PriceBins) > 0 {
		jobs = append(jobs, chartJob{config.ChartPurchaseFile, func(p string) error { return r.PricePoints(p, art.PriceBins) }})
	}
	return jobs
}

// timeSeriesLines plots the target and the best score on the left axis
// and unemployment, when present, on the right
func timeSeriesLines(f *dataset.Frame, target, scoreCol string, a config.AnalysisConfig) []charts.Line {
	var lines []charts.Line
	if v, ok := f.Column(target); ok {
		lines = append(lines, charts.Line{Name: a.EconomicLabel(target), Values: v})
	}
	if v, ok := f.Column(scoreCol); ok {
		lines = append(lines, charts.Line{Name: analysis.IndicatorName(scoreCol), Values: scaleTo(v, f, target)})
	}
	if v, ok := f.Column("unemployment_rate"); ok {
		lines = append(lines, charts.Line{Name: a.EconomicLabel("unemployment_rate"), Values: v, Secondary: true})
	}
	return lines
}

// scaleTo rescales standardised scores onto the target's mean and spread
// so both share an axis
func scaleTo(v []float64, f *dataset.Frame, target string) []float64 {
	t, ok := f.Column(target)
	if !ok {
		return v
	}
	mean, sd := stats.Mean(t), stats.SampleStdDev(t)
	if math.IsNaN(sd) {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = mean + x*sd
	}
	return out
}

// Execute renders every chart; a chart with nothing to plot is skipped
func (s *ChartsStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())
	jobs := s.jobs(state)

	progress := NewProgressTracker(step, len(jobs))
	drawn := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := s.env.Paths.VizPath(job.file)
		err := job.draw(path)
		switch {
		case errors.Is(err, charts.ErrNoData):
			s.logger.WarnContext(ctx, "chart skipped", slog.String("chart", job.file), slog.String("reason", err.Error()))
		case err != nil:
			return fmt.Errorf("chart %s: %w", job.file, err)
		default:
			step.AddOutput(path)
			drawn++
		}
		progress.Increment(job.file)
	}
	step.SetMetadata("charts", drawn)
	return nil
}

// HistoryStage stores the run in the history database
type HistoryStage struct {
	BaseStage
	env *Environment
}

// NewHistoryStage creates the run history step
func NewHistoryStage(env *Environment) *HistoryStage {
	return &HistoryStage{
		BaseStage: NewBaseStage(StageIDHistory, StageNameHistory, []string{StageIDRanking, StageIDCorrelations}),
		env:       env,
	}
}

// Validate skips the step without a history database
func (s *HistoryStage) Validate(state *OperationState) error {
	if s.env.Store == nil {
		return SkipStep("run history disabled")
	}
	return nil
}

// Execute saves the ranking and the significant correlations
func (s *HistoryStage) Execute(ctx context.Context, state *OperationState) error {
	step := state.GetStage(s.ID())
	art := state.Artifacts

	var pairs []analysis.Pair
	for _, p := range art.Correlations.Pairs() {
		if p.PValue < s.env.alpha() {
			pairs = append(pairs, p)
		}
	}

	run, err := s.env.Store.SaveRun(ctx, store.RunRecord{
		ID:         state.ID,
		StartedAt:  state.StartTime,
		FinishedAt: time.Now(),
		Status:     string(OperationStatusCompleted),
		Target:     s.env.target(),
		Months:     art.Master.Len(),
		Rankings:   art.Rankings,
		Pairs:      pairs,
	})
	if err != nil {
		return err
	}
	step.SetMetadata("stored_results", len(run.Results))
	step.SetMetadata("stored_correlations", len(run.Correlations))
	return nil
}
