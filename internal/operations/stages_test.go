package operations_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"littleluxuries/internal/config"
	"littleluxuries/internal/operations"
	"littleluxuries/internal/store"
)

const testMonths = 60

// analysisFixture lays out a workspace with a trends workbook, two FRED
// series and optionally a transaction log
type analysisFixture struct {
	cfg   *config.Config
	paths *config.Paths
}

func newAnalysisFixture(t *testing.T, withRetail bool) *analysisFixture {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Outputs.ChartWidth = 800
	cfg.Outputs.ChartHeight = 600
	cfg.Analysis.Indicators = []config.Indicator{
		{Name: "Lipstick Index", Category: "Beauty & Cosmetics", Group: "Beauty & Cosmetics",
			Terms: []string{"lip_a", "lip_b", "lip_c"}},
		{Name: "Big Bag", Category: "Accessories", Group: "Accessories",
			Terms: []string{"bag_a", "bag_b", "bag_c"}},
		{Name: "Ghost", Category: "Fashion", Terms: []string{"ghost_a", "ghost_missing"}},
	}

	paths, err := config.GetPaths(cfg.Paths)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	require.NoError(t, os.MkdirAll(paths.SourcesDir, 0755))

	writeTrendsWorkbook(t, paths.SourcePath(cfg.Sources.TrendsWorkbook))
	writeFREDSeries(t, paths)
	if withRetail {
		writeTransactions(t, paths.SourcePath(cfg.Sources.RetailFile))
	}
	return &analysisFixture{cfg: cfg, paths: paths}
}

func monthDate(i int) time.Time {
	return time.Date(2005, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)
}

func latent(i int) float64 {
	return math.Sin(float64(i)/6) + 0.3*math.Cos(float64(i)/2.3)
}

func writeTrendsWorkbook(t *testing.T, path string) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Google Trends, United States"},
		{"date", "cci", "lip_a", "lip_b", "lip_c", "bag_a", "bag_b", "bag_c", "ghost_a"},
	}
	for i := 0; i < testMonths; i++ {
		l := latent(i)
		m := math.Cos(float64(i) / 5)
		row := []interface{}{
			monthDate(i).Format("2006-01-02"),
			100 - 5*l + rng.NormFloat64(),
		}
		for k := 0; k < 3; k++ {
			row = append(row, 50+10*l+6*rng.NormFloat64())
		}
		for k := 0; k < 3; k++ {
			row = append(row, 40+8*m+5*rng.NormFloat64())
		}
		row = append(row, 20+rng.NormFloat64())
		rows = append(rows, row)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func writeFREDSeries(t *testing.T, paths *config.Paths) {
	t.Helper()
	var unrate, cpi strings.Builder
	unrate.WriteString("observation_date,UNRATE\n")
	cpi.WriteString("observation_date,CPILFESL\n")
	for i := 0; i < testMonths; i++ {
		d := monthDate(i).Format("2006-01-02")
		fmt.Fprintf(&unrate, "%s,%.1f\n", d, 6+1.5*latent(i))
		fmt.Fprintf(&cpi, "%s,%.2f\n", d, 200+0.4*float64(i)+0.2*math.Sin(float64(i)))
	}
	require.NoError(t, os.WriteFile(paths.FREDPath("UNRATE"), []byte(unrate.String()), 0644))
	require.NoError(t, os.WriteFile(paths.FREDPath("CPILFESL"), []byte(cpi.String()), 0644))
}

func writeTransactions(t *testing.T, path string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Customer ID,Category,Item,Quantity,Price Per Unit,Total Spent,Payment Method,Location,Transaction Date\n")
	for i := 0; i < 24; i++ {
		d := monthDate(i)
		for k := 0; k < 3; k++ {
			amount := 8 + float64((i*7+k*5)%40)
			fmt.Fprintf(&b, "CUST_%03d,Personal Hygiene,Lipstick,1,%.2f,%.2f,Card,Online,%s\n",
				k, amount, amount, d.AddDate(0, 0, k).Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "CUST_100,Groceries,Bread,1,3,3,Cash,In-store,%s\n", d.Format("2006-01-02"))
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
}

func runAnalysis(t *testing.T, fx *analysisFixture, st *store.Store) (*operations.OperationState, *operations.PipelineManifest, error) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := operations.NewEnvironment(fx.cfg, fx.paths, logger, nil)
	env.Store = st

	registry := operations.NewRegistry()
	require.NoError(t, operations.RegisterAnalysisSteps(registry, env))

	cfg := operations.NewConfigBuilder().
		WithManifest(fx.paths.ManifestJSON).
		WithScanDir("tableau", fx.paths.TableauDir).
		Build()
	manager := operations.NewManager(registry, cfg, logger)

	state := operations.NewOperationState("run-analysis")
	manifest, err := manager.Run(context.Background(), state)
	return state, manifest, err
}

func TestRegisterAnalysisSteps_Order(t *testing.T) {
	fx := newAnalysisFixture(t, false)
	registry := operations.NewRegistry()
	require.NoError(t, operations.RegisterAnalysisSteps(registry, operations.NewEnvironment(fx.cfg, fx.paths, nil, nil)))

	ordered, err := registry.GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{
		operations.StageIDSources,
		operations.StageIDMaster,
		operations.StageIDScores,
		operations.StageIDSearch,
		operations.StageIDCorrelations,
		operations.StageIDRetail,
		operations.StageIDRanking,
		operations.StageIDTableau,
		operations.StageIDCharts,
		operations.StageIDHistory,
	}, stepIDs(ordered))
}

func TestAnalysisPipeline_Full(t *testing.T) {
	fx := newAnalysisFixture(t, true)
	st, err := store.Open(filepath.Join(fx.paths.ProcessedDir, "runs.db"), nil)
	require.NoError(t, err)
	defer st.Close()

	state, manifest, err := runAnalysis(t, fx, st)
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())
	for _, s := range manifest.Stages {
		assert.Equal(t, "completed", s.Status, "step %s: %s %s", s.StageID, s.Message, s.Error)
	}

	art := state.Artifacts
	assert.Equal(t, testMonths, art.Master.Len())
	assert.True(t, art.Master.Has("unemployment_rate"))
	assert.True(t, art.Master.Has("inflation_rate_yoy"))
	assert.Equal(t, []string{"Lipstick Index_score", "Big Bag_score"}, art.ScoreColumns)
	require.Len(t, art.Search, 2)
	require.Len(t, art.Rankings, 2)
	assert.Equal(t, "Lipstick Index", art.Rankings[0].Indicator, "the score driving cci ranks first")
	assert.NotNil(t, art.Correlations)
	assert.NotNil(t, art.Lagged)
	assert.NotEmpty(t, art.Purchases)
	require.NotNil(t, art.Comparison)
	assert.Equal(t, 24, art.Comparison.Overlap)

	assert.Equal(t, 1, state.GetStage(operations.StageIDScores).Metadata["skipped_indicators"])
	// 72 of the 96 transactions are lipstick purchases
	assert.InDelta(t, 75.0, state.GetStage(operations.StageIDRetail).Metadata["luxury_share"], 1e-9)

	for _, path := range []string{
		fx.paths.MasterCSV,
		fx.paths.SearchResultsCSV,
		fx.paths.ManifestJSON,
		fx.paths.ProcessedPath(config.ScoresFile),
		fx.paths.ProcessedPath(config.CorrelationsFile),
		fx.paths.ProcessedPath(config.BinaryMatrixFile),
		fx.paths.ProcessedPath(config.TopCorrelationsFile),
		fx.paths.ProcessedPath(config.RetailProcessedFile),
		fx.paths.TableauPath(config.TableauMainFile),
		fx.paths.TableauPath(config.TableauRankingFile),
		fx.paths.TableauPath(config.TableauSummaryFile),
		fx.paths.TableauPath(config.TableauLaggedFile),
		fx.paths.TableauPath(config.TableauPriceAnalysisFile),
		fx.paths.TableauPath(config.TableauSearchVsPurchaseFile),
		fx.paths.VizPath(config.ChartRankingFile),
		fx.paths.VizPath(config.ChartHeatmapFile),
		fx.paths.VizPath(config.ChartPurchaseFile),
	} {
		assert.FileExists(t, path)
	}

	info, ok := manifest.GetData("tableau")
	require.True(t, ok)
	assert.GreaterOrEqual(t, info.FileCount, 10)

	run, err := st.Get(context.Background(), "run-analysis")
	require.NoError(t, err)
	assert.Equal(t, testMonths, run.Months)
	assert.Len(t, run.Results, 2)
	assert.Equal(t, "Lipstick Index", run.Results[0].Indicator)
}

func TestAnalysisPipeline_OptionalStepsSkipped(t *testing.T) {
	fx := newAnalysisFixture(t, false)
	fx.cfg.Outputs.Charts = false

	state, manifest, err := runAnalysis(t, fx, nil)
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())

	for _, id := range []string{operations.StageIDRetail, operations.StageIDCharts, operations.StageIDHistory} {
		assert.Equal(t, operations.StepStatusSkipped, state.GetStage(id).GetStatus(), id)
	}
	assert.Nil(t, state.Artifacts.Purchases)
	assert.NoFileExists(t, fx.paths.VizPath(config.ChartRankingFile))
	assert.Equal(t, 100, manifest.GetProgress())
}

func TestAnalysisPipeline_MissingWorkbook(t *testing.T) {
	fx := newAnalysisFixture(t, false)
	require.NoError(t, os.Remove(fx.paths.SourcePath(fx.cfg.Sources.TrendsWorkbook)))

	state, _, err := runAnalysis(t, fx, nil)
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	assert.Contains(t, err.Error(), "trends workbook not found")
	assert.Equal(t, operations.StepStatusFailed, state.GetStage(operations.StageIDSources).GetStatus())
	assert.Equal(t, operations.StepStatusSkipped, state.GetStage(operations.StageIDMaster).GetStatus())
	assert.FileExists(t, fx.paths.ManifestJSON)
}
