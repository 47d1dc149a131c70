package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetrics_WriteMetrics(t *testing.T) {
	tel, err := InitializeTelemetry(TelemetryConfig{}, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx := context.Background()
	tel.Metrics.RecordStep(ctx, "load_sources", 150*time.Millisecond, nil)
	tel.Metrics.RecordStep(ctx, "latent_scores", 2*time.Second, errors.New("boom"))
	tel.Metrics.RecordRows("master", 240)
	tel.Metrics.RecordFactor("Lipstick Index", "accepted", 2, 1)

	path := filepath.Join(t.TempDir(), "out", "metrics.prom")
	require.NoError(t, tel.WriteMetrics(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, `luxury_dataset_rows{dataset="master"} 240`)
	assert.Contains(t, text, `luxury_factor_pruned_columns_total{indicator="Lipstick Index"} 1`)
	assert.Contains(t, text, `luxury_factor_iterations{indicator="Lipstick Index",state="accepted"} 2`)
	assert.Contains(t, text, "step_duration")
	assert.Contains(t, text, "step_runs")
	assert.Contains(t, text, "step_failures")
	assert.Contains(t, text, "latent_scores")
}

func TestPipelineMetrics_NilIsNoop(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordStep(context.Background(), "x", time.Second, nil)
		m.RecordRows("x", 1)
		m.RecordFactor("x", "accepted", 1, 0)
	})
}
