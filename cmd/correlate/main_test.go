package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littleluxuries/internal/config"
	"littleluxuries/internal/dataset"
)

const testConfig = `logging:
  level: warn
  format: text
  output: console
analysis:
  top_correlations: 3
`

func writeScores(t *testing.T, path string) {
	t.Helper()
	const n = 24
	dates := make([]time.Time, n)
	lipstick := make([]float64, n)
	bags := make([]float64, n)
	cci := make([]float64, n)
	unemployment := make([]float64, n)
	for i := range dates {
		dates[i] = time.Date(2010, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)
		x := float64(i)
		lipstick[i] = x + math.Sin(x)
		bags[i] = math.Cos(x * 1.7)
		cci[i] = 100 - 2*x + math.Cos(x)
		unemployment[i] = 5 + 0.3*x + 0.5*math.Sin(2*x)
	}
	f := dataset.NewFrame(dates)
	require.NoError(t, f.SetColumn("Lipstick_score", lipstick))
	require.NoError(t, f.SetColumn("Bags_score", bags))
	require.NoError(t, f.SetColumn("cci", cci))
	require.NoError(t, f.SetColumn("unemployment_rate", unemployment))
	require.NoError(t, f.SaveCSV(path))
}

func TestRun_WritesCorrelationDatasets(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0644))
	input := filepath.Join(base, "scores.csv")
	writeScores(t, input)

	var out bytes.Buffer
	require.NoError(t, run(cfgPath, base, input, 0, &out))

	for _, name := range []string{config.CorrelationsFile, config.PValueMatrixFile, config.BinaryMatrixFile, config.TopCorrelationsFile} {
		assert.FileExists(t, filepath.Join(base, "Processed_Data", name))
	}
	assert.Contains(t, out.String(), "Lipstick")
	assert.Contains(t, out.String(), "Consumer Confidence")
	assert.NotContains(t, out.String(), "Lipstick_score")
}

func TestRun_MissingInput(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0644))

	err := run(cfgPath, base, filepath.Join(base, "none.csv"), 5, &bytes.Buffer{})
	assert.Error(t, err)
}
