package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littleluxuries/internal/analysis"
	apperrors "littleluxuries/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(id string, started time.Time) RunRecord {
	return RunRecord{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Status:     "completed",
		Target:     "cci",
		Months:     120,
		Rankings: []analysis.Ranking{
			{
				SearchResult: analysis.SearchResult{
					Indicator: "Lipstick Index", Category: "Beauty",
					Coefficient: -0.8, RSquared: 0.42, PValue: 0.001, FStatistic: 85, Significant: true,
				},
				Overall: 1, Tier: "Top Tier",
			},
			{
				SearchResult: analysis.SearchResult{
					Indicator: "Designer Bags", Category: "Luxury",
					Coefficient: 0.1, RSquared: math.NaN(), PValue: 0.6, FStatistic: 0.3,
				},
				Overall: 2, Tier: "Second Tier",
			},
		},
		Pairs: []analysis.Pair{
			{Row: "Lipstick Index_score", Col: "unemployment", R: 0.61, PValue: 0.0001},
		},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	saved, err := s.SaveRun(ctx, sampleRecord("run-1", started))
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Indicators)
	assert.Equal(t, 1, saved.Significant)
	assert.Equal(t, "Lipstick Index", saved.BestName)
	assert.InDelta(t, 0.42, saved.BestR2, 1e-12)

	run, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "cci", run.Target)
	assert.Equal(t, 120, run.Months)
	assert.True(t, run.StartedAt.Equal(started))

	require.Len(t, run.Results, 2)
	assert.Equal(t, "Lipstick Index", run.Results[0].Indicator)
	assert.Equal(t, 1, run.Results[0].Rank)
	assert.True(t, run.Results[0].Significant)
	assert.Equal(t, "Designer Bags", run.Results[1].Indicator)
	assert.Zero(t, run.Results[1].RSquared)

	require.Len(t, run.Correlations, 1)
	assert.Equal(t, "Lipstick Index", run.Correlations[0].Indicator)
	assert.Equal(t, "unemployment", run.Correlations[0].Economic)
	assert.InDelta(t, 0.61, run.Correlations[0].R, 1e-12)
}

func TestStore_Validation(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name  string
		setup func() error
		check func(t *testing.T, err error)
	}{
		{
			name: "missing id",
			setup: func() error {
				_, err := s.SaveRun(context.Background(), RunRecord{})
				return err
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			},
		},
		{
			name: "duplicate id",
			setup: func() error {
				rec := sampleRecord("dup", time.Now())
				if _, err := s.SaveRun(context.Background(), rec); err != nil {
					return err
				}
				_, err := s.SaveRun(context.Background(), rec)
				return err
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
			},
		},
		{
			name: "unknown run",
			setup: func() error {
				_, err := s.Get(context.Background(), "nope")
				return err
			},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsNotFound(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup()
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestStore_RecentAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		rec := sampleRecord(id, base.Add(time.Duration(i)*24*time.Hour))
		rec.Rankings[0].RSquared = 0.1 * float64(i+1)
		_, err := s.SaveRun(ctx, rec)
		require.NoError(t, err)
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Empty(t, runs[0].Results)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	history, err := s.IndicatorHistory(ctx, "Lipstick Index")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "a", history[0].RunID)
	assert.InDelta(t, 0.3, history[2].RSquared, 1e-12)
}
