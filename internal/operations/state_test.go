package operations_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littleluxuries/internal/operations"
)

func TestStepState_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		apply      func(s *operations.StepState)
		wantStatus operations.StepStatus
		check      func(t *testing.T, s *operations.StepState)
	}{
		{
			name:       "new",
			apply:      func(*operations.StepState) {},
			wantStatus: operations.StepStatusPending,
			check: func(t *testing.T, s *operations.StepState) {
				assert.Zero(t, s.Duration())
				assert.NotNil(t, s.Metadata)
			},
		},
		{
			name:       "completed",
			apply:      func(s *operations.StepState) { s.Start(); s.Complete() },
			wantStatus: operations.StepStatusCompleted,
			check: func(t *testing.T, s *operations.StepState) {
				assert.Equal(t, 100.0, s.Progress)
				require.NotNil(t, s.EndTime)
			},
		},
		{
			name:       "failed",
			apply:      func(s *operations.StepState) { s.Start(); s.Fail(errors.New("boom")) },
			wantStatus: operations.StepStatusFailed,
			check: func(t *testing.T, s *operations.StepState) {
				assert.EqualError(t, s.Error, "boom")
			},
		},
		{
			name:       "skipped",
			apply:      func(s *operations.StepState) { s.Skip("charts disabled") },
			wantStatus: operations.StepStatusSkipped,
			check: func(t *testing.T, s *operations.StepState) {
				assert.Equal(t, "charts disabled", s.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := operations.NewStepState("charts", "Charts")
			tt.apply(s)
			assert.Equal(t, tt.wantStatus, s.GetStatus())
			tt.check(t, s)
		})
	}
}

func TestStepState_OutputsAndMetadata(t *testing.T) {
	s := operations.NewStepState("tableau", "Tableau Datasets")
	s.Start()
	s.AddOutput("a.csv")
	s.AddOutput("b.csv")
	s.SetMetadata("rows", 240)
	s.UpdateProgress(40, "writing")

	assert.Equal(t, []string{"a.csv", "b.csv"}, s.Outputs)
	assert.Equal(t, 240, s.Metadata["rows"])
	assert.Equal(t, 40.0, s.Progress)
	assert.Equal(t, "writing", s.Message)
	assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
}

func TestBaseStage(t *testing.T) {
	b := operations.NewBaseStage("ranking", "Indicator Ranking", nil)
	assert.Equal(t, "ranking", b.ID())
	assert.Equal(t, "Indicator Ranking", b.Name())
	assert.NotNil(t, b.GetDependencies())
	assert.NoError(t, b.Validate(operations.NewOperationState("x")))

	var nilStage *operations.BaseStage
	assert.Equal(t, "", nilStage.ID())
	assert.Empty(t, nilStage.GetDependencies())
}

func TestSkipStep(t *testing.T) {
	err := operations.SkipStep("retail file %s not available", "spend.csv")
	assert.ErrorIs(t, err, operations.ErrSkipStep)
	assert.Contains(t, err.Error(), "spend.csv")
}

func TestOperationState(t *testing.T) {
	state := operations.NewOperationState("run-state")
	assert.Equal(t, operations.OperationStatusPending, state.GetStatus())

	for _, id := range []string{"a", "b", "c"} {
		state.SetStage(id, operations.NewStepState(id, id))
	}
	assert.False(t, state.IsComplete())

	state.Start()
	state.GetStage("a").Complete()
	state.GetStage("b").Skip("optional")
	state.GetStage("c").Fail(errors.New("bad"))

	assert.Len(t, state.GetCompletedStages(), 1)
	assert.Len(t, state.GetSkippedStages(), 1)
	assert.True(t, state.HasFailures())
	assert.True(t, state.IsComplete())
	assert.Nil(t, state.GetStage("missing"))

	state.Fail(errors.New("bad"))
	assert.Equal(t, operations.OperationStatusFailed, state.GetStatus())
	require.NotNil(t, state.EndTime)
	assert.Equal(t, state.EndTime.Sub(state.StartTime), state.Duration())

	cancelled := operations.NewOperationState("run-cancel")
	cancelled.Cancel(errors.New("stop"))
	assert.Equal(t, operations.OperationStatusCancelled, cancelled.GetStatus())
}

func TestProgressTracker(t *testing.T) {
	step := operations.NewStepState("scores", "Scores")
	p := operations.NewProgressTracker(step, 4)
	assert.False(t, p.IsComplete())

	p.Increment("Lipstick Index")
	current, total, pct, msg := p.GetProgress()
	assert.Equal(t, 1, current)
	assert.Equal(t, 4, total)
	assert.Equal(t, 25.0, pct)
	assert.Equal(t, "Lipstick Index", msg)
	assert.Equal(t, 25.0, step.Progress)

	for i := 0; i < 3; i++ {
		p.Increment("next")
	}
	assert.True(t, p.IsComplete())
	assert.Contains(t, p.Summary(), "4/4")

	empty := operations.NewProgressTracker(nil, 0)
	empty.Increment("no step")
	_, _, pct, _ = empty.GetProgress()
	assert.Zero(t, pct)
}

func TestConfig(t *testing.T) {
	cfg := operations.NewConfigBuilder().
		WithStageTimeout(operations.StageIDCharts, time.Minute).
		WithContinueOnError(true).
		WithManifest("run_manifest.json").
		WithScanDir("viz", "Viz").
		Build()

	assert.Equal(t, time.Minute, cfg.GetStageTimeout(operations.StageIDCharts))
	assert.Equal(t, operations.DefaultSourceTimeout, cfg.GetStageTimeout(operations.StageIDSources))
	assert.Equal(t, operations.DefaultStageTimeout, cfg.GetStageTimeout(operations.StageIDScores))
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, "run_manifest.json", cfg.ManifestPath)
	assert.Equal(t, "Viz", cfg.ScanDirs["viz"])

	var empty operations.Config
	empty.SetStageTimeout("x", time.Second)
	assert.Equal(t, time.Second, empty.GetStageTimeout("x"))
}
