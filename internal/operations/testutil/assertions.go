package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littleluxuries/internal/operations"
)

// AssertStepStatus checks the status of one step in state
func AssertStepStatus(t *testing.T, state *operations.OperationState, stepID string, expected operations.StepStatus) {
	t.Helper()
	step := state.GetStage(stepID)
	require.NotNil(t, step, "step %s not found", stepID)
	assert.Equal(t, expected, step.GetStatus(), "step %s", stepID)
}

// AssertErrorType checks err carries an OperationError of the given type
func AssertErrorType(t *testing.T, err error, expected operations.ErrorType) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, expected, operations.GetErrorType(err), "error: %v", err)
}
