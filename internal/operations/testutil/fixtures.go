package testutil

import (
	"context"
	"errors"
	"time"

	"littleluxuries/internal/operations"
)

// CreateTestConfig returns a config with short timeouts
func CreateTestConfig() *operations.Config {
	return operations.NewConfigBuilder().
		WithStageTimeout("slow", 50*time.Millisecond).
		Build()
}

// CreateSuccessfulStage creates a step that always succeeds
func CreateSuccessfulStage(id, name string, deps ...string) *MockStage {
	return NewStageBuilder(id, name).WithDependencies(deps...).Build()
}

// CreateFailingStage creates a step whose Execute returns err
func CreateFailingStage(id, name string, err error, deps ...string) *MockStage {
	return NewStageBuilder(id, name).
		WithDependencies(deps...).
		WithExecute(func(context.Context, *operations.OperationState) error { return err }).
		Build()
}

// CreateSkippingStage creates a step whose Validate asks to be skipped
func CreateSkippingStage(id, name, reason string, deps ...string) *MockStage {
	return NewStageBuilder(id, name).
		WithDependencies(deps...).
		WithValidate(func(*operations.OperationState) error { return operations.SkipStep("%s", reason) }).
		Build()
}

// CreateValidationFailingStage creates a step whose Validate returns err
func CreateValidationFailingStage(id, name string, err error, deps ...string) *MockStage {
	return NewStageBuilder(id, name).
		WithDependencies(deps...).
		WithValidate(func(*operations.OperationState) error { return err }).
		Build()
}

// CreateSlowStage creates a step that waits for d or the context
func CreateSlowStage(id, name string, d time.Duration, deps ...string) *MockStage {
	return NewStageBuilder(id, name).
		WithDependencies(deps...).
		WithExecute(func(ctx context.Context, _ *operations.OperationState) error {
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}).
		Build()
}

// ErrStageFailed is the error returned by failing fixture steps
var ErrStageFailed = errors.New("step failed")

// StageBuilder builds MockStage values
type StageBuilder struct {
	stage *MockStage
}

// NewStageBuilder starts a step with id and name
func NewStageBuilder(id, name string) *StageBuilder {
	return &StageBuilder{stage: &MockStage{IDValue: id, NameValue: name}}
}

// WithDependencies sets the dependencies
func (b *StageBuilder) WithDependencies(deps ...string) *StageBuilder {
	b.stage.DependenciesValue = deps
	return b
}

// WithExecute sets the Execute function
func (b *StageBuilder) WithExecute(fn func(context.Context, *operations.OperationState) error) *StageBuilder {
	b.stage.ExecuteFunc = fn
	return b
}

// WithValidate sets the Validate function
func (b *StageBuilder) WithValidate(fn func(*operations.OperationState) error) *StageBuilder {
	b.stage.ValidateFunc = fn
	return b
}

// WithRecorder records Execute calls into r
func (b *StageBuilder) WithRecorder(r *ExecutionRecorder) *StageBuilder {
	b.stage.Recorder = r
	return b
}

// Build returns the step
func (b *StageBuilder) Build() *MockStage {
	return b.stage
}
