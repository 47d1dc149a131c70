package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"littleluxuries/internal/infrastructure"
)

// Manager runs the registered steps of an analysis in dependency order
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	tracer   *OperationTracer
}

// NewManager creates a new operation manager
func NewManager(registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		config:   config,
		logger:   logger,
		tracer:   NewOperationTracer(nil, nil),
	}
}

// SetTracer sets the span and metric recorder
func (m *Manager) SetTracer(tracer *OperationTracer) {
	if tracer != nil {
		m.tracer = tracer
	}
}

// RegisterStage registers a Step with the operation
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Run executes every registered step in dependency order against state.
// The first failing step stops the run unless ContinueOnError is set, in
// which case only the steps depending on it are skipped. Cancellation is
// checked between steps. The manifest is written to ManifestPath whatever
// the outcome.
func (m *Manager) Run(ctx context.Context, state *OperationState) (*PipelineManifest, error) {
	if state.ID == "" {
		state.ID = infrastructure.GetRunID(ctx)
	}
	if state.ID == "" {
		state.ID = infrastructure.NewRunID()
	}
	ctx = infrastructure.WithRunID(ctx, state.ID)

	manifest := NewPipelineManifest(state.ID)

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		m.logOperationError(ctx, state.ID, err)
		state.Fail(err)
		manifest.SetStatus(string(OperationStatusFailed), err)
		return manifest, m.finish(ctx, state, manifest, err)
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, state.ID, len(steps))
	defer span.End()

	m.logOperationStart(ctx, state.ID, len(steps))
	state.Start()
	manifest.SetStatus(string(OperationStatusRunning), nil)

	runErr := m.executeSequential(ctx, state, steps, manifest)

	switch {
	case runErr == nil:
		state.Complete()
	case GetErrorType(runErr) == ErrorTypeCancellation:
		state.Cancel(runErr)
	default:
		state.Fail(runErr)
	}
	manifest.SetStatus(string(state.GetStatus()), runErr)
	m.tracer.RecordOperationCompletion(span, state.GetStatus(), state.Duration(), runErr)
	m.logOperationComplete(ctx, state.ID, state.Duration(), string(state.GetStatus()))

	return manifest, m.finish(ctx, state, manifest, runErr)
}

// finish scans the output directories and writes the manifest
func (m *Manager) finish(ctx context.Context, state *OperationState, manifest *PipelineManifest, runErr error) error {
	for dataType, dir := range m.config.ScanDirs {
		if err := manifest.ScanDataDirectory(dataType, dir, "*"); err != nil {
			m.logger.WarnContext(ctx, "output scan failed",
				slog.String("type", dataType),
				slog.String("error", err.Error()))
		}
	}

	if m.config.ManifestPath == "" {
		return runErr
	}
	if err := manifest.SaveToFile(m.config.ManifestPath); err != nil {
		m.logger.ErrorContext(ctx, "failed to save manifest",
			slog.String("path", m.config.ManifestPath),
			slog.String("error", err.Error()))
		return errors.Join(runErr, err)
	}
	m.logger.InfoContext(ctx, "manifest saved",
		slog.String("operation_id", state.ID),
		slog.String("path", m.config.ManifestPath))
	return runErr
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step, manifest *PipelineManifest) error {
	var firstErr error

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID(), err)
		}

		stepState := state.GetStage(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			continue
		}

		m.logger.InfoContext(ctx, "executing stage",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(steps)))

		if err := m.executeStage(ctx, state, step, manifest); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			m.skipDependentStages(state, step.ID(), manifest)
			if GetErrorType(err) == ErrorTypeCancellation || !m.config.ContinueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// executeStage validates and runs a single Step
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step, manifest *PipelineManifest) error {
	stepState := state.GetStage(step.ID())

	if reason, ok := m.unmetDependency(state, step); ok {
		m.skip(ctx, state, step, manifest, reason)
		return nil
	}

	if err := step.Validate(state); err != nil {
		if errors.Is(err, ErrSkipStep) {
			m.skip(ctx, state, step, manifest, err.Error())
			return nil
		}
		verr := NewValidationError(step.ID(), err)
		stepState.Fail(verr)
		manifest.RecordStageStart(step.ID(), step.Name())
		manifest.RecordStageFailure(step.ID(), verr)
		return verr
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stageCtx, span := m.tracer.TraceStageExecution(stageCtx, state.ID, step)
	defer span.End()

	m.logStageStart(ctx, state.ID, step.ID())
	stepState.Start()
	manifest.RecordStageStart(step.ID(), step.Name())

	start := time.Now()
	err := step.Execute(stageCtx, state)
	duration := time.Since(start)

	outputs, metadata := stepState.snapshot()
	m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, len(outputs), err)

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			err = NewTimeoutError(step.ID(), timeout.String(), err)
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID(), err)
		default:
			err = WrapError(err, step.ID(), "step execution failed")
		}
		stepState.Fail(err)
		manifest.RecordStageFailure(step.ID(), err)
		return err
	}

	stepState.Complete()
	manifest.RecordStageCompletion(step.ID(), outputs, metadata)
	m.logStageComplete(ctx, state.ID, step.ID(), duration)
	return nil
}

// skip marks a step skipped in the state and the manifest
func (m *Manager) skip(ctx context.Context, state *OperationState, step Step, manifest *PipelineManifest, reason string) {
	state.GetStage(step.ID()).Skip(reason)
	manifest.RecordStageSkipped(step.ID(), step.Name(), reason)
	m.logger.InfoContext(ctx, "stage skipped",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.String("reason", reason))
}

// unmetDependency reports the first dependency that did not complete
func (m *Manager) unmetDependency(state *OperationState, step Step) (string, bool) {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return fmt.Sprintf("dependency %s not found", dep), true
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return fmt.Sprintf("dependency %s not completed (status: %s)", dep, status), true
		}
	}
	return "", false
}

// skipDependentStages marks every pending step that depends, directly or
// through other steps, on the failed step as skipped
func (m *Manager) skipDependentStages(state *OperationState, failedStageID string, manifest *PipelineManifest) {
	reason := fmt.Sprintf("dependency %s failed", failedStageID)
	queue := []string{failedStageID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, step := range m.registry.GetDependents(id) {
			stepState := state.GetStage(step.ID())
			if stepState == nil || stepState.GetStatus() != StepStatusPending {
				continue
			}
			stepState.Skip(reason)
			manifest.RecordStageSkipped(step.ID(), step.Name(), reason)
			queue = append(queue, step.ID())
		}
	}
}
