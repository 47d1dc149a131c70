// Package operations runs an analysis as an ordered pipeline of steps.
//
// A Step declares its dependencies, validates the state it needs and
// executes against a shared OperationState whose Artifacts carry the typed
// results (frames, regressions, correlation matrices, purchases) from one
// step to the next. The Registry orders steps by dependency, keeping
// registration order between steps that become ready together, and rejects
// unknown dependencies and cycles.
//
// Manager.Run executes the steps one at a time:
//
//   - a step whose dependency did not complete is skipped
//   - Validate may return SkipStep(...) to skip an optional step, such as
//     the retail analysis when no transaction log exists
//   - the first failure stops the run unless ContinueOnError is set
//   - cancellation is checked between steps and each step runs under its
//     own timeout
//
// Every run produces a PipelineManifest recording each step's status,
// timing, written files and metadata, saved as JSON to the configured path
// whatever the outcome.
//
// The concrete analysis steps live in stages.go and share an Environment:
//
//	env := operations.NewEnvironment(cfg, paths, logger, telemetry.Metrics)
//	registry := operations.NewRegistry()
//	if err := operations.RegisterAnalysisSteps(registry, env); err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, operations.NewConfigBuilder().
//		WithManifest(paths.ManifestJSON).
//		Build(), logger)
//	manifest, err := manager.Run(ctx, operations.NewOperationState(runID))
package operations
