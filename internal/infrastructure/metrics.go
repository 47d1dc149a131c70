package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics records what a run did. Step timings go through the
// OpenTelemetry meter; dataset sizes and pruning counts are plain
// Prometheus collectors on the same registry. A nil *PipelineMetrics is a
// valid no-op recorder.
type PipelineMetrics struct {
	stepRuns     metric.Int64Counter
	stepFailures metric.Int64Counter
	stepDuration metric.Float64Histogram

	datasetRows   *prometheus.GaugeVec
	prunedColumns *prometheus.CounterVec
	factorState   *prometheus.GaugeVec
}

// NewPipelineMetrics creates the run instruments
func NewPipelineMetrics(meter metric.Meter, reg prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	m.stepRuns, err = meter.Int64Counter(
		"step_runs",
		metric.WithDescription("Pipeline step executions"),
	)
	if err != nil {
		return nil, err
	}

	m.stepFailures, err = meter.Int64Counter(
		"step_failures",
		metric.WithDescription("Pipeline step executions that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	m.stepDuration, err = meter.Float64Histogram(
		"step_duration",
		metric.WithDescription("Pipeline step execution duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.datasetRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "dataset_rows",
		Help:      "Rows in a dataset produced or loaded by the run.",
	}, []string{"dataset"})

	m.prunedColumns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "factor_pruned_columns_total",
		Help:      "Search terms removed by loading pruning, per indicator.",
	}, []string{"indicator"})

	m.factorState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "factor_iterations",
		Help:      "Refit iterations used for an indicator, labelled by final state.",
	}, []string{"indicator", "state"})

	for _, c := range []prometheus.Collector{m.datasetRows, m.prunedColumns, m.factorState} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// RecordStep records one step execution
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("step", stepID))
	m.stepRuns.Add(ctx, 1, attrs)
	m.stepDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.stepFailures.Add(ctx, 1, attrs)
	}
}

// RecordRows sets the row count of a named dataset
func (m *PipelineMetrics) RecordRows(dataset string, rows int) {
	if m == nil {
		return
	}
	m.datasetRows.WithLabelValues(dataset).Set(float64(rows))
}

// RecordFactor records the outcome of one indicator's score extraction
func (m *PipelineMetrics) RecordFactor(indicator, state string, iterations, removed int) {
	if m == nil {
		return
	}
	m.prunedColumns.WithLabelValues(indicator).Add(float64(removed))
	m.factorState.WithLabelValues(indicator, state).Set(float64(iterations))
}
