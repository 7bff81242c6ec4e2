package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricDocumentsTotal  = "adlens.dedup.documents.total"
	metricCandidatesTotal = "adlens.dedup.candidates.total"
	metricConfirmedTotal  = "adlens.dedup.confirmed.total"
	metricDroppedTotal    = "adlens.dedup.dropped.total"
	metricStageDuration   = "adlens.dedup.stage.duration.seconds"

	attrMethod = "method"
	attrStage  = "stage"
)

// PipelineMetrics holds OTel instruments for dedup runs.
type PipelineMetrics struct {
	documents     metric.Int64Counter
	candidates    metric.Int64Counter
	confirmed     metric.Int64Counter
	dropped       metric.Int64Counter
	stageDuration metric.Float64Histogram
}

// RunStats summarizes one dedup run, decoupled from pipeline types.
type RunStats struct {
	Method     string
	Documents  int
	Candidates int
	Confirmed  int
	Dropped    int
}

// NewPipelineMetrics creates dedup metric instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	b := newMetricBuilder(mt)

	pm := &PipelineMetrics{
		documents:     b.counter(metricDocumentsTotal, "Documents examined for duplicates", "{document}"),
		candidates:    b.counter(metricCandidatesTotal, "Candidate pairs produced by LSH", "{pair}"),
		confirmed:     b.counter(metricConfirmedTotal, "Pairs at or above the similarity threshold", "{pair}"),
		dropped:       b.counter(metricDroppedTotal, "Documents dropped as duplicates", "{document}"),
		stageDuration: b.histogram(metricStageDuration, "Dedup stage duration in seconds", "s"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return pm, nil
}

// RecordRun records the counters of a completed run.
// Safe to call on a nil receiver (no-op).
func (pm *PipelineMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if pm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrMethod, stats.Method))

	pm.documents.Add(ctx, int64(stats.Documents), attrs)
	pm.candidates.Add(ctx, int64(stats.Candidates), attrs)
	pm.confirmed.Add(ctx, int64(stats.Confirmed), attrs)
	pm.dropped.Add(ctx, int64(stats.Dropped), attrs)
}

// ObserveStage records how long a named stage took.
// Safe to call on a nil receiver (no-op).
func (pm *PipelineMetrics) ObserveStage(ctx context.Context, stage string, d time.Duration) {
	if pm == nil {
		return
	}

	pm.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(attrStage, stage)))
}
