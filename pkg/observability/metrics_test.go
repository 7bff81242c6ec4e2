package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/adlens/pkg/observability"
)

func newManualMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func counterTotal(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

// --- REDMetrics Tests ---.

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "dedup", observability.StatusOK, 100*time.Millisecond)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), counterTotal(t, findMetric(rm, "adlens.requests.total")))
	assert.NotNil(t, findMetric(rm, "adlens.request.duration.seconds"))
}

func TestREDMetrics_RecordRequestError(t *testing.T) {
	t.Parallel()

	mp, reader := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "similarity", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), counterTotal(t, findMetric(rm, "adlens.errors.total")))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "dedup")
	assert.Equal(t, int64(1), counterTotal(t, findMetric(collectMetrics(t, reader), "adlens.inflight.requests")))

	done()
	assert.Equal(t, int64(0), counterTotal(t, findMetric(collectMetrics(t, reader), "adlens.inflight.requests")))
}

// --- PipelineMetrics Tests ---.

func TestPipelineMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	mp, reader := newManualMeter(t)

	pm, err := observability.NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	pm.RecordRun(context.Background(), observability.RunStats{
		Method:     "lsh",
		Documents:  3,
		Candidates: 1,
		Confirmed:  1,
		Dropped:    1,
	})
	pm.ObserveStage(context.Background(), "confirm", 5*time.Millisecond)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(3), counterTotal(t, findMetric(rm, "adlens.dedup.documents.total")))
	assert.Equal(t, int64(1), counterTotal(t, findMetric(rm, "adlens.dedup.candidates.total")))
	assert.Equal(t, int64(1), counterTotal(t, findMetric(rm, "adlens.dedup.dropped.total")))
	assert.NotNil(t, findMetric(rm, "adlens.dedup.stage.duration.seconds"))
}

func TestPipelineMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var pm *observability.PipelineMetrics

	assert.NotPanics(t, func() {
		pm.RecordRun(context.Background(), observability.RunStats{Documents: 1})
		pm.ObserveStage(context.Background(), "index", time.Millisecond)
	})
}
