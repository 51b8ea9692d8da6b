package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/contribfang/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.REDMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	return red, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

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

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "run", observability.StatusOK, time.Millisecond*100)

	rm := collectMetrics(t, reader)

	reqTotal := findMetric(rm, "contribfang.requests.total")
	require.NotNil(t, reqTotal, "contribfang.requests.total metric not found")

	reqDuration := findMetric(rm, "contribfang.request.duration.seconds")
	require.NotNil(t, reqDuration, "contribfang.request.duration.seconds metric not found")
}

func TestREDMetrics_RecordRequestError(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "contribfang_contributions", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)

	errTotal := findMetric(rm, "contribfang.errors.total")
	require.NotNil(t, errTotal, "contribfang.errors.total metric not found")
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	done := red.TrackInflight(ctx, "parse")

	rm := collectMetrics(t, reader)

	inflight := findMetric(rm, "contribfang.inflight.requests")
	require.NotNil(t, inflight, "contribfang.inflight.requests metric not found")

	done()

	rm = collectMetrics(t, reader)
	inflight = findMetric(rm, "contribfang.inflight.requests")
	require.NotNil(t, inflight)
}

func TestNewREDMetrics_NoopMeter(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	red, err := observability.NewREDMetrics(providers.Meter)
	require.NoError(t, err)
	assert.NotNil(t, red)

	red.RecordRequest(context.Background(), "test", "ok", time.Millisecond)
}

func TestScanMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	sm, err := observability.NewScanMetrics(meter)
	require.NoError(t, err)

	sm.Record(context.Background(), observability.ScanStats{
		Repository: "api",
		Commits:    4,
		Folded:     10,
		LogBytes:   512,
		Skipped:    map[string]int{"binary": 2, "excluded_path": 1},
		Duration:   time.Second,
	})

	rm := collectMetrics(t, reader)

	for _, name := range []string{
		"contribfang.scan.repositories.total",
		"contribfang.scan.commits.total",
		"contribfang.scan.lines.folded.total",
		"contribfang.scan.lines.skipped.total",
		"contribfang.scan.log.bytes.total",
		"contribfang.scan.duration.seconds",
	} {
		assert.NotNil(t, findMetric(rm, name), name)
	}

	skipped := findMetric(rm, "contribfang.scan.lines.skipped.total")
	sum, ok := skipped.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)
}

func TestScanMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var sm *observability.ScanMetrics

	assert.NotPanics(t, func() {
		sm.Record(context.Background(), observability.ScanStats{Repository: "api"})
	})
}
