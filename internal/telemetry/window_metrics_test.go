package internaltelemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestWindowMetrics_MoveFailed(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewWindowMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.MoveFailed(ctx, "cross_range")
	m.MoveFailed(ctx, "cross_range")
	m.MoveFailed(ctx, "not_resolvable")
	m.PageLoadsCounter.Add(ctx, 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		byName[metric.Name] = metric
	}

	failures, ok := byName["pagewindow.window.move_failures_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	perReason := map[string]int64{}
	for _, dp := range failures.DataPoints {
		reason, _ := dp.Attributes.Value(attribute.Key("reason"))
		perReason[reason.AsString()] = dp.Value
	}
	require.Equal(t, map[string]int64{"cross_range": 2, "not_resolvable": 1}, perReason)

	loads, ok := byName["pagewindow.window.page_loads_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, loads.DataPoints, 1)
	require.Equal(t, int64(3), loads.DataPoints[0].Value)
}

func TestNoopWindowMetrics(t *testing.T) {
	m := NoopWindowMetrics()
	require.NotNil(t, m)
	m.MoveFailed(context.Background(), "anything")
	m.IndexRepairSpanHistogram.Record(context.Background(), 3)
}
