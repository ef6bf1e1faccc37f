package internaltelemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// WindowMetrics holds the metric instruments of the window manager.
type WindowMetrics struct {
	PageLoadsCounter         metric.Int64Counter
	PageEvictionsCounter     metric.Int64Counter
	LoadedPagesUpDown        metric.Int64UpDownCounter
	MovesCounter             metric.Int64Counter
	MoveFailuresCounter      metric.Int64Counter
	LoadLatencyHistogram     metric.Int64Histogram
	IndexRepairSpanHistogram metric.Int64Histogram
}

// NewWindowMetrics creates and registers the window metrics on meter.
func NewWindowMetrics(meter metric.Meter) (*WindowMetrics, error) {
	pageLoads, err := meter.Int64Counter(
		"pagewindow.window.page_loads_total",
		metric.WithDescription("Total number of pages loaded from the store."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"pagewindow.window.page_evictions_total",
		metric.WithDescription("Total number of pages evicted from the window."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	loaded, err := meter.Int64UpDownCounter(
		"pagewindow.window.loaded_pages",
		metric.WithDescription("Number of pages currently loaded."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	moves, err := meter.Int64Counter(
		"pagewindow.window.moves_total",
		metric.WithDescription("Total number of records moved."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	moveFailures, err := meter.Int64Counter(
		"pagewindow.window.move_failures_total",
		metric.WithDescription("Total number of rejected moves, by reason."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	loadLatency, err := meter.Int64Histogram(
		"pagewindow.window.load_duration",
		metric.WithDescription("The latency of page loads, including throttling."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	repairSpan, err := meter.Int64Histogram(
		"pagewindow.window.index_repair_pages",
		metric.WithDescription("Number of pages re-indexed after a move."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &WindowMetrics{
		PageLoadsCounter:         pageLoads,
		PageEvictionsCounter:     evictions,
		LoadedPagesUpDown:        loaded,
		MovesCounter:             moves,
		MoveFailuresCounter:      moveFailures,
		LoadLatencyHistogram:     loadLatency,
		IndexRepairSpanHistogram: repairSpan,
	}, nil
}

// NoopWindowMetrics returns instruments that record nothing.
func NoopWindowMetrics() *WindowMetrics {
	m, _ := NewWindowMetrics(noop.NewMeterProvider().Meter(""))
	return m
}

// MoveFailed counts a rejected move under reason.
func (m *WindowMetrics) MoveFailed(ctx context.Context, reason string) {
	m.MoveFailuresCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
