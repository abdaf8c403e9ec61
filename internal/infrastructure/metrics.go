package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics holds all application-specific metrics
type DashboardMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Dashboard computation metrics
	ComputeTotal    metric.Int64Counter
	ComputeDuration metric.Float64Histogram
	ComputeErrors   metric.Int64Counter
	RecordsScanned  metric.Int64Counter
	ExportsTotal    metric.Int64Counter

	// WebSocket metrics
	WebSocketSessions metric.Int64UpDownCounter
	WebSocketMessages metric.Int64Counter
}

// CreateDashboardMetrics creates application-specific metrics
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	var (
		m   DashboardMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.ComputeTotal, err = meter.Int64Counter(
		"dashboard_computations_total",
		metric.WithDescription("Total number of dashboard view computations"),
	); err != nil {
		return nil, err
	}

	if m.ComputeDuration, err = meter.Float64Histogram(
		"dashboard_computation_duration_seconds",
		metric.WithDescription("Dashboard view computation duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.ComputeErrors, err = meter.Int64Counter(
		"dashboard_computation_errors_total",
		metric.WithDescription("Total number of rejected or failed dashboard computations"),
	); err != nil {
		return nil, err
	}

	if m.RecordsScanned, err = meter.Int64Counter(
		"dashboard_records_scanned_total",
		metric.WithDescription("Total number of rental records aggregated"),
	); err != nil {
		return nil, err
	}

	if m.ExportsTotal, err = meter.Int64Counter(
		"dashboard_exports_total",
		metric.WithDescription("Total number of table exports"),
	); err != nil {
		return nil, err
	}

	if m.WebSocketSessions, err = meter.Int64UpDownCounter(
		"websocket_active_sessions",
		metric.WithDescription("Number of live dashboard sessions"),
	); err != nil {
		return nil, err
	}

	if m.WebSocketMessages, err = meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Total number of WebSocket messages by direction and type"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordCompute records one dashboard computation.
func (m *DashboardMetrics) RecordCompute(ctx context.Context, source string, records int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("source", source)}

	status := "success"
	if err != nil {
		status = "failure"
		m.ComputeErrors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))...))
	}

	m.ComputeTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.ComputeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(append(attrs, attribute.String("status", status))...))
	if records > 0 {
		m.RecordsScanned.Add(ctx, int64(records), metric.WithAttributes(attrs...))
	}
}

// RecordExport records one table export.
func (m *DashboardMetrics) RecordExport(ctx context.Context, table, format string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("format", format),
		attribute.String("status", status),
	))
}

// RecordSessionChange records a WebSocket session opening (+1) or closing (-1).
func (m *DashboardMetrics) RecordSessionChange(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketSessions.Add(ctx, delta)
}

// RecordWebSocketMessage counts one inbound or outbound WebSocket message.
func (m *DashboardMetrics) RecordWebSocketMessage(ctx context.Context, direction, msgType string) {
	if m == nil {
		return
	}
	m.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", msgType),
	))
}

// DatasetStats is implemented by the loaded dataset table.
type DatasetStats interface {
	Len() int
	LoadedAt() time.Time
}

// RegisterDatasetGauges exposes the dataset size and load time as native
// Prometheus gauges, read on every scrape.
func RegisterDatasetGauges(reg prometheus.Registerer, ds DatasetStats) error {
	rows := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bikepulse",
		Name:      "dataset_records",
		Help:      "Number of rental records in the loaded dataset.",
	}, func() float64 { return float64(ds.Len()) })

	loaded := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bikepulse",
		Name:      "dataset_loaded_timestamp_seconds",
		Help:      "Unix time the dataset was loaded.",
	}, func() float64 { return float64(ds.LoadedAt().Unix()) })

	for _, c := range []prometheus.Collector{rows, loaded} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register dataset gauge: %w", err)
		}
	}
	return nil
}
