package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"sheetpulse/pkg/contracts/domain"
)

// Upload outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// BusinessMetrics holds HTTP and dashboard instruments.
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Workbook metrics
	UploadsTotal      metric.Int64Counter
	NormalizeDuration metric.Float64Histogram
	SheetsLoaded      metric.Int64Gauge
	ChartsBuilt       metric.Int64Counter
	ExportsTotal      metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

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

	if m.UploadsTotal, err = meter.Int64Counter(
		"sheetpulse_uploads_total",
		metric.WithDescription("Workbook uploads by format and outcome"),
	); err != nil {
		return nil, err
	}
	if m.NormalizeDuration, err = meter.Float64Histogram(
		"sheetpulse_normalize_duration_seconds",
		metric.WithDescription("Time spent parsing and normalizing a workbook"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.SheetsLoaded, err = meter.Int64Gauge(
		"sheetpulse_sheets_loaded",
		metric.WithDescription("Sheets in the current workbook"),
	); err != nil {
		return nil, err
	}
	if m.ChartsBuilt, err = meter.Int64Counter(
		"sheetpulse_charts_built_total",
		metric.WithDescription("Dashboard charts built by chart and status"),
	); err != nil {
		return nil, err
	}
	if m.ExportsTotal, err = meter.Int64Counter(
		"sheetpulse_exports_total",
		metric.WithDescription("Table exports by format"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordUpload counts a workbook load attempt.
func (m *BusinessMetrics) RecordUpload(ctx context.Context, format, outcome string) {
	m.UploadsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("outcome", outcome),
	))
}

// RecordNormalize records how long parsing and normalization took.
func (m *BusinessMetrics) RecordNormalize(ctx context.Context, d time.Duration) {
	m.NormalizeDuration.Record(ctx, d.Seconds())
}

// SetSheetsLoaded records the sheet count of the current workbook.
func (m *BusinessMetrics) SetSheetsLoaded(ctx context.Context, n int) {
	m.SheetsLoaded.Record(ctx, int64(n))
}

// ChartBuilt counts a chart outcome.
func (m *BusinessMetrics) ChartBuilt(ctx context.Context, chartID string, status domain.ChartStatus) {
	m.ChartsBuilt.Add(ctx, 1, metric.WithAttributes(
		attribute.String("chart", chartID),
		attribute.String("status", string(status)),
	))
}

// RecordExport counts a completed export.
func (m *BusinessMetrics) RecordExport(ctx context.Context, format domain.ExportFormat) {
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", string(format))))
}

// TrackRequest marks a request in flight and returns a func that records its
// route, status and latency when the handler returns.
func (m *BusinessMetrics) TrackRequest(ctx context.Context, method string) func(route string, status int) {
	start := time.Now()
	m.HTTPActiveRequests.Add(ctx, 1)
	return func(route string, status int) {
		m.HTTPActiveRequests.Add(ctx, -1)
		attrs := metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("route", route),
			attribute.Int("status_code", status),
		)
		m.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
