// Package telemetry wires OpenTelemetry metrics to a Prometheus exporter.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments recorded by the HTTP middleware.
type Metrics struct {
	Requests        metric.Int64Counter
	ErrorCount      metric.Int64Counter
	RequestDuration metric.Float64Histogram
}

// ShutdownFunc flushes and stops the meter provider.
type ShutdownFunc func(ctx context.Context) error

// PrometheusHandler returns the handler that serves the collected
// metrics in Prometheus exposition format.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// InitMetrics sets up the global meter provider with a Prometheus reader
// and creates the request instruments. The collected metrics are exposed
// through promhttp on /metrics.
func InitMetrics(version string) (ShutdownFunc, *Metrics, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("agenthub-marketplace", metric.WithInstrumentationVersion(version))

	requests, err := meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	if err != nil {
		return nil, nil, err
	}
	errorCount, err := meter.Int64Counter("http_errors_total",
		metric.WithDescription("Total number of HTTP responses with status >= 400"))
	if err != nil {
		return nil, nil, err
	}
	duration, err := meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, nil, err
	}

	return provider.Shutdown, &Metrics{
		Requests:        requests,
		ErrorCount:      errorCount,
		RequestDuration: duration,
	}, nil
}
