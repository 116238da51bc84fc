package rest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricRequests        = "hal.client.requests"
	MetricRequestDuration = "hal.client.request.duration"
	MetricRequestsActive  = "hal.client.requests.active"
)

// metrics holds the gateway's request instruments.
type metrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	total, err := meter.Int64Counter(MetricRequests,
		metric.WithDescription("Total number of HAL requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRequests, err)
	}

	duration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Duration of HAL requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRequestDuration, err)
	}

	active, err := meter.Int64UpDownCounter(MetricRequestsActive,
		metric.WithDescription("Number of in-flight HAL requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricRequestsActive, err)
	}

	return &metrics{total: total, duration: duration, active: active}, nil
}

func (m *metrics) start(ctx context.Context) {
	m.active.Add(ctx, 1)
}

// end records a completed exchange. status is 0 when no response arrived.
func (m *metrics) end(ctx context.Context, method string, status int, elapsed time.Duration) {
	outcome := "error"
	if status >= 200 && status < 300 {
		outcome = "ok"
	}
	m.active.Add(ctx, -1)
	m.total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.response.status_code", strconv.Itoa(status)),
		attribute.String("outcome", outcome),
	))
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("http.request.method", method),
	))
}
