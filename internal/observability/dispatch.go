package observability

import (
	"context"

	"xjsf/internal/clients"
	"xjsf/internal/models"
	"xjsf/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetrics records one counter increment and one latency sample per
// dispatched request. It implements service.Observer.
type DispatchMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	rejected metric.Int64Counter
}

var _ service.Observer = (*DispatchMetrics)(nil)

func NewDispatchMetrics(meter metric.Meter) (*DispatchMetrics, error) {
	requests, err := meter.Int64Counter(
		"xjsf.dispatch.requests",
		metric.WithDescription("Requests dispatched to hosted services"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"xjsf.dispatch.duration",
		metric.WithDescription("Time spent dispatching a request, in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter(
		"xjsf.quota.rejections",
		metric.WithDescription("Requests refused because the client exceeded its usage limits"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{requests: requests, duration: duration, rejected: rejected}, nil
}

func (m *DispatchMetrics) ObserveDispatch(ctx context.Context, o service.Outcome) {
	attrs := metric.WithAttributes(
		attribute.String("service", o.Service),
		attribute.String("format", o.Format),
		attribute.String("status", o.Status),
		attribute.String("code", o.Code),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, o.Duration.Seconds(), metric.WithAttributes(attribute.String("service", o.Service)))

	if o.Code == models.ErrorCodeQuotaExceeded {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("service", o.Service)))
	}
}

// RegisterClientGauge reports the number of registered clients in reg.
func RegisterClientGauge(meter metric.Meter, reg *clients.Registry) error {
	_, err := meter.Int64ObservableGauge(
		"xjsf.clients.registered",
		metric.WithDescription("Clients known to the registry, excluding the default client"),
		metric.WithUnit("{client}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(reg.Len()))
			return nil
		}),
	)
	return err
}
