package observability

import (
	"context"
	"errors"
	"time"

	"xjsf/internal/models"
	"xjsf/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrReadOnlySource is returned by SaveRoster when the wrapped source
// cannot store a roster.
var ErrReadOnlySource = errors.New("roster source is read-only")

// InstrumentedSource wraps a storage.RosterSource with spans, a latency
// histogram and an error counter.
type InstrumentedSource struct {
	inner    storage.RosterSource
	kind     string
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedSource instruments inner; kind names the backend in
// telemetry ("file", "postgres", ...).
func NewInstrumentedSource(inner storage.RosterSource, kind string) (*InstrumentedSource, error) {
	meter := otel.Meter("xjsf/storage")

	duration, err := meter.Float64Histogram(
		"roster.operation.duration",
		metric.WithDescription("Duration of roster source operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"roster.operation.errors",
		metric.WithDescription("Number of failed roster source operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedSource{
		inner:    inner,
		kind:     kind,
		tracer:   otel.Tracer("xjsf/storage"),
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedSource) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "roster."+operation,
		trace.WithAttributes(
			attribute.String("roster.operation", operation),
			attribute.String("roster.source", s.kind),
		),
	)
}

func (s *InstrumentedSource) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("source", s.kind),
	)
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (s *InstrumentedSource) LoadRoster(ctx context.Context) (*models.Roster, error) {
	ctx, span := s.startSpan(ctx, "LoadRoster")
	start := time.Now()
	roster, err := s.inner.LoadRoster(ctx)
	if roster != nil {
		span.SetAttributes(attribute.Int("roster.clients", len(roster.Clients)))
	}
	s.record(ctx, span, "LoadRoster", start, err)
	return roster, err
}

// SaveRoster forwards to the wrapped source when it is a storage.RosterWriter.
func (s *InstrumentedSource) SaveRoster(ctx context.Context, roster *models.Roster) error {
	ctx, span := s.startSpan(ctx, "SaveRoster")
	start := time.Now()
	err := ErrReadOnlySource
	if w, ok := s.inner.(storage.RosterWriter); ok {
		err = w.SaveRoster(ctx, roster)
	}
	s.record(ctx, span, "SaveRoster", start, err)
	return err
}

func (s *InstrumentedSource) Close() error {
	return s.inner.Close()
}
