package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/searchktools/wire-server/core/http"
)

// InstrumentationName scopes every meter, tracer and logger the server creates.
const InstrumentationName = "github.com/searchktools/wire-server"

// Attribute keys recorded on request metrics and spans.
const (
	AttrMethod = attribute.Key("http.request.method")
	AttrRoute  = attribute.Key("http.route")
	AttrStatus = attribute.Key("http.response.status_code")
	AttrReason = attribute.Key("error.type")
)

// Monitor records per-connection and per-request telemetry. A nil *Monitor
// is valid and records nothing.
type Monitor struct {
	tracer      trace.Tracer
	requests    metric.Int64Counter
	duration    metric.Float64Histogram
	parseErrors metric.Int64Counter
	panics      metric.Int64Counter
	active      metric.Int64UpDownCounter
}

// NewMonitor creates the instruments on the given providers.
func NewMonitor(mp metric.MeterProvider, tp trace.TracerProvider) (*Monitor, error) {
	meter := mp.Meter(InstrumentationName)
	m := &Monitor{tracer: tp.Tracer(InstrumentationName)}

	var err error
	if m.requests, err = meter.Int64Counter("wire.server.requests",
		metric.WithDescription("Requests answered, by method, route and status"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("wire.server.request.duration",
		metric.WithDescription("Time from parse to serialized response"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.parseErrors, err = meter.Int64Counter("wire.server.parse_errors",
		metric.WithDescription("Requests rejected as malformed or oversized"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if m.panics, err = meter.Int64Counter("wire.server.handler_panics",
		metric.WithDescription("Handler panics turned into 500 responses"),
		metric.WithUnit("{panic}")); err != nil {
		return nil, err
	}
	if m.active, err = meter.Int64UpDownCounter("wire.server.active_connections",
		metric.WithDescription("Connections currently being served"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}
	return m, nil
}

// Global returns a monitor bound to the process-wide otel providers. It
// follows whatever providers Setup (or the embedding program) installs.
func Global() *Monitor {
	m, err := NewMonitor(otel.GetMeterProvider(), otel.GetTracerProvider())
	if err != nil {
		otel.Handle(err)
		return nil
	}
	return m
}

func (m *Monitor) ConnectionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.active.Add(ctx, 1)
}

func (m *Monitor) ConnectionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.active.Add(ctx, -1)
}

// ParseError counts a rejected request. reason should be a short, bounded
// label such as "malformed" or "capacity".
func (m *Monitor) ParseError(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.parseErrors.Add(ctx, 1, metric.WithAttributes(AttrReason.String(reason)))
}

// Panic counts a recovered handler panic.
func (m *Monitor) Panic(ctx context.Context) {
	if m == nil {
		return
	}
	m.panics.Add(ctx, 1)
}

// StartRequest opens the request span, continuing any trace context the
// client sent in its headers.
func (m *Monitor) StartRequest(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	if m == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier{Headers: &req.Headers})
	method := req.Method.String()
	return m.tracer.Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(AttrMethod.String(method), attribute.String("url.path", req.Path())),
	)
}

// EndRequest records the outcome and ends span. route is the matched
// pattern, or empty when nothing matched.
func (m *Monitor) EndRequest(ctx context.Context, span trace.Span, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrMethod.String(method),
		AttrRoute.String(route),
		AttrStatus.Int(status),
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))

	if route != "" {
		span.SetName(method + " " + route)
	}
	span.SetAttributes(AttrRoute.String(route), AttrStatus.Int(status))
	if status >= 500 {
		span.SetStatus(codes.Error, "")
	}
	span.End()
}
