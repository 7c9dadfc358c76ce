package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/searchktools/wire-server/core/http"
)

func newTestMonitor(t *testing.T) (*Monitor, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	m, err := NewMonitor(mp, tp)
	require.NoError(t, err)
	return m, reader, recorder
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMonitorRequest(t *testing.T) {
	m, reader, recorder := newTestMonitor(t)
	ctx := context.Background()

	req, err := http.ParseRequest([]byte("GET /orders/42?full=true HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	defer http.ReleaseRequest(req)

	spanCtx, span := m.StartRequest(ctx, req)
	m.EndRequest(spanCtx, span, "GET", "/orders/{id}", 200, 5*time.Millisecond)

	metrics := collect(t, reader)
	requests, ok := metrics["wire.server.requests"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, requests.DataPoints, 1)
	assert.Equal(t, int64(1), requests.DataPoints[0].Value)
	route, _ := requests.DataPoints[0].Attributes.Value(AttrRoute)
	assert.Equal(t, "/orders/{id}", route.AsString())

	duration, ok := metrics["wire.server.request.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, duration.DataPoints, 1)
	assert.Equal(t, uint64(1), duration.DataPoints[0].Count)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /orders/{id}", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestMonitorServerErrorMarksSpan(t *testing.T) {
	m, _, recorder := newTestMonitor(t)

	req, err := http.ParseRequest([]byte("POST /x HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	defer http.ReleaseRequest(req)

	ctx, span := m.StartRequest(context.Background(), req)
	m.EndRequest(ctx, span, "POST", "", 500, time.Millisecond)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestMonitorConnectionsAndErrors(t *testing.T) {
	m, reader, _ := newTestMonitor(t)
	ctx := context.Background()

	m.ConnectionOpened(ctx)
	m.ConnectionOpened(ctx)
	m.ConnectionClosed(ctx)
	m.ParseError(ctx, "malformed")
	m.Panic(ctx)

	metrics := collect(t, reader)

	active := metrics["wire.server.active_connections"].(metricdata.Sum[int64])
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(1), active.DataPoints[0].Value)

	parseErrors := metrics["wire.server.parse_errors"].(metricdata.Sum[int64])
	require.Len(t, parseErrors.DataPoints, 1)
	reason, _ := parseErrors.DataPoints[0].Attributes.Value(AttrReason)
	assert.Equal(t, "malformed", reason.AsString())

	panics := metrics["wire.server.handler_panics"].(metricdata.Sum[int64])
	assert.Equal(t, int64(1), panics.DataPoints[0].Value)
}

func TestMonitorContinuesClientTrace(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	m, _, recorder := newTestMonitor(t)
	raw := "GET / HTTP/1.1\r\ntraceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01\r\n\r\n"
	req, err := http.ParseRequest([]byte(raw))
	require.NoError(t, err)
	defer http.ReleaseRequest(req)

	ctx, span := m.StartRequest(context.Background(), req)
	m.EndRequest(ctx, span, "GET", "/", 200, 0)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}

func TestNilMonitor(t *testing.T) {
	var m *Monitor
	ctx := context.Background()

	req, err := http.ParseRequest([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	defer http.ReleaseRequest(req)

	assert.NotPanics(t, func() {
		m.ConnectionOpened(ctx)
		m.ConnectionClosed(ctx)
		m.ParseError(ctx, "malformed")
		m.Panic(ctx)
		spanCtx, span := m.StartRequest(ctx, req)
		m.EndRequest(spanCtx, span, "GET", "/", 200, 0)
	})
}

func TestHeaderCarrier(t *testing.T) {
	h := http.NewHeaders(2)
	c := HeaderCarrier{Headers: &h}

	c.Set("traceparent", "x")
	c.Set("tracestate", "y")
	c.Set("baggage", "dropped")

	assert.Equal(t, "x", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("baggage"))
	assert.Equal(t, []string{"traceparent", "tracestate"}, c.Keys())
}

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}
