package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	tel, err := Init(ctx, nil)
	require.NoError(t, err)
	assert.False(t, tel.Enabled())

	tel, err = Init(ctx, &Config{Enabled: false, ServiceName: "test-service"})
	require.NoError(t, err)
	assert.False(t, tel.Enabled())
	assert.NoError(t, tel.Shutdown(ctx))
}

func TestShutdown_NilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestCounter_NoopMeter(t *testing.T) {
	counter, err := NewCounter(MetricOpts{
		Name:        "test_counter",
		Description: "A test counter",
		Unit:        "1",
	})
	require.NoError(t, err)

	counter.Add(context.Background(), 5, SourceAttr("TimeOut"))
	counter.Inc(context.Background(), OutcomeAttr("created"))
}

func TestNilInstruments(t *testing.T) {
	var c *Counter
	var h *Histogram
	c.Inc(context.Background())
	h.Record(context.Background(), 1.5)
}

func TestHistogram_WithBuckets(t *testing.T) {
	h, err := NewHistogram(MetricOpts{Name: "test_duration", Unit: "s"}, 0.1, 1, 10)
	require.NoError(t, err)
	h.Record(context.Background(), 0.42, ResultAttr("ok"))
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}
