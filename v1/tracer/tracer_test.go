package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tr := newTracer(Config{ServiceName: "test", AppEnv: "test"}, nopLogger{}, sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, recorder
}

func TestNewClientInstallsGlobalProvider(t *testing.T) {
	tr := NewClient(Config{ServiceName: "test"}, nopLogger{})
	require.NotNil(t, tr)
	defer tr.Shutdown(context.Background())

	assert.Same(t, tr.tracer, otel.GetTracerProvider())
}

func TestStartSpanAndRecordError(t *testing.T) {
	tr, recorder := newRecordingTracer(t)

	_, span := tr.StartSpan(context.Background(), "guestbook.post")
	tr.SetAttributes(span, map[string]interface{}{
		"table": "messages",
		"rows":  2,
		"ok":    false,
		"other": []string{"x"},
	})
	tr.RecordErrorOnSpan(span, errors.New("insert failed"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "guestbook.post", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Attributes(), 4)
}

func TestCarrierRoundTrip(t *testing.T) {
	tr, _ := newRecordingTracer(t)

	ctx, span := tr.StartSpan(context.Background(), "parent")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	extracted := tr.SetCarrierOnContext(context.Background(), carrier)
	_, child := tr.StartSpan(extracted, "child")
	defer child.End()

	assert.Equal(t, span.SpanContext().TraceID(), child.SpanContext().TraceID())
}

func TestShutdownNilProvider(t *testing.T) {
	tr := &Tracer{logger: nopLogger{}}
	assert.NoError(t, tr.Shutdown(context.Background()))
}
