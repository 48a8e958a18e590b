package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

func validSpanContext() trace.SpanContext {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
}

func TestWithContext(t *testing.T) {
	l, _ := newBufferLogger()

	ctx := WithContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	assert.NotNil(t, FromContext(ctx))
}

func TestWithHelpers_StoreValues(t *testing.T) {
	l, _ := newBufferLogger()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, l, "req-1")
	ctx, _ = WithSource(ctx, FromContext(ctx), "eurostat")
	ctx, _ = WithDataset(ctx, FromContext(ctx), "NAMA_10_GDP")
	ctx, _ = WithJobID(ctx, FromContext(ctx), "job-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "eurostat", GetSource(ctx))
	assert.Equal(t, "NAMA_10_GDP", GetDataset(ctx))
	assert.Equal(t, "job-9", GetJobID(ctx))
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetSource(ctx))
	assert.Empty(t, GetDataset(ctx))
	assert.Empty(t, GetJobID(ctx))
}

func TestL_UsesEnrichedLoggerFromContext(t *testing.T) {
	base, buf := newBufferLogger()
	ctx, _ := WithSource(context.Background(), base, "istat")
	ctx, _ = WithDataset(ctx, FromContext(ctx), "22_289")

	L(ctx).Info("table loaded", zap.Int("rows", 10))

	out := buf.String()
	assert.Contains(t, out, `"source":"istat"`)
	assert.Contains(t, out, `"dataset":"22_289"`)
	assert.Contains(t, out, `"rows":10`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"dataset"`)), "fields must not be duplicated")
}

func TestWithLogger_AddsContextFields(t *testing.T) {
	base, buf := newBufferLogger()
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-aaa")
	ctx = context.WithValue(ctx, DatasetKey, "demo_pjan")

	WithLogger(ctx, base).Info("test")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-aaa"`)
	assert.Contains(t, out, `"dataset":"demo_pjan"`)
	assert.NotContains(t, out, `"job_id"`)
}

func TestContextLogger_With(t *testing.T) {
	base, buf := newBufferLogger()

	WithLogger(context.Background(), base).With(zap.String("view", "v1")).Warn("view skipped")

	assert.Contains(t, buf.String(), `"view":"v1"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}

	assert.NotPanics(t, func() {
		cl.Info("test")
		cl.With(zap.String("k", "v")).Error("test")
	})
}

func TestTraceCorrelation(t *testing.T) {
	base, buf := newBufferLogger()
	ctx := trace.ContextWithSpanContext(context.Background(), validSpanContext())

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
	assert.Equal(t, "00f067aa0ba902b7", GetSpanID(ctx))

	WithTraceContext(ctx, base).Info("traced")
	assert.Contains(t, buf.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
}

func TestTraceCorrelation_NoSpan(t *testing.T) {
	base, _ := newBufferLogger()
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	require.Same(t, base, WithTraceContext(ctx, base))
}
