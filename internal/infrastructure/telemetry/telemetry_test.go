package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/statload/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{ServiceName: "statload"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewETLMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewETLMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, m)
}

func TestETLMetrics_NilReceiver(t *testing.T) {
	var m *telemetry.ETLMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordDatasetLoaded(ctx, "eurostat", "nama_10_gdp", 10)
		m.RecordViewCreated(ctx, "eurostat")
		m.RecordFetch(ctx, "ec.europa.eu", time.Second, nil)
		m.RecordRetry(ctx, "ec.europa.eu")
	})
}

func TestETLMetrics_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	ctx := context.Background()

	m, err := telemetry.NewETLMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.RecordDatasetLoaded(ctx, "istat", "22_289", 1500)
	m.RecordDatasetLoaded(ctx, "istat", "41_983", 500)
	m.RecordViewCreated(ctx, "istat")
	m.RecordRetry(ctx, "esploradati.istat.it")
	m.RecordFetch(ctx, "esploradati.istat.it", 2*time.Second, errors.New("boom"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	var histogramSeen bool
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[md.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				histogramSeen = md.Name == "statload_fetch_duration_seconds"
			}
		}
	}

	assert.Equal(t, int64(2), sums["statload_datasets_loaded_total"])
	assert.Equal(t, int64(2000), sums["statload_rows_loaded_total"])
	assert.Equal(t, int64(1), sums["statload_views_created_total"])
	assert.Equal(t, int64(1), sums["statload_fetch_retries_total"])
	assert.True(t, histogramSeen)
}

func TestNewETLMetrics_Noop(t *testing.T) {
	m, err := telemetry.NewETLMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	m.RecordViewCreated(context.Background(), "eurostat")
}

func TestStartSpanAndEnd(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := telemetry.StartSpan(context.Background(), "istat.load", "dataflow", "22_289", "rows", 10, 42)
	telemetry.End(span, errors.New("copy failed"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "istat.load", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "22_289", attrs["dataflow"])
	assert.Equal(t, "10", attrs["rows"])
	assert.Len(t, attrs, 2, "trailing value without a key is dropped")
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	t.Run("disabled registers nothing", func(t *testing.T) {
		require.NoError(t, telemetry.RegisterDBTracing(db, telemetry.DefaultDBTracingConfig(), zap.NewNop()))
	})

	t.Run("enabled registers callbacks", func(t *testing.T) {
		cfg := telemetry.DefaultDBTracingConfig()
		cfg.Enabled = true
		require.NoError(t, telemetry.RegisterDBTracing(db, cfg, zap.NewNop()))

		var n int
		require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)
		assert.Equal(t, 1, n)
	})
}
