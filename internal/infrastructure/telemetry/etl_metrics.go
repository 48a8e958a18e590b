package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// ETLMetrics counts what the pipelines load. A nil *ETLMetrics is valid
// and records nothing, so callers never need to check.
type ETLMetrics struct {
	datasetsLoaded *Counter
	rowsLoaded     *Counter
	viewsCreated   *Counter
	fetchRetries   *Counter
	fetchDuration  *Histogram
}

// NewETLMetrics registers the ETL instruments on meter
func NewETLMetrics(meter metric.Meter) (*ETLMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &ETLMetrics{}
	var err error
	if m.datasetsLoaded, err = NewCounter(meter,
		"statload_datasets_loaded_total", "Datasets and dataflows materialized", "{datasets}"); err != nil {
		return nil, err
	}
	if m.rowsLoaded, err = NewCounter(meter,
		"statload_rows_loaded_total", "Rows copied into dataset tables", "{rows}"); err != nil {
		return nil, err
	}
	if m.viewsCreated, err = NewCounter(meter,
		"statload_views_created_total", "Views created or replaced", "{views}"); err != nil {
		return nil, err
	}
	if m.fetchRetries, err = NewCounter(meter,
		"statload_fetch_retries_total", "Upstream requests retried", "{retries}"); err != nil {
		return nil, err
	}
	if m.fetchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "statload_fetch_duration_seconds",
		Description: "Duration of upstream downloads including retries",
		Unit:        "s",
		Boundaries:  FetchDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordDatasetLoaded counts one loaded dataset and its rows
func (m *ETLMetrics) RecordDatasetLoaded(ctx context.Context, source, dataset string, rows int64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrSource.String(source)}
	m.datasetsLoaded.Inc(ctx, attrs...)
	m.rowsLoaded.Add(ctx, rows, append(attrs, AttrDataset.String(dataset))...)
}

// RecordViewCreated counts one created view
func (m *ETLMetrics) RecordViewCreated(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.viewsCreated.Inc(ctx, AttrSource.String(source))
}

// RecordFetch records a finished download
func (m *ETLMetrics) RecordFetch(ctx context.Context, host string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fetchDuration.RecordDuration(ctx, d, AttrHost.String(host), AttrOutcome.String(outcome))
}

// RecordRetry counts one retried request
func (m *ETLMetrics) RecordRetry(ctx context.Context, host string) {
	if m == nil {
		return
	}
	m.fetchRetries.Inc(ctx, AttrHost.String(host))
}
