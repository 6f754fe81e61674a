// Package telemetry ties the log ring and the metrics store into one
// recorder that a host drives call by call.
//
// A Recorder is not safe for concurrent use. Hosts serialise calls so each
// one runs to completion before the next starts.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/nicktill/tinyrec/pkg/logquery"
	"github.com/nicktill/tinyrec/pkg/logring"
	"github.com/nicktill/tinyrec/pkg/metrics"
)

// ErrMissingDependency is returned when Options lacks a clock or supplier
var ErrMissingDependency = errors.New("telemetry: clock and supplier are required")

// Clock reads wall-clock time. Readings may repeat or go backwards.
type Clock interface {
	NowNanos() int64
}

// ResourceSupplier reads current resource usage
type ResourceSupplier interface {
	Sample() metrics.Sample
}

// Options configures a Recorder
type Options struct {
	// LogCapacity is the initial ring size (0 = logring.DefaultCapacity)
	LogCapacity int

	// MaxMessageLength caps message text in bytes (0 = logring.DefaultMaxMessageLength)
	MaxMessageLength int

	Clock    Clock
	Supplier ResourceSupplier
}

// Recorder owns the log ring and metrics store
type Recorder struct {
	logs      *logring.Store
	days      *metrics.Store
	collector *logring.Collector
	clock     Clock
	supplier  ResourceSupplier
}

// New creates an empty recorder
func New(opts Options) (*Recorder, error) {
	if opts.Clock == nil || opts.Supplier == nil {
		return nil, ErrMissingDependency
	}

	capacity := opts.LogCapacity
	if capacity == 0 {
		capacity = logring.DefaultCapacity
	}
	logs, err := logring.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	return &Recorder{
		logs:      logs,
		days:      metrics.NewStore(),
		collector: logring.NewCollector(opts.Clock.NowNanos, opts.MaxMessageLength),
		clock:     opts.Clock,
		supplier:  opts.Supplier,
	}, nil
}

// AppendLog stores one log line and returns it as stored
func (r *Recorder) AppendLog(text string) logring.Message {
	return r.collector.Collect(r.logs, text)
}

// SetLogCapacity resizes the log ring
func (r *Recorder) SetLogCapacity(capacity int) error {
	return r.logs.Resize(capacity)
}

// QueryLogs returns one page of log messages
func (r *Recorder) QueryLogs(req logquery.Request) (logquery.Result, error) {
	return logquery.Page(r.logs, req)
}

// LogInfo describes the log ring
func (r *Recorder) LogInfo() logquery.Info {
	return logquery.Describe(r.logs)
}

// RecordSample counts one sample at the current time. With force set the
// current cell's resource values are re-read even if already present.
func (r *Recorder) RecordSample(force bool) error {
	return metrics.Record(r.days, r.clock.NowNanos(), force, r.supplier.Sample)
}

// QueryMetrics projects recorded samples between two millisecond instants
func (r *Recorder) QueryMetrics(fromMillis, toMillis int64, granularity metrics.Granularity) (metrics.Result, error) {
	return metrics.Query(r.days, fromMillis, toMillis, granularity)
}

// LogCount returns the number of stored log messages
func (r *Recorder) LogCount() int { return r.logs.Count() }

// LogCapacity returns the log ring capacity
func (r *Recorder) LogCapacity() int { return r.logs.Capacity() }

// DayCount returns the number of days with metrics
func (r *Recorder) DayCount() int { return r.days.Len() }

// MaxMessageLength returns the byte limit for log text
func (r *Recorder) MaxMessageLength() int { return r.collector.MaxLength() }
