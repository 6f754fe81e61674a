package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the server's Prometheus instrumentation
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	CheckpointsTotal *prometheus.CounterVec
	SamplesTotal     *prometheus.CounterVec
}

// NewMetrics registers server metrics and a recorder collector with reg
func NewMetrics(reg prometheus.Registerer, host *Host) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinyrec_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tinyrec_http_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"method", "route"},
		),
		CheckpointsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinyrec_checkpoints_total",
				Help: "Total number of snapshot checkpoints",
			},
			[]string{"status"},
		),
		SamplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tinyrec_samples_total",
				Help: "Total number of recorded resource samples",
			},
			[]string{"source"}, // source: request/ticker/api
		),
	}

	reg.MustRegister(newRecorderCollector(host))
	return m
}

// recorderCollector reads recorder sizes at scrape time
type recorderCollector struct {
	host        *Host
	logMessages *prometheus.Desc
	logCapacity *prometheus.Desc
	metricDays  *prometheus.Desc
}

func newRecorderCollector(host *Host) *recorderCollector {
	return &recorderCollector{
		host:        host,
		logMessages: prometheus.NewDesc("tinyrec_log_messages", "Log messages currently stored", nil, nil),
		logCapacity: prometheus.NewDesc("tinyrec_log_capacity", "Log ring capacity", nil, nil),
		metricDays:  prometheus.NewDesc("tinyrec_metric_days", "Days with recorded samples", nil, nil),
	}
}

func (c *recorderCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.logMessages
	ch <- c.logCapacity
	ch <- c.metricDays
}

func (c *recorderCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.host.Stats()
	ch <- prometheus.MustNewConstMetric(c.logMessages, prometheus.GaugeValue, float64(s.LogMessages))
	ch <- prometheus.MustNewConstMetric(c.logCapacity, prometheus.GaugeValue, float64(s.LogCapacity))
	ch <- prometheus.MustNewConstMetric(c.metricDays, prometheus.GaugeValue, float64(s.MetricDays))
}
