package server

import (
	"sync"

	"github.com/nicktill/tinyrec/pkg/telemetry"
)

// Host serialises access to a Recorder. Every call made through Do runs to
// completion before the next one starts.
type Host struct {
	mu       sync.Mutex
	recorder *telemetry.Recorder
}

// NewHost wraps r
func NewHost(r *telemetry.Recorder) *Host {
	return &Host{recorder: r}
}

// Do runs fn with exclusive access to the recorder
func (h *Host) Do(fn func(r *telemetry.Recorder) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.recorder)
}

// Stats is a point-in-time view of recorder sizes
type Stats struct {
	LogMessages int `json:"log_messages"`
	LogCapacity int `json:"log_capacity"`
	MetricDays  int `json:"metric_days"`
}

// Stats reads recorder sizes
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		LogMessages: h.recorder.LogCount(),
		LogCapacity: h.recorder.LogCapacity(),
		MetricDays:  h.recorder.DayCount(),
	}
}
