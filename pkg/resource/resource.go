// Package resource reads wall-clock time and Go runtime memory usage for the
// recorder.
package resource

import (
	"runtime"
	"time"

	"github.com/nicktill/tinyrec/pkg/metrics"
)

// SystemClock reads the wall clock
type SystemClock struct{}

// NowNanos returns nanoseconds since the Unix epoch
func (SystemClock) NowNanos() int64 {
	return time.Now().UnixNano()
}

// Supplier samples Go runtime memory statistics.
//
// Available resource is the configured budget minus memory obtained from
// the OS, floored at zero. A zero budget always reports zero.
type Supplier struct {
	budget uint64
	read   func(*runtime.MemStats)
}

// NewSupplier creates a supplier with the given budget in bytes
func NewSupplier(budgetBytes uint64) *Supplier {
	return &Supplier{budget: budgetBytes, read: runtime.ReadMemStats}
}

// Sample reads current usage. ReadMemStats stops the world briefly.
func (s *Supplier) Sample() metrics.Sample {
	var m runtime.MemStats
	s.read(&m)

	var available uint64
	if s.budget > m.Sys {
		available = s.budget - m.Sys
	}

	return metrics.Sample{
		HeapSize:          m.HeapAlloc,
		MemorySize:        m.Sys,
		AvailableResource: available,
	}
}

// Budget returns the configured budget in bytes
func (s *Supplier) Budget() uint64 {
	return s.budget
}
