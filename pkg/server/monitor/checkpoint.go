package monitor

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// MaxConsecutiveFailures is how many failed checkpoints in a row are tolerated
const MaxConsecutiveFailures = 3

// CheckpointMonitor tracks snapshot checkpoint health and failures.
type CheckpointMonitor struct {
	mu                sync.RWMutex
	staleAfter        time.Duration
	lastSuccess       time.Time
	lastAttempt       time.Time
	lastSize          int
	consecutiveErrors int
	lastError         string
}

// NewCheckpointMonitor creates a monitor that reports unhealthy when no
// checkpoint succeeded within staleAfter. Zero disables the staleness check.
func NewCheckpointMonitor(staleAfter time.Duration) *CheckpointMonitor {
	return &CheckpointMonitor{staleAfter: staleAfter}
}

// RecordSuccess records a successful checkpoint of size bytes.
func (cm *CheckpointMonitor) RecordSuccess(size int) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	now := time.Now()
	cm.lastSuccess = now
	cm.lastAttempt = now
	cm.lastSize = size
	cm.consecutiveErrors = 0
	cm.lastError = ""
}

// RecordFailure records a failed checkpoint.
func (cm *CheckpointMonitor) RecordFailure(err error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastAttempt = time.Now()
	cm.consecutiveErrors++
	if err != nil {
		cm.lastError = err.Error()
	}
}

// IsHealthy returns true if checkpoints are working.
// Unhealthy conditions:
//   - More than MaxConsecutiveFailures failures in a row
//   - Attempted but no success within staleAfter
func (cm *CheckpointMonitor) IsHealthy() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.healthyLocked()
}

func (cm *CheckpointMonitor) healthyLocked() bool {
	if cm.consecutiveErrors > MaxConsecutiveFailures {
		return false
	}
	if cm.staleAfter > 0 && !cm.lastAttempt.IsZero() {
		if cm.lastSuccess.IsZero() || time.Since(cm.lastSuccess) > cm.staleAfter {
			return false
		}
	}
	return true
}

// CheckpointStatus is the checkpoint section of the health response.
type CheckpointStatus struct {
	Healthy           bool   `json:"healthy"`
	LastSuccess       string `json:"last_success,omitempty"`
	TimeSinceSuccess  string `json:"time_since_success,omitempty"`
	LastSize          string `json:"last_size,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns current checkpoint status for health checks.
func (cm *CheckpointMonitor) Status() CheckpointStatus {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	status := CheckpointStatus{
		Healthy: cm.healthyLocked(),
	}

	if !cm.lastSuccess.IsZero() {
		status.LastSuccess = cm.lastSuccess.Format(time.RFC3339)
		status.TimeSinceSuccess = time.Since(cm.lastSuccess).Round(time.Second).String()
		status.LastSize = humanize.Bytes(uint64(cm.lastSize))
	}

	if !cm.lastAttempt.IsZero() {
		status.LastAttempt = cm.lastAttempt.Format(time.RFC3339)
	}

	if cm.consecutiveErrors > 0 {
		status.ConsecutiveErrors = cm.consecutiveErrors
		status.LastError = cm.lastError
	}

	return status
}
