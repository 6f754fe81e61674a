package telemetry

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/logring"
	"github.com/nicktill/tinyrec/pkg/metrics"
	"github.com/nicktill/tinyrec/pkg/snapshot"
)

var (
	// ErrVersionMismatch is returned by Import for snapshots of another format
	ErrVersionMismatch = errors.New("telemetry: snapshot version mismatch")

	// ErrInvalidDay is returned by Import for day keys that are not real
	// dates or appear more than once
	ErrInvalidDay = errors.New("telemetry: invalid snapshot day")
)

// Export copies the whole recorder state
func (r *Recorder) Export() snapshot.State {
	st := snapshot.State{
		Version: snapshot.Version,
		Logs:    r.logs.Export(),
		Days:    make([]snapshot.Day, 0, r.days.Len()),
	}

	for _, key := range r.days.Days() {
		b, _ := r.days.Bucket(key)
		c := b.Clone()
		st.Days = append(st.Days, snapshot.Day{
			Key:               key,
			CallCount:         c.CallCount,
			HeapSize:          c.HeapSize,
			MemorySize:        c.MemorySize,
			AvailableResource: c.AvailableResource,
		})
	}
	return st
}

// Import replaces the recorder state with st. Nothing changes on error.
func (r *Recorder) Import(st snapshot.State) error {
	if st.Version != snapshot.Version {
		return fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, st.Version, snapshot.Version)
	}

	logs, err := logring.Restore(st.Logs)
	if err != nil {
		return err
	}

	days := metrics.NewStore()
	for _, d := range st.Days {
		if !d.Key.Valid() {
			return fmt.Errorf("%w: key %#x is not a calendar date", ErrInvalidDay, uint32(d.Key))
		}
		if _, dup := days.Bucket(d.Key); dup {
			return fmt.Errorf("%w: %s appears twice", ErrInvalidDay, d.Key)
		}
		bucket := &metrics.DayBucket{
			CallCount:         append([]uint64(nil), d.CallCount...),
			HeapSize:          append([]uint64(nil), d.HeapSize...),
			MemorySize:        append([]uint64(nil), d.MemorySize...),
			AvailableResource: append([]uint64(nil), d.AvailableResource...),
		}
		if err := days.Put(d.Key, bucket); err != nil {
			return fmt.Errorf("day %s: %w", d.Key, err)
		}
	}

	r.logs = logs
	r.days = days
	return nil
}

// Restore creates a recorder from st. A snapshot that cannot be imported is
// logged and skipped, leaving the recorder empty.
func Restore(st snapshot.State, opts Options, logger *zap.Logger) (*Recorder, error) {
	r, err := New(opts)
	if err != nil {
		return nil, err
	}

	if err := r.Import(st); err != nil {
		logger.Warn("Snapshot not restored, starting empty",
			zap.Int("snapshot_version", st.Version),
			zap.Int("expected_version", snapshot.Version),
			zap.Error(err),
		)
		return r, nil
	}

	logger.Info("Snapshot restored",
		zap.Int("log_messages", r.LogCount()),
		zap.Int("log_capacity", r.LogCapacity()),
		zap.Int("metric_days", r.DayCount()),
	)
	return r, nil
}
