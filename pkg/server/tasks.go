package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/config"
	"github.com/nicktill/tinyrec/pkg/server/monitor"
	"github.com/nicktill/tinyrec/pkg/snapshot"
	snapbadger "github.com/nicktill/tinyrec/pkg/snapshot/badger"
	"github.com/nicktill/tinyrec/pkg/telemetry"
)

// Checkpointer writes recorder snapshots to a store
type Checkpointer struct {
	host    *Host
	store   snapshot.Store
	monitor *monitor.CheckpointMonitor
	metrics *Metrics
	logger  *zap.Logger
}

// NewCheckpointer creates a checkpointer
func NewCheckpointer(host *Host, store snapshot.Store, mon *monitor.CheckpointMonitor, m *Metrics, logger *zap.Logger) *Checkpointer {
	return &Checkpointer{
		host:    host,
		store:   store,
		monitor: mon,
		metrics: m,
		logger:  logger.Named("checkpoint"),
	}
}

// Checkpoint exports the recorder and saves it. The recorder is only locked
// for the export; encoding and I/O run unlocked.
func (c *Checkpointer) Checkpoint(ctx context.Context) (int, error) {
	var st snapshot.State
	_ = c.host.Do(func(r *telemetry.Recorder) error {
		st = r.Export()
		return nil
	})

	start := time.Now()
	size, err := snapshot.Save(ctx, c.store, st)
	if err != nil {
		c.monitor.RecordFailure(err)
		c.metrics.CheckpointsTotal.WithLabelValues("failure").Inc()
		return 0, err
	}

	c.monitor.RecordSuccess(size)
	c.metrics.CheckpointsTotal.WithLabelValues("success").Inc()
	c.logger.Debug("Checkpoint written",
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.Int("log_messages", len(st.Logs.Messages)),
		zap.Int("metric_days", len(st.Days)),
		zap.Duration("took", time.Since(start).Round(time.Millisecond)),
	)
	return size, nil
}

// CheckpointStaleAfter is how long the checkpoint monitor waits for a
// success before reporting unhealthy: two missed intervals plus a minute.
// Without periodic checkpoints there is nothing to miss, so it returns zero
// and staleness is not checked.
func CheckpointStaleAfter(interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	return 2*interval + time.Minute
}

// RunCheckpoints saves a snapshot every interval, and once more on stop.
func RunCheckpoints(c *Checkpointer, interval time.Duration, stop chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	save := func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.SnapshotTimeout)
		defer cancel()

		if _, err := c.Checkpoint(ctx); err != nil {
			c.logger.Error("Checkpoint failed", zap.Error(err))
			if status := c.monitor.Status(); status.ConsecutiveErrors > monitor.MaxConsecutiveFailures {
				c.logger.Error("Checkpoints keep failing", zap.Int("consecutive_errors", status.ConsecutiveErrors))
			}
		}
	}

	if interval <= 0 {
		c.logger.Info("Periodic checkpoints disabled, saving on shutdown only")
		<-stop
		save()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("Checkpoint scheduler started", zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			save()
		case <-stop:
			c.logger.Info("Stopping checkpoint scheduler, writing final checkpoint")
			save()
			return
		}
	}
}

// RunSampler records a normal resource sample every interval so idle hosts
// still fill their metrics cells.
func RunSampler(host *Host, m *Metrics, interval time.Duration, logger *zap.Logger, stop chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	if interval <= 0 {
		logger.Info("Periodic sampling disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := host.Do(func(r *telemetry.Recorder) error {
				return r.RecordSample(false)
			})
			if err != nil {
				logger.Warn("Periodic sample failed", zap.Error(err))
				continue
			}
			m.SamplesTotal.WithLabelValues("ticker").Inc()
		case <-stop:
			logger.Info("Stopping sampler")
			return
		}
	}
}

// RunBadgerGC runs BadgerDB value log GC periodically. Every checkpoint
// rewrites the snapshot key, so old versions pile up in the value log.
func RunBadgerGC(store snapshot.Store, logger *zap.Logger, stop chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	badgerStore, ok := store.(*snapbadger.Storage)
	if !ok {
		logger.Info("Snapshot store is not BadgerDB, skipping GC")
		return
	}

	ticker := time.NewTicker(config.BadgerGCInterval)
	defer ticker.Stop()

	logger.Info("BadgerDB GC scheduler started", zap.Duration("interval", config.BadgerGCInterval))

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			before := badgerStore.Size()

			err := badgerStore.RunGC(config.BadgerGCDiscardRatio)
			switch {
			case errors.Is(err, badger.ErrNoRewrite):
				logger.Debug("GC completed (no rewrite needed)", zap.Duration("took", time.Since(start).Round(time.Millisecond)))
			case err != nil:
				logger.Warn("GC failed", zap.Error(err))
			default:
				logger.Info("GC completed (disk space reclaimed)",
					zap.String("before", humanize.Bytes(uint64(before))),
					zap.String("after", humanize.Bytes(uint64(badgerStore.Size()))),
					zap.Duration("took", time.Since(start).Round(time.Millisecond)),
				)
			}
		case <-stop:
			logger.Info("Stopping BadgerDB GC scheduler")
			return
		}
	}
}
