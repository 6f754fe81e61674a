package server

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/config"
	"github.com/nicktill/tinyrec/pkg/snapshot"
	snapbadger "github.com/nicktill/tinyrec/pkg/snapshot/badger"
	"github.com/nicktill/tinyrec/pkg/snapshot/memory"
	"github.com/nicktill/tinyrec/pkg/telemetry"
)

// InitializeSnapshotStore opens the snapshot backend named in cfg.
func InitializeSnapshotStore(cfg *config.Config, logger *zap.Logger) (snapshot.Store, error) {
	switch cfg.SnapshotBackend {
	case config.BackendMemory:
		logger.Warn("Using in-memory snapshot store, state is lost on restart")
		return memory.New(), nil
	case config.BackendBadger:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		logger.Info("Initializing BadgerDB snapshot store", zap.String("path", cfg.DataDir))
		store, err := snapbadger.New(snapbadger.Config{
			Path:        cfg.DataDir,
			MaxMemoryMB: cfg.MaxMemoryMB,
			Logger:      logger.Named("badger"),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

// InitializeRecorder restores the recorder from the last snapshot in store.
// A missing or unreadable snapshot starts an empty recorder; only a broken
// store is fatal.
func InitializeRecorder(ctx context.Context, store snapshot.Store, cfg *config.Config, clock telemetry.Clock, supplier telemetry.ResourceSupplier, logger *zap.Logger) (*telemetry.Recorder, error) {
	opts := telemetry.Options{
		LogCapacity:      cfg.LogCapacity,
		MaxMessageLength: cfg.MaxMessageLength,
		Clock:            clock,
		Supplier:         supplier,
	}

	ctx, cancel := context.WithTimeout(ctx, config.SnapshotTimeout)
	defer cancel()

	st, err := snapshot.Load(ctx, store)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		logger.Info("No snapshot found, starting empty")
		return telemetry.New(opts)
	case errors.Is(err, snapshot.ErrCorrupt), errors.Is(err, snapshot.ErrChecksumMismatch):
		logger.Warn("Snapshot unreadable, starting empty", zap.Error(err))
		return telemetry.New(opts)
	case err != nil:
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return telemetry.Restore(st, opts, logger)
}
