package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/snapshot"
)

// currentKey holds the one live snapshot
var currentKey = []byte("snapshot/current")

// Storage implements snapshot.Store using BadgerDB
type Storage struct {
	db *badger.DB
}

// Config holds BadgerDB configuration
type Config struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = use defaults)
	MaxMemoryMB int64

	// Logger receives BadgerDB's internal messages (nil = silent)
	Logger *zap.Logger
}

// New opens a BadgerDB snapshot store
func New(cfg Config) (*Storage, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.Logger != nil {
		opts = opts.WithLogger(newZapLogger(cfg.Logger))
	}

	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// A snapshot store sees one large value rewritten periodically.
	// Keep the memtable small and push the value into the value log.
	memTableSize := int64(16 << 20)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB << 20 / 3
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(2).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithNumCompactors(2).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Storage{db: db}, nil
}

// Save replaces the current snapshot
func (s *Storage) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(currentKey, data)
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("save operation cancelled: %w", ctx.Err())
	}
}

// Load returns the current snapshot, or snapshot.ErrNotFound
func (s *Storage) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type loadResult struct {
		data []byte
		err  error
	}
	done := make(chan loadResult, 1)

	go func() {
		var res loadResult
		res.err = s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(currentKey)
			if err != nil {
				return err
			}
			res.data, err = item.ValueCopy(nil)
			return err
		})
		done <- res
	}()

	select {
	case res := <-done:
		if errors.Is(res.err, badger.ErrKeyNotFound) {
			return nil, snapshot.ErrNotFound
		}
		if res.err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", res.err)
		}
		return res.data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("load operation cancelled: %w", ctx.Err())
	}
}

// Size returns LSM plus value log size in bytes
func (s *Storage) Size() int64 {
	lsm, vlog := s.db.Size()
	return lsm + vlog
}

// RunGC runs BadgerDB's value log garbage collection.
// Old snapshot versions live in the value log until GC reclaims them.
// Returns badger.ErrNoRewrite when there was nothing to collect.
func (s *Storage) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// Close shuts down BadgerDB cleanly
func (s *Storage) Close() error {
	return s.db.Close()
}
