package memory

import (
	"context"
	"sync"

	"github.com/nicktill/tinyrec/pkg/snapshot"
)

// Storage keeps the snapshot in memory. Data is lost on restart.
// Useful for testing and development.
type Storage struct {
	mu   sync.RWMutex
	data []byte
}

// New creates an in-memory snapshot store
func New() *Storage {
	return &Storage{}
}

// Save replaces the current snapshot
func (s *Storage) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append([]byte(nil), data...)
	return nil
}

// Load returns a copy of the current snapshot
func (s *Storage) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, snapshot.ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

// Size returns the snapshot size in bytes
func (s *Storage) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data))
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}
