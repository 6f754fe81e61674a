package snapshot

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no snapshot has been saved
var ErrNotFound = errors.New("snapshot: not found")

// Store keeps the single current snapshot blob.
// Implementations: memory (testing), badger (production)
type Store interface {
	// Save replaces the current snapshot
	Save(ctx context.Context, data []byte) error

	// Load returns the current snapshot or ErrNotFound
	Load(ctx context.Context) ([]byte, error)

	// Size reports bytes used by the store
	Size() int64

	// Close cleanly shuts down the store
	Close() error
}

// Save encodes st and writes it to store. It returns the frame size.
func Save(ctx context.Context, store Store, st State) (int, error) {
	data, err := Encode(st)
	if err != nil {
		return 0, err
	}
	if err := store.Save(ctx, data); err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return len(data), nil
}

// Load reads and decodes the current snapshot from store
func Load(ctx context.Context, store Store) (State, error) {
	data, err := store.Load(ctx)
	if err != nil {
		return State{}, err
	}
	return Decode(data)
}
