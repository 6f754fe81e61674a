package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/nicktill/tinyrec/pkg/snapshot"
)

func TestMemoryStorage_SaveAndLoad(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("Load error = %v, want %v", err, snapshot.ErrNotFound)
	}

	buf := []byte("state")
	if err := store.Save(ctx, buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	buf[0] = 'X'

	data, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "state" {
		t.Errorf("Load = %q, want %q (store must copy input)", data, "state")
	}
	if store.Size() != 5 {
		t.Errorf("Size() = %d, want 5", store.Size())
	}
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Save error = %v, want %v", err, context.Canceled)
	}
}
