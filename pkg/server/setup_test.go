package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/config"
	"github.com/nicktill/tinyrec/pkg/snapshot"
	snapbadger "github.com/nicktill/tinyrec/pkg/snapshot/badger"
	"github.com/nicktill/tinyrec/pkg/snapshot/memory"
	"github.com/nicktill/tinyrec/pkg/telemetry"
)

type brokenStore struct{ memory.Storage }

func (b *brokenStore) Load(context.Context) ([]byte, error) { return nil, errors.New("io error") }

func testConfig() *config.Config {
	return &config.Config{
		LogCapacity:      10,
		MaxMessageLength: 64,
	}
}

func TestInitializeSnapshotStore(t *testing.T) {
	cfg := testConfig()

	cfg.SnapshotBackend = config.BackendMemory
	store, err := InitializeSnapshotStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, store)

	cfg.SnapshotBackend = config.BackendBadger
	cfg.DataDir = t.TempDir() + "/nested/data"
	store, err = InitializeSnapshotStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &snapbadger.Storage{}, store)
	require.NoError(t, store.Close())

	cfg.SnapshotBackend = "s3"
	_, err = InitializeSnapshotStore(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestInitializeRecorder(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: testStartNanos}
	supplier := &fakeSupplier{}

	t.Run("empty store", func(t *testing.T) {
		rec, err := InitializeRecorder(ctx, memory.New(), testConfig(), clock, supplier, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 0, rec.LogCount())
		assert.Equal(t, 10, rec.LogCapacity())
		assert.Equal(t, 64, rec.MaxMessageLength())
	})

	t.Run("restores snapshot", func(t *testing.T) {
		src, err := telemetry.New(telemetry.Options{LogCapacity: 3, Clock: clock, Supplier: supplier})
		require.NoError(t, err)
		src.AppendLog("one")
		src.AppendLog("two")

		store := memory.New()
		_, err = snapshot.Save(ctx, store, src.Export())
		require.NoError(t, err)

		rec, err := InitializeRecorder(ctx, store, testConfig(), clock, supplier, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 2, rec.LogCount())
		assert.Equal(t, 3, rec.LogCapacity())
	})

	t.Run("corrupt snapshot starts empty", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Save(ctx, []byte("not a snapshot")))

		rec, err := InitializeRecorder(ctx, store, testConfig(), clock, supplier, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 0, rec.LogCount())
	})

	t.Run("store error is fatal", func(t *testing.T) {
		_, err := InitializeRecorder(ctx, &brokenStore{}, testConfig(), clock, supplier, zap.NewNop())
		assert.Error(t, err)
	})
}
