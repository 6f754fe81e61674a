package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nicktill/tinyrec/pkg/client/transport"
)

// Config holds configuration for the batcher
type Config struct {
	MaxBatchSize int
	FlushEvery   time.Duration

	// OnError receives send failures (nil = dropped silently)
	OnError func(err error, lines int)
}

// Batcher buffers log lines and ships them periodically
type Batcher struct {
	config    Config
	transport transport.Transport

	lines []string
	mu    sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	flushing atomic.Bool // one background flush at a time
	inflight sync.WaitGroup
}

// New creates a new batcher
func New(transport transport.Transport, config Config) *Batcher {
	return &Batcher{
		config:    config,
		transport: transport,
		lines:     make([]string, 0, config.MaxBatchSize),
		done:      make(chan struct{}),
	}
}

// Start starts the flush loop
func (b *Batcher) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	go b.flushLoop()
	return nil
}

// Add queues a line. A full batch is flushed in the background unless a
// flush is already running.
func (b *Batcher) Add(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	shouldFlush := len(b.lines) >= b.config.MaxBatchSize
	b.mu.Unlock()

	if shouldFlush && b.flushing.CompareAndSwap(false, true) {
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.flush()
			b.flushing.Store(false)
		}()
	}
}

// Pending returns the number of queued lines
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Flush sends every queued line now, in batches of at most MaxBatchSize
func (b *Batcher) Flush(ctx context.Context) error {
	for {
		batch := b.take()
		if len(batch) == 0 {
			return nil
		}
		if err := b.send(ctx, batch); err != nil {
			return err
		}
	}
}

// Stop stops the flush loop, waits for background sends and flushes what is left
func (b *Batcher) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	b.inflight.Wait()
	return b.Flush(ctx)
}

func (b *Batcher) flushLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.config.FlushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			if b.flushing.CompareAndSwap(false, true) {
				b.flush()
				b.flushing.Store(false)
			}
		}
	}
}

// flush sends one batch, reporting failures through OnError
func (b *Batcher) flush() {
	batch := b.take()
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.send(ctx, batch); err != nil && b.config.OnError != nil {
		b.config.OnError(err, len(batch))
	}
}

// take removes up to MaxBatchSize lines from the front of the queue
func (b *Batcher) take() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(len(b.lines), b.config.MaxBatchSize)
	if n == 0 {
		return nil
	}
	batch := make([]string, n)
	copy(batch, b.lines[:n])
	b.lines = append(b.lines[:0], b.lines[n:]...)
	return batch
}

func (b *Batcher) send(ctx context.Context, batch []string) error {
	return b.transport.Send(ctx, batch)
}
