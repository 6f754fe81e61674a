package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// mockTransport records every batch it is sent
type mockTransport struct {
	mu      sync.Mutex
	batches [][]string
	sendErr error
}

func (m *mockTransport) Send(ctx context.Context, batch []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batchCopy := make([]string, len(batch))
	copy(batchCopy, batch)
	m.batches = append(m.batches, batchCopy)
	return m.sendErr
}

func (m *mockTransport) getBatches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([][]string, len(m.batches))
	copy(result, m.batches)
	return result
}

func (m *mockTransport) totalLines() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, batch := range m.batches {
		total += len(batch)
	}
	return total
}

func TestFlush_SplitsIntoBatches(t *testing.T) {
	transport := &mockTransport{}
	b := New(transport, Config{MaxBatchSize: 3, FlushEvery: time.Hour})

	// below the threshold, so Add never flushes in the background
	b.lines = append(b.lines, "1", "2", "3", "4", "5", "6", "7")

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	batches := transport.getBatches()
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	sizes := []int{len(batches[0]), len(batches[1]), len(batches[2])}
	if sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Errorf("Unexpected batch sizes %v", sizes)
	}
	if batches[0][0] != "1" || batches[2][0] != "7" {
		t.Errorf("Lines out of order: %v", batches)
	}
	if b.Pending() != 0 {
		t.Errorf("Expected empty queue, got %d", b.Pending())
	}
}

func TestAdd_FlushesFullBatch(t *testing.T) {
	transport := &mockTransport{}
	b := New(transport, Config{MaxBatchSize: 10, FlushEvery: time.Hour})
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		b.Add(fmt.Sprintf("line %d", i))
	}

	deadline := time.Now().Add(time.Second)
	for transport.totalLines() < 10 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := transport.totalLines(); got != 10 {
		t.Errorf("Expected 10 lines sent, got %d", got)
	}

	if err := b.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestFlushLoop_Periodic(t *testing.T) {
	transport := &mockTransport{}
	b := New(transport, Config{MaxBatchSize: 100, FlushEvery: 10 * time.Millisecond})
	b.Start(context.Background())

	b.Add("tick")

	deadline := time.Now().Add(time.Second)
	for transport.totalLines() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if transport.totalLines() != 1 {
		t.Errorf("Expected periodic flush to send 1 line, got %d", transport.totalLines())
	}

	b.Stop(context.Background())
}

func TestStop_FlushesRemaining(t *testing.T) {
	transport := &mockTransport{}
	b := New(transport, Config{MaxBatchSize: 100, FlushEvery: time.Hour})
	b.Start(context.Background())

	b.Add("a")
	b.Add("b")

	if err := b.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if transport.totalLines() != 2 {
		t.Errorf("Expected 2 lines flushed on stop, got %d", transport.totalLines())
	}
}

func TestFlush_ReportsErrors(t *testing.T) {
	transport := &mockTransport{sendErr: errors.New("connection refused")}

	var mu sync.Mutex
	var reported int
	b := New(transport, Config{
		MaxBatchSize: 100,
		FlushEvery:   10 * time.Millisecond,
		OnError: func(err error, lines int) {
			mu.Lock()
			reported += lines
			mu.Unlock()
		},
	})
	b.Start(context.Background())
	b.Add("lost")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		r := reported
		mu.Unlock()
		if r == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if reported != 1 {
		t.Errorf("Expected 1 reported line, got %d", reported)
	}
	b.cancel()
}

func TestFlush_ReturnsSyncError(t *testing.T) {
	transport := &mockTransport{sendErr: errors.New("boom")}
	b := New(transport, Config{MaxBatchSize: 5, FlushEvery: time.Hour})
	b.lines = append(b.lines, "x")

	if err := b.Flush(context.Background()); err == nil {
		t.Error("Expected Flush to return the transport error")
	}
}
