package resource

import (
	"runtime"
	"testing"
	"time"
)

func fakeStats(heap, sys uint64) func(*runtime.MemStats) {
	return func(m *runtime.MemStats) {
		m.HeapAlloc = heap
		m.Sys = sys
	}
}

func TestSupplier_Sample(t *testing.T) {
	tests := []struct {
		name          string
		budget        uint64
		heap, sys     uint64
		wantAvailable uint64
	}{
		{"within budget", 1000, 100, 400, 600},
		{"over budget", 300, 100, 400, 0},
		{"no budget", 0, 100, 400, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Supplier{budget: tt.budget, read: fakeStats(tt.heap, tt.sys)}
			got := s.Sample()
			if got.HeapSize != tt.heap || got.MemorySize != tt.sys || got.AvailableResource != tt.wantAvailable {
				t.Errorf("Sample() = %+v, want heap=%d memory=%d available=%d",
					got, tt.heap, tt.sys, tt.wantAvailable)
			}
		})
	}
}

func TestSupplier_RealRuntime(t *testing.T) {
	s := NewSupplier(1 << 40)
	got := s.Sample()
	if got.HeapSize == 0 || got.MemorySize == 0 {
		t.Errorf("Sample() = %+v, expected non-zero heap and memory", got)
	}
	if got.AvailableResource == 0 {
		t.Error("expected available resource under a 1 TiB budget")
	}
}

func TestSystemClock(t *testing.T) {
	before := time.Now().UnixNano()
	got := SystemClock{}.NowNanos()
	after := time.Now().UnixNano()
	if got < before || got > after {
		t.Errorf("NowNanos() = %d, want within [%d, %d]", got, before, after)
	}
}
