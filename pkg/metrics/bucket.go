package metrics

import (
	"fmt"
	"time"
)

const (
	// CellSeconds is the width of one bucket cell
	CellSeconds = 300

	// CellsPerDay is the number of cells in a DayBucket
	CellsPerDay = 24 * 60 * 60 / CellSeconds
)

// Sample is one reading of process resource usage
type Sample struct {
	HeapSize          uint64 `json:"heapSize"`
	MemorySize        uint64 `json:"memorySize"`
	AvailableResource uint64 `json:"availableResource"`
}

// DayBucket holds one calendar day of samples. All arrays have length CellsPerDay.
type DayBucket struct {
	CallCount         []uint64
	HeapSize          []uint64
	MemorySize        []uint64
	AvailableResource []uint64
}

// NewDayBucket returns a zeroed bucket
func NewDayBucket() *DayBucket {
	return &DayBucket{
		CallCount:         make([]uint64, CellsPerDay),
		HeapSize:          make([]uint64, CellsPerDay),
		MemorySize:        make([]uint64, CellsPerDay),
		AvailableResource: make([]uint64, CellsPerDay),
	}
}

// Validate checks that every array has exactly CellsPerDay cells
func (b *DayBucket) Validate() error {
	arrays := []struct {
		name   string
		values []uint64
	}{
		{"callCount", b.CallCount},
		{"heapSize", b.HeapSize},
		{"memorySize", b.MemorySize},
		{"availableResource", b.AvailableResource},
	}
	for _, a := range arrays {
		if len(a.values) != CellsPerDay {
			return fmt.Errorf("%w: %s has %d cells, want %d", ErrInvalidBucket, a.name, len(a.values), CellsPerDay)
		}
	}
	return nil
}

// Clone returns a deep copy
func (b *DayBucket) Clone() *DayBucket {
	return &DayBucket{
		CallCount:         append([]uint64(nil), b.CallCount...),
		HeapSize:          append([]uint64(nil), b.HeapSize...),
		MemorySize:        append([]uint64(nil), b.MemorySize...),
		AvailableResource: append([]uint64(nil), b.AvailableResource...),
	}
}

func (b *DayBucket) setCell(cell int, s Sample) {
	b.CallCount[cell] = 1
	b.HeapSize[cell] = s.HeapSize
	b.MemorySize[cell] = s.MemorySize
	b.AvailableResource[cell] = s.AvailableResource
}

// CellOf returns the cell index of t within its UTC day
func CellOf(t time.Time) int {
	t = t.UTC()
	seconds := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return seconds / CellSeconds
}
