package metrics

import (
	"errors"
	"fmt"

	"github.com/nicktill/tinyrec/pkg/calendar"
)

// Granularity selects the projection produced by Query
type Granularity string

const (
	GranularityHourly Granularity = "hourly" // raw cells
	GranularityDaily  Granularity = "daily"  // one summary per day
)

// Day caps per granularity. Longer ranges are truncated to the newest days.
const (
	MaxHourlyDays = 9
	MaxDailyDays  = 365
)

// ErrUnknownGranularity is returned for granularities other than hourly and daily
var ErrUnknownGranularity = errors.New("unknown granularity")

// HourlyDay is one day of raw cells
type HourlyDay struct {
	TimeMillis        int64    `json:"timeMillis"`
	CallCount         []uint64 `json:"callCount"`
	HeapSize          []uint64 `json:"heapSize"`
	MemorySize        []uint64 `json:"memorySize"`
	AvailableResource []uint64 `json:"availableResource"`
}

// DailyDay is one day reduced to summaries
type DailyDay struct {
	TimeMillis        int64          `json:"timeMillis"`
	CallCount         uint64         `json:"callCount"`
	HeapSize          NumericSummary `json:"heapSize"`
	MemorySize        NumericSummary `json:"memorySize"`
	AvailableResource NumericSummary `json:"availableResource"`
}

// Result holds the projection for one granularity; the other slice is nil
type Result struct {
	Granularity Granularity `json:"granularity"`
	Hourly      []HourlyDay `json:"hourly,omitempty"`
	Daily       []DailyDay  `json:"daily,omitempty"`
}

// Query projects the days in [fromMillis, toMillis], newest first.
// Days with no bucket are skipped.
func Query(store *Store, fromMillis, toMillis int64, granularity Granularity) (Result, error) {
	switch granularity {
	case GranularityHourly:
		days, err := QueryHourly(store, fromMillis, toMillis)
		return Result{Granularity: granularity, Hourly: days}, err
	case GranularityDaily:
		days, err := QueryDaily(store, fromMillis, toMillis)
		return Result{Granularity: granularity, Daily: days}, err
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, granularity)
	}
}

// QueryHourly returns copies of the raw arrays for up to MaxHourlyDays days
func QueryHourly(store *Store, fromMillis, toMillis int64) ([]HourlyDay, error) {
	var days []HourlyDay
	err := walkDays(store, fromMillis, toMillis, MaxHourlyDays, func(millis int64, b *DayBucket) {
		c := b.Clone()
		days = append(days, HourlyDay{
			TimeMillis:        millis,
			CallCount:         c.CallCount,
			HeapSize:          c.HeapSize,
			MemorySize:        c.MemorySize,
			AvailableResource: c.AvailableResource,
		})
	})
	return days, err
}

// QueryDaily returns per-day summaries for up to MaxDailyDays days
func QueryDaily(store *Store, fromMillis, toMillis int64) ([]DailyDay, error) {
	var days []DailyDay
	err := walkDays(store, fromMillis, toMillis, MaxDailyDays, func(millis int64, b *DayBucket) {
		var calls uint64
		for _, c := range b.CallCount {
			calls += c
		}
		days = append(days, DailyDay{
			TimeMillis:        millis,
			CallCount:         calls,
			HeapSize:          Summarize(b.HeapSize),
			MemorySize:        Summarize(b.MemorySize),
			AvailableResource: Summarize(b.AvailableResource),
		})
	})
	return days, err
}

// walkDays visits at most limit iterated days. Missing days still count
// against the limit.
func walkDays(store *Store, fromMillis, toMillis int64, limit int, visit func(int64, *DayBucket)) error {
	it, err := calendar.NewReverseDayIterator(fromMillis, toMillis)
	if err != nil {
		return err
	}

	for i := 0; i < limit; i++ {
		day, ok := it.Next()
		if !ok {
			break
		}
		b, found := store.Get(day.Year(), day.Month(), day.Day())
		if !found {
			continue
		}
		visit(day.UnixMilli(), b)
	}
	return nil
}
