package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/nicktill/tinyrec/pkg/calendar"
)

func TestQuery_HourlyTwoSamples(t *testing.T) {
	store := NewStore()
	day := time.Date(2022, 1, 28, 0, 0, 0, 0, time.UTC)

	samples := []struct {
		hour   int
		sample Sample
	}{
		{13, Sample{HeapSize: 234000, MemorySize: 345000, AvailableResource: 8787}},
		{9, Sample{HeapSize: 1234000, MemorySize: 1345000, AvailableResource: 18787}},
	}
	for _, s := range samples {
		sample := s.sample
		ts := day.Add(time.Duration(s.hour) * time.Hour)
		if err := Record(store, ts.UnixNano(), false, func() Sample { return sample }); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	at := time.Date(2022, 1, 28, 11, 11, 11, 0, time.UTC).UnixMilli()
	result, err := Query(store, at, at, GranularityHourly)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Hourly) != 1 {
		t.Fatalf("got %d days, want 1", len(result.Hourly))
	}
	if result.Daily != nil {
		t.Error("daily projection should be empty for hourly query")
	}

	got := result.Hourly[0]
	if got.TimeMillis != 1643328000000 {
		t.Errorf("TimeMillis = %d, want 1643328000000", got.TimeMillis)
	}

	cell9, cell13 := 9*12, 13*12
	for name, arr := range map[string][]uint64{
		"callCount": got.CallCount, "heapSize": got.HeapSize,
		"memorySize": got.MemorySize, "availableResource": got.AvailableResource,
	} {
		if len(arr) != CellsPerDay {
			t.Errorf("%s has %d cells, want %d", name, len(arr), CellsPerDay)
		}
		for i, v := range arr {
			if i != cell9 && i != cell13 && v != 0 {
				t.Errorf("%s[%d] = %d, want 0", name, i, v)
			}
		}
	}

	if got.AvailableResource[cell9] != 18787 || got.AvailableResource[cell13] != 8787 {
		t.Errorf("availableResource = (%d, %d), want (18787, 8787)",
			got.AvailableResource[cell9], got.AvailableResource[cell13])
	}
	if got.HeapSize[cell9] != 1234000 || got.HeapSize[cell13] != 234000 {
		t.Errorf("heapSize = (%d, %d), want (1234000, 234000)", got.HeapSize[cell9], got.HeapSize[cell13])
	}
	if got.MemorySize[cell9] != 1345000 || got.MemorySize[cell13] != 345000 {
		t.Errorf("memorySize = (%d, %d), want (1345000, 345000)", got.MemorySize[cell9], got.MemorySize[cell13])
	}
	if got.CallCount[cell9] != 1 || got.CallCount[cell13] != 1 {
		t.Errorf("callCount = (%d, %d), want (1, 1)", got.CallCount[cell9], got.CallCount[cell13])
	}
}

func TestQuery_HourlyReturnsCopies(t *testing.T) {
	store := NewStore()
	ts := time.Date(2022, 1, 28, 1, 0, 0, 0, time.UTC)
	if err := Record(store, ts.UnixNano(), false, func() Sample { return Sample{HeapSize: 5} }); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	result, err := Query(store, ts.UnixMilli(), ts.UnixMilli(), GranularityHourly)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	result.Hourly[0].HeapSize[CellOf(ts)] = 0

	b, _ := store.Get(2022, time.January, 28)
	if b.HeapSize[CellOf(ts)] != 5 {
		t.Error("modifying query result changed the store")
	}
}

func TestQuery_DailyAllZeroDay(t *testing.T) {
	store := NewStore()
	if err := store.Upsert(2022, time.January, 28, NewDayBucket()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	at := time.Date(2022, 1, 28, 12, 0, 0, 0, time.UTC).UnixMilli()
	result, err := Query(store, at, at, GranularityDaily)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Daily) != 1 {
		t.Fatalf("got %d days, want 1", len(result.Daily))
	}

	d := result.Daily[0]
	if d.CallCount != 0 {
		t.Errorf("CallCount = %d, want 0", d.CallCount)
	}
	for name, s := range map[string]NumericSummary{
		"heapSize": d.HeapSize, "memorySize": d.MemorySize, "availableResource": d.AvailableResource,
	} {
		if s != (NumericSummary{}) {
			t.Errorf("%s summary = %+v, want all zero", name, s)
		}
	}
}

func TestQuery_DailyReduction(t *testing.T) {
	store := NewStore()
	b := NewDayBucket()
	b.CallCount[0] = 2
	b.CallCount[10] = 3
	b.HeapSize[0] = 0
	b.HeapSize[10] = 40
	b.HeapSize[20] = 10
	b.HeapSize[CellsPerDay-1] = 7
	if err := store.Upsert(2022, time.January, 28, b); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	at := time.Date(2022, 1, 28, 0, 0, 0, 0, time.UTC).UnixMilli()
	days, err := QueryDaily(store, at, at)
	if err != nil {
		t.Fatalf("QueryDaily failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}

	if days[0].CallCount != 5 {
		t.Errorf("CallCount = %d, want 5", days[0].CallCount)
	}
	want := NumericSummary{Avg: 19, Min: 7, Max: 40, First: 0, Last: 7}
	if days[0].HeapSize != want {
		t.Errorf("HeapSize = %+v, want %+v", days[0].HeapSize, want)
	}
}

func TestQuery_NewestFirstAndSparse(t *testing.T) {
	store := NewStore()
	for _, d := range []int{1, 3, 4} {
		if err := store.Upsert(2022, time.February, d, NewDayBucket()); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	from := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 2, 4, 23, 0, 0, 0, time.UTC)
	days, err := QueryDaily(store, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		t.Fatalf("QueryDaily failed: %v", err)
	}

	want := []int{4, 3, 1}
	if len(days) != len(want) {
		t.Fatalf("got %d days, want %d", len(days), len(want))
	}
	for i, d := range days {
		got := time.UnixMilli(d.TimeMillis).UTC().Day()
		if got != want[i] {
			t.Errorf("days[%d] = %d, want %d", i, got, want[i])
		}
	}
}

func TestQuery_HourlyCap(t *testing.T) {
	store := NewStore()
	start := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		d := start.AddDate(0, 0, i)
		if err := store.Upsert(d.Year(), d.Month(), d.Day(), NewDayBucket()); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	end := start.AddDate(0, 0, 19)
	days, err := QueryHourly(store, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		t.Fatalf("QueryHourly failed: %v", err)
	}
	if len(days) != MaxHourlyDays {
		t.Fatalf("got %d days, want %d", len(days), MaxHourlyDays)
	}
	if days[0].TimeMillis != end.UnixMilli() {
		t.Errorf("first day = %d, want newest %d", days[0].TimeMillis, end.UnixMilli())
	}
}

func TestQuery_DailyCap(t *testing.T) {
	store := NewStore()
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	const recorded = 400
	for i := 0; i < recorded; i++ {
		d := start.AddDate(0, 0, i)
		if err := Record(store, d.Add(time.Hour).UnixNano(), false, func() Sample { return Sample{HeapSize: uint64(i + 1)} }); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	end := start.AddDate(0, 0, recorded-1)
	result, err := Query(store, start.UnixMilli(), end.UnixMilli(), GranularityDaily)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result.Daily) != MaxDailyDays {
		t.Fatalf("got %d days, want %d", len(result.Daily), MaxDailyDays)
	}
	for i, d := range result.Daily {
		want := end.AddDate(0, 0, -i)
		if d.TimeMillis != want.UnixMilli() {
			t.Fatalf("day %d = %d, want %d (newest first)", i, d.TimeMillis, want.UnixMilli())
		}
	}
	oldest := result.Daily[MaxDailyDays-1]
	if oldest.HeapSize.Max != recorded-MaxDailyDays+1 {
		t.Errorf("oldest returned day heap max = %d, want %d", oldest.HeapSize.Max, recorded-MaxDailyDays+1)
	}
}

func TestQuery_Errors(t *testing.T) {
	store := NewStore()

	if _, err := Query(store, 2, 1, GranularityDaily); !errors.Is(err, calendar.ErrInvalidRange) {
		t.Errorf("Query error = %v, want %v", err, calendar.ErrInvalidRange)
	}
	if _, err := Query(store, 1, 2, Granularity("weekly")); !errors.Is(err, ErrUnknownGranularity) {
		t.Errorf("Query error = %v, want %v", err, ErrUnknownGranularity)
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []uint64
		want   NumericSummary
	}{
		{"empty", nil, NumericSummary{}},
		{"single", []uint64{5}, NumericSummary{Avg: 5, Min: 5, Max: 5, First: 5, Last: 5}},
		{"zeros ignored for min and avg", []uint64{0, 4, 0, 8}, NumericSummary{Avg: 6, Min: 4, Max: 8, First: 0, Last: 8}},
		{"integer average", []uint64{1, 2}, NumericSummary{Avg: 1, Min: 1, Max: 2, First: 1, Last: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.values)
			if got != tt.want {
				t.Errorf("Summarize(%v) = %+v, want %+v", tt.values, got, tt.want)
			}
		})
	}
}
