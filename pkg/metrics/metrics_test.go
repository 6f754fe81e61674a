package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/nicktill/tinyrec/pkg/calendar"
)

// countingSupplier returns fixed samples and counts calls
type countingSupplier struct {
	sample Sample
	calls  int
}

func (c *countingSupplier) Sample() Sample {
	c.calls++
	return c.sample
}

func TestRecord_NewDayInitialisesCell(t *testing.T) {
	store := NewStore()
	sup := &countingSupplier{sample: Sample{HeapSize: 1, MemorySize: 2, AvailableResource: 3}}
	ts := time.Date(2022, 1, 28, 0, 7, 0, 0, time.UTC)

	if err := Record(store, ts.UnixNano(), false, sup.Sample); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	b, ok := store.Get(2022, time.January, 28)
	if !ok {
		t.Fatal("expected bucket for 2022-01-28")
	}
	if sup.calls != 1 {
		t.Errorf("supplier calls = %d, want 1", sup.calls)
	}
	if b.CallCount[1] != 1 || b.HeapSize[1] != 1 || b.MemorySize[1] != 2 || b.AvailableResource[1] != 3 {
		t.Errorf("cell 1 = {%d %d %d %d}, want {1 1 2 3}",
			b.CallCount[1], b.HeapSize[1], b.MemorySize[1], b.AvailableResource[1])
	}
}

func TestRecord_FirstWriterWins(t *testing.T) {
	store := NewStore()
	sup := &countingSupplier{sample: Sample{HeapSize: 10}}
	ts := time.Date(2022, 1, 28, 10, 0, 0, 0, time.UTC)

	if err := Record(store, ts.UnixNano(), false, sup.Sample); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	sup.sample.HeapSize = 20
	for i := 1; i <= 3; i++ {
		later := ts.Add(time.Duration(i) * time.Minute)
		if err := Record(store, later.UnixNano(), false, sup.Sample); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	b, _ := store.Get(2022, time.January, 28)
	cell := CellOf(ts)
	if b.CallCount[cell] != 4 {
		t.Errorf("CallCount = %d, want 4", b.CallCount[cell])
	}
	if b.HeapSize[cell] != 10 {
		t.Errorf("HeapSize = %d, want first sample 10", b.HeapSize[cell])
	}
	if sup.calls != 1 {
		t.Errorf("supplier calls = %d, want 1", sup.calls)
	}
}

func TestRecord_ForceOverwrites(t *testing.T) {
	store := NewStore()
	sup := &countingSupplier{sample: Sample{HeapSize: 10}}
	ts := time.Date(2022, 1, 28, 10, 0, 0, 0, time.UTC)

	if err := Record(store, ts.UnixNano(), false, sup.Sample); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := Record(store, ts.UnixNano(), false, sup.Sample); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	sup.sample.HeapSize = 99
	if err := Record(store, ts.UnixNano(), true, sup.Sample); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	b, _ := store.Get(2022, time.January, 28)
	cell := CellOf(ts)
	if b.HeapSize[cell] != 99 {
		t.Errorf("HeapSize = %d, want 99", b.HeapSize[cell])
	}
	if b.CallCount[cell] != 1 {
		t.Errorf("CallCount = %d, want 1 after forced reset", b.CallCount[cell])
	}
	if sup.calls != 2 {
		t.Errorf("supplier calls = %d, want 2", sup.calls)
	}
}

func TestRecord_BeforeEpoch(t *testing.T) {
	store := NewStore()
	sup := &countingSupplier{}
	ts := time.Date(1999, 12, 31, 23, 0, 0, 0, time.UTC)

	err := Record(store, ts.UnixNano(), false, sup.Sample)
	if !errors.Is(err, calendar.ErrYearBeforeEpoch) {
		t.Fatalf("Record error = %v, want %v", err, calendar.ErrYearBeforeEpoch)
	}
	if sup.calls != 0 {
		t.Errorf("supplier called %d times for rejected timestamp", sup.calls)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d days, want 0", store.Len())
	}
}

func TestStore_GetBeforeEpochIsMissing(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get(1999, time.January, 1); ok {
		t.Error("expected missing day for year before epoch")
	}
	if err := store.Upsert(1999, time.January, 1, NewDayBucket()); !errors.Is(err, calendar.ErrYearBeforeEpoch) {
		t.Errorf("Upsert error = %v, want %v", err, calendar.ErrYearBeforeEpoch)
	}
}

func TestStore_GetMutable(t *testing.T) {
	store := NewStore()
	if _, ok := store.GetMutable(2022, time.January, 28); ok {
		t.Fatal("expected missing day")
	}
	if _, ok := store.GetMutable(1999, time.January, 1); ok {
		t.Fatal("expected missing day for year before epoch")
	}

	if err := store.Upsert(2022, time.January, 28, NewDayBucket()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	b, ok := store.GetMutable(2022, time.January, 28)
	if !ok {
		t.Fatal("expected stored day")
	}
	b.CallCount[7] = 42

	got, _ := store.Get(2022, time.January, 28)
	if got.CallCount[7] != 42 {
		t.Errorf("CallCount[7] = %d, want 42 after in-place update", got.CallCount[7])
	}
}

func TestStore_UpsertRejectsShortBucket(t *testing.T) {
	store := NewStore()
	b := NewDayBucket()
	b.HeapSize = b.HeapSize[:10]

	if err := store.Upsert(2022, time.January, 1, b); !errors.Is(err, ErrInvalidBucket) {
		t.Fatalf("Upsert error = %v, want %v", err, ErrInvalidBucket)
	}
}

func TestStore_DaysChronological(t *testing.T) {
	store := NewStore()
	dates := []time.Time{
		time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		if err := store.Upsert(d.Year(), d.Month(), d.Day(), NewDayBucket()); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	days := store.Days()
	want := []string{"2021-12-31", "2022-01-15", "2022-03-01"}
	if len(days) != len(want) {
		t.Fatalf("got %d days, want %d", len(days), len(want))
	}
	for i, k := range days {
		if k.String() != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, k, want[i])
		}
	}
}
