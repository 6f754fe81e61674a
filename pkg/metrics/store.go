package metrics

import (
	"errors"
	"sort"
	"time"

	"github.com/nicktill/tinyrec/pkg/calendar"
)

// ErrInvalidBucket is returned when a bucket does not have CellsPerDay cells
var ErrInvalidBucket = errors.New("invalid day bucket")

// Store maps calendar days to their buckets. Days are created on first
// sample and never removed here.
type Store struct {
	days map[calendar.DayKey]*DayBucket
}

// NewStore creates an empty metrics store
func NewStore() *Store {
	return &Store{
		days: make(map[calendar.DayKey]*DayBucket),
	}
}

// Get returns the bucket for a day for reading. Callers must not modify it.
// Dates that cannot be encoded are reported as missing.
func (s *Store) Get(year int, month time.Month, day int) (*DayBucket, bool) {
	key, err := calendar.EncodeDayKey(year, month, day)
	if err != nil {
		return nil, false
	}
	return s.Bucket(key)
}

// GetMutable returns the bucket for a day for in-place updates
func (s *Store) GetMutable(year int, month time.Month, day int) (*DayBucket, bool) {
	key, err := calendar.EncodeDayKey(year, month, day)
	if err != nil {
		return nil, false
	}
	b, ok := s.days[key]
	return b, ok
}

// Upsert stores bucket under the given day, replacing any existing one
func (s *Store) Upsert(year int, month time.Month, day int, bucket *DayBucket) error {
	key, err := calendar.EncodeDayKey(year, month, day)
	if err != nil {
		return err
	}
	return s.Put(key, bucket)
}

// Put is Upsert keyed by an already encoded day
func (s *Store) Put(key calendar.DayKey, bucket *DayBucket) error {
	if bucket == nil {
		return ErrInvalidBucket
	}
	if err := bucket.Validate(); err != nil {
		return err
	}
	s.days[key] = bucket
	return nil
}

// Bucket looks a day up by key
func (s *Store) Bucket(key calendar.DayKey) (*DayBucket, bool) {
	b, ok := s.days[key]
	return b, ok
}

// Len returns the number of stored days
func (s *Store) Len() int {
	return len(s.days)
}

// Days returns all stored keys in chronological order
func (s *Store) Days() []calendar.DayKey {
	keys := make([]calendar.DayKey, 0, len(s.days))
	for k := range s.days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
