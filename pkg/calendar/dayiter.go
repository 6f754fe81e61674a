package calendar

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when the range start is after its end
var ErrInvalidRange = errors.New("invalid range: from is after to")

// DayIterator walks calendar days (UTC) backwards, from the day containing
// the range end down to the day containing the range start.
type DayIterator struct {
	fromDay time.Time
	day     time.Time
	done    bool
}

// NewReverseDayIterator creates an iterator over [fromMillis, toMillis].
// Both bounds are milliseconds since the Unix epoch and both days are included.
func NewReverseDayIterator(fromMillis, toMillis int64) (*DayIterator, error) {
	if fromMillis > toMillis {
		return nil, ErrInvalidRange
	}

	return &DayIterator{
		fromDay: StartOfDay(time.UnixMilli(fromMillis)),
		day:     StartOfDay(time.UnixMilli(toMillis)),
	}, nil
}

// Next returns the next day start (00:00:00 UTC), newest first.
// It reports false once the day containing the range start has been returned.
func (it *DayIterator) Next() (time.Time, bool) {
	if it.done || it.day.Before(it.fromDay) {
		it.done = true
		return time.Time{}, false
	}

	day := it.day
	it.day = it.day.AddDate(0, 0, -1)
	return day, true
}

// StartOfDay truncates t to midnight UTC of the same calendar day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
