package calendar

import (
	"errors"
	"fmt"
	"time"
)

// EpochYear is the first year a DayKey can represent
const EpochYear = 2000

// ErrYearBeforeEpoch is returned when encoding a date before EpochYear
var ErrYearBeforeEpoch = errors.New("year is before epoch")

// DayKey packs a calendar date into 20 bits:
// 8 bits year offset from EpochYear, 4 bits month, 8 bits day.
// Keys order chronologically.
type DayKey uint32

// EncodeDayKey builds the key for the given date.
func EncodeDayKey(year int, month time.Month, day int) (DayKey, error) {
	offset := year - EpochYear
	if offset < 0 {
		return 0, fmt.Errorf("%w: %d < %d", ErrYearBeforeEpoch, year, EpochYear)
	}

	key := uint32(offset) & 0xFF
	key = key<<4 | uint32(month)&0xF
	key = key<<8 | uint32(day)&0xFF
	return DayKey(key), nil
}

// KeyOf returns the key of the UTC calendar day containing t.
func KeyOf(t time.Time) (DayKey, error) {
	t = t.UTC()
	return EncodeDayKey(t.Year(), t.Month(), t.Day())
}

// Date decodes the key back into its calendar date.
func (k DayKey) Date() (year int, month time.Month, day int) {
	year = EpochYear + int((k>>12)&0xFF)
	month = time.Month((k >> 8) & 0xF)
	day = int(k & 0xFF)
	return year, month, day
}

// Time returns midnight UTC of the day the key represents.
func (k DayKey) Time() time.Time {
	year, month, day := k.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether k names a real calendar date, i.e. it is what
// EncodeDayKey produces for the date it decodes to.
func (k DayKey) Valid() bool {
	back, err := KeyOf(k.Time())
	return err == nil && back == k
}

func (k DayKey) String() string {
	year, month, day := k.Date()
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}
