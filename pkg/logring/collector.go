package logring

import "unicode/utf8"

// DefaultMaxMessageLength is the default message limit in bytes
const DefaultMaxMessageLength = 4096

// Collector stamps and appends incoming log lines
type Collector struct {
	now       func() int64
	maxLength int
}

// NewCollector creates a collector reading time from now. A maxLength below
// one selects DefaultMaxMessageLength.
func NewCollector(now func() int64, maxLength int) *Collector {
	if maxLength < 1 {
		maxLength = DefaultMaxMessageLength
	}
	return &Collector{now: now, maxLength: maxLength}
}

// Collect appends text to store and returns the stored message. A clock
// reading at or before the newest stored message becomes last+1.
func (c *Collector) Collect(store *Store, text string) Message {
	ts := c.now()
	if last, ok := store.LastTime(); ok && ts <= last {
		ts = last + 1
	}

	m := Message{TimeNanos: ts, Text: Truncate(text, c.maxLength)}
	store.Append(m)
	return m
}

// MaxLength returns the byte limit applied to message text
func (c *Collector) MaxLength() int {
	return c.maxLength
}

// Truncate cuts text to at most maxBytes bytes without splitting a UTF-8
// sequence.
func Truncate(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
