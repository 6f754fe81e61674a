// Package logring keeps the most recent log messages in a fixed-capacity ring.
package logring

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the ring size used when none is configured
const DefaultCapacity = 10000

// ErrInvalidCapacity is returned for capacities below one
var ErrInvalidCapacity = errors.New("capacity must be at least 1")

// Message is one stored log line
type Message struct {
	TimeNanos int64  `json:"timeNanos"`
	Text      string `json:"message"`
}

// Store is a circular buffer of messages. Once full, each Append overwrites
// the oldest message. Timestamps must be strictly increasing; Collector
// guarantees that for messages it appends.
//
// Store is not safe for concurrent use.
type Store struct {
	queue    []Message
	capacity int
	next     int
	full     bool
}

// New creates an empty ring holding at most capacity messages
func New(capacity int) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Store{
		queue:    make([]Message, 0, min(capacity, 1024)),
		capacity: capacity,
	}, nil
}

// Append stores m, evicting the oldest message when the ring is full
func (s *Store) Append(m Message) {
	if s.full {
		s.queue[s.next] = m
	} else {
		s.queue = append(s.queue, m)
	}

	s.next++
	if s.next == s.capacity {
		s.full = true
		s.next = 0
	}
}

// Resize changes the capacity. Growing keeps every message; shrinking keeps
// the newest ones. Resizing to the current capacity does nothing.
func (s *Store) Resize(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if capacity == s.capacity {
		return nil
	}

	rebuilt, err := New(capacity)
	if err != nil {
		return err
	}

	count := s.Count()
	first := s.firstIndex()
	if count > capacity {
		first += count - capacity
		if first >= s.capacity {
			first -= s.capacity
		}
		count = capacity
	}
	for i, idx := 0, first; i < count; i++ {
		rebuilt.Append(s.queue[idx])
		idx = s.wrap(idx + 1)
	}

	*s = *rebuilt
	return nil
}

// Count returns the number of stored messages
func (s *Store) Count() int {
	return len(s.queue)
}

// Capacity returns the maximum number of stored messages
func (s *Store) Capacity() int {
	return s.capacity
}

// FirstTime returns the timestamp of the oldest message
func (s *Store) FirstTime() (int64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[s.firstIndex()].TimeNanos, true
}

// LastTime returns the timestamp of the newest message
func (s *Store) LastTime() (int64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[s.lastIndex()].TimeNanos, true
}

func (s *Store) firstIndex() int {
	if s.full {
		return s.next
	}
	return 0
}

func (s *Store) lastIndex() int {
	return s.wrap(s.next - 1)
}

// wrap maps an index one step outside [0, capacity) back into range. It
// compares instead of using modulo so capacities near MaxInt cannot overflow.
func (s *Store) wrap(i int) int {
	switch {
	case i < 0:
		return s.capacity - 1
	case i >= s.capacity:
		return 0
	}
	return i
}
