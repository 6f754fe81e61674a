package logring

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when restoring a ring from inconsistent state
var ErrInvalidState = errors.New("invalid log ring state")

// State is the exported form of a Store, slot for slot
type State struct {
	Capacity int       `json:"capacity" cbor:"1,keyasint"`
	Next     int       `json:"next" cbor:"2,keyasint"`
	Full     bool      `json:"full" cbor:"3,keyasint"`
	Messages []Message `json:"messages" cbor:"4,keyasint"`
}

// Export copies the ring's internal layout
func (s *Store) Export() State {
	return State{
		Capacity: s.capacity,
		Next:     s.next,
		Full:     s.full,
		Messages: append([]Message(nil), s.queue...),
	}
}

// Restore rebuilds a Store from exported state after checking its invariants
func Restore(st State) (*Store, error) {
	if st.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidState, st.Capacity)
	}
	if st.Next < 0 || st.Next >= st.Capacity {
		return nil, fmt.Errorf("%w: next %d outside [0, %d)", ErrInvalidState, st.Next, st.Capacity)
	}
	if st.Full && len(st.Messages) != st.Capacity {
		return nil, fmt.Errorf("%w: full ring holds %d of %d messages", ErrInvalidState, len(st.Messages), st.Capacity)
	}
	if !st.Full && len(st.Messages) != st.Next {
		return nil, fmt.Errorf("%w: %d messages but next is %d", ErrInvalidState, len(st.Messages), st.Next)
	}

	s := &Store{
		queue:    append([]Message(nil), st.Messages...),
		capacity: st.Capacity,
		next:     st.Next,
		full:     st.Full,
	}

	var prev int64
	it := s.Iterate(nil)
	for i := 0; ; i++ {
		m, ok := it.Next()
		if !ok {
			break
		}
		if i > 0 && m.TimeNanos <= prev {
			return nil, fmt.Errorf("%w: timestamps not increasing at position %d", ErrInvalidState, i)
		}
		prev = m.TimeNanos
	}
	return s, nil
}
