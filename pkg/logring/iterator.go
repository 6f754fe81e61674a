package logring

// Iterator walks a Store in one direction. It reads the store directly, so
// the store must not be modified while an iterator is in use.
type Iterator struct {
	store     *Store
	index     int
	delta     int
	remaining int
}

// Iterate returns messages oldest to newest. When cursor is set, messages
// at or before it are skipped.
func (s *Store) Iterate(cursor *int64) *Iterator {
	it := &Iterator{store: s, index: s.firstIndex(), delta: 1, remaining: len(s.queue)}
	if cursor != nil {
		for it.remaining > 0 && it.current().TimeNanos <= *cursor {
			it.advance()
		}
	}
	return it
}

// IterateReverse returns messages newest to oldest. When cursor is set,
// messages at or after it are skipped.
func (s *Store) IterateReverse(cursor *int64) *Iterator {
	it := &Iterator{store: s, delta: -1, remaining: len(s.queue)}
	if it.remaining > 0 {
		it.index = s.lastIndex()
	}
	if cursor != nil {
		for it.remaining > 0 && it.current().TimeNanos >= *cursor {
			it.advance()
		}
	}
	return it
}

// Next returns the next message, or false when the walk is done
func (it *Iterator) Next() (Message, bool) {
	if it.remaining == 0 {
		return Message{}, false
	}
	m := it.current()
	it.advance()
	return m, true
}

func (it *Iterator) current() Message {
	return it.store.queue[it.index]
}

func (it *Iterator) advance() {
	it.remaining--
	it.index = it.store.wrap(it.index + it.delta)
}
