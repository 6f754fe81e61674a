package logring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollector_MonotonicTimestamps(t *testing.T) {
	readings := []int64{100, 100, 50, 200, 199, 201}
	i := 0
	clock := func() int64 {
		ts := readings[i]
		i++
		return ts
	}

	s := newStore(t, 10)
	c := NewCollector(clock, 0)
	for range readings {
		c.Collect(s, "line")
	}

	require.Equal(t, []int64{100, 101, 102, 200, 201, 202}, collect(s.Iterate(nil)))
}

func TestCollector_ReturnsStoredMessage(t *testing.T) {
	s := newStore(t, 2)
	c := NewCollector(func() int64 { return 7 }, 3)

	m := c.Collect(s, "4 message")
	require.Equal(t, Message{TimeNanos: 7, Text: "4 m"}, m)
	require.Equal(t, 3, c.MaxLength())
}

func TestCollector_DefaultMaxLength(t *testing.T) {
	c := NewCollector(func() int64 { return 0 }, -1)
	require.Equal(t, DefaultMaxMessageLength, c.MaxLength())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		text string
		max  int
		want string
	}{
		{"abcd", 5, "abcd"},
		{"abcd", 4, "abcd"},
		{"abcd", 3, "abc"},
		{"abcd", 0, ""},
		// "сообщение" is two bytes per letter
		{"сообщение", 3, "с"},
		{"сообщение", 4, "со"},
		{"a€b", 2, "a"},
		{"a€b", 4, "a€"},
	}

	for _, tt := range tests {
		got := Truncate(tt.text, tt.max)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
		}
	}
}
