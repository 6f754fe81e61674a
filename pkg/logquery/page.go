// Package logquery pages through a log ring, optionally filtering by text.
package logquery

import (
	"errors"
	"fmt"

	"github.com/nicktill/tinyrec/pkg/logring"
)

// MaxPageSize is the largest Count a Request may ask for
const MaxPageSize = 1024

var (
	// ErrInvalidCount is returned when Count is zero or above MaxPageSize
	ErrInvalidCount = fmt.Errorf("count must be between 1 and %d", MaxPageSize)

	// ErrInvalidDirection is returned for directions other than forward and reverse
	ErrInvalidDirection = errors.New("direction must be forward or reverse")
)

// Direction selects iteration order
type Direction string

const (
	Forward Direction = "forward" // oldest first, after the cursor
	Reverse Direction = "reverse" // newest first, before the cursor
)

// Request describes one page. An empty Direction means Forward.
type Request struct {
	Direction Direction      `json:"direction"`
	Cursor    *int64         `json:"cursor,omitempty"`
	Count     int            `json:"count"`
	Filter    *FilterRequest `json:"filter,omitempty"`
}

// Result is one page of messages. LastAnalyzedTime is the timestamp of the
// last message inspected, matched or not; pass it as the next Cursor to
// continue where this page stopped.
type Result struct {
	Messages         []logring.Message `json:"messages"`
	LastAnalyzedTime *int64            `json:"lastAnalyzedTime,omitempty"`
	Analyzed         int               `json:"analyzed"`
}

// Page collects up to req.Count messages from store
func Page(store *logring.Store, req Request) (Result, error) {
	if req.Count <= 0 || req.Count > MaxPageSize {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidCount, req.Count)
	}

	var filter *Filter
	if req.Filter != nil {
		f, err := NewFilter(*req.Filter)
		if err != nil {
			return Result{}, err
		}
		filter = f
	}

	var it *logring.Iterator
	switch req.Direction {
	case Forward, "":
		it = store.Iterate(req.Cursor)
	case Reverse:
		it = store.IterateReverse(req.Cursor)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidDirection, req.Direction)
	}

	res := Result{Messages: make([]logring.Message, 0, min(req.Count, store.Count()))}
	for m, ok := it.Next(); ok; m, ok = it.Next() {
		if filter != nil && filter.Stopped() {
			break
		}

		ts := m.TimeNanos
		res.LastAnalyzedTime = &ts
		res.Analyzed++

		if filter != nil && !filter.Match(m) {
			continue
		}
		res.Messages = append(res.Messages, m)
		if len(res.Messages) >= req.Count {
			break
		}
	}
	return res, nil
}
