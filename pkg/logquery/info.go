package logquery

import "github.com/nicktill/tinyrec/pkg/logring"

// Info summarises the ring contents
type Info struct {
	Count     int          `json:"count"`
	Capacity  int          `json:"capacity"`
	FirstTime *int64       `json:"firstTimeNanos,omitempty"`
	LastTime  *int64       `json:"lastTimeNanos,omitempty"`
	Features  []FilterKind `json:"features"`
}

// Describe reports count, time span and supported filters of store
func Describe(store *logring.Store) Info {
	info := Info{
		Count:    store.Count(),
		Capacity: store.Capacity(),
		Features: append([]FilterKind(nil), SupportedFilters...),
	}
	if first, ok := store.FirstTime(); ok {
		info.FirstTime = &first
	}
	if last, ok := store.LastTime(); ok {
		info.LastTime = &last
	}
	return info
}
