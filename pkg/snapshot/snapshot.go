package snapshot

import (
	"github.com/nicktill/tinyrec/pkg/calendar"
	"github.com/nicktill/tinyrec/pkg/logring"
)

// Version is the current snapshot format
const Version = 1

// State is everything a recorder needs to resume
type State struct {
	Version int           `json:"version" cbor:"1,keyasint"`
	Logs    logring.State `json:"logs" cbor:"2,keyasint"`
	Days    []Day         `json:"days" cbor:"3,keyasint"`
}

// Day is one exported metrics bucket
type Day struct {
	Key               calendar.DayKey `json:"key" cbor:"1,keyasint"`
	CallCount         []uint64        `json:"callCount" cbor:"2,keyasint"`
	HeapSize          []uint64        `json:"heapSize" cbor:"3,keyasint"`
	MemorySize        []uint64        `json:"memorySize" cbor:"4,keyasint"`
	AvailableResource []uint64        `json:"availableResource" cbor:"5,keyasint"`
}
