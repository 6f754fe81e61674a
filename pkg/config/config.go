package config

import "time"

// Server defaults
const (
	DefaultPort            = "8080"
	DefaultDataDir         = "./data/tinyrec"
	DefaultSnapshotBackend = "badger"
	DefaultMaxMemoryMB     = 48
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// Recorder defaults
const (
	DefaultLogCapacity      = 10000
	DefaultMaxMessageLength = 4096
	DefaultResourceBudgetMB = 1024
)

// Background task intervals
const (
	DefaultSampleInterval     = 1 * time.Minute
	DefaultCheckpointInterval = 5 * time.Minute
	BadgerGCInterval          = 10 * time.Minute
	BadgerGCDiscardRatio      = 0.5
)

// Request timeouts and limits
const (
	SnapshotTimeout    = 30 * time.Second
	MaxRequestBodySize = 8 << 20
	// MaxSnapshotBodySize is the smallest limit applied to snapshot imports;
	// larger rings get a limit sized to hold them
	MaxSnapshotBodySize = 64 << 20
	ShutdownTimeout    = 10 * time.Second
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 64
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)
