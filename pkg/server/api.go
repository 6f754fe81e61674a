package server

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/config"
	"github.com/nicktill/tinyrec/pkg/httpx"
	"github.com/nicktill/tinyrec/pkg/logquery"
	"github.com/nicktill/tinyrec/pkg/logring"
	"github.com/nicktill/tinyrec/pkg/metrics"
	"github.com/nicktill/tinyrec/pkg/snapshot"
	"github.com/nicktill/tinyrec/pkg/telemetry"
)

// Query defaults for GET /v1/logs
const (
	DefaultPageSize     = 100
	DefaultAnalyzeLimit = 10000
)

// MaxBatchMessages caps POST /v1/logs/batch
const MaxBatchMessages = 1000

// Handler serves the recorder API
type Handler struct {
	host         *Host
	hub          *LogHub
	checkpointer *Checkpointer
	metrics      *Metrics
	logger       *zap.Logger
}

// NewHandler creates a handler. hub and checkpointer may be nil, which
// disables live tail publishing and on-demand checkpoints.
func NewHandler(host *Host, hub *LogHub, checkpointer *Checkpointer, m *Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		host:         host,
		hub:          hub,
		checkpointer: checkpointer,
		metrics:      m,
		logger:       logger.Named("api"),
	}
}

// AppendLogRequest is the body of POST /v1/logs
type AppendLogRequest struct {
	Message string `json:"message"`
}

// AppendLogsRequest is the body of POST /v1/logs/batch
type AppendLogsRequest struct {
	Messages []string `json:"messages"`
}

// AppendLogsResponse lists the messages as stored, in order
type AppendLogsResponse struct {
	Messages []logring.Message `json:"messages"`
}

// CapacityRequest is the body of PUT /v1/logs/capacity
type CapacityRequest struct {
	Capacity int `json:"capacity"`
}

// CapacityResponse reports the ring after a resize
type CapacityResponse struct {
	Capacity int `json:"capacity"`
	Count    int `json:"count"`
}

// CheckpointResponse reports an on-demand checkpoint
type CheckpointResponse struct {
	SizeBytes int    `json:"size_bytes"`
	Size      string `json:"size"`
}

// HandleAppendLog stores one log message
func (h *Handler) HandleAppendLog(w http.ResponseWriter, r *http.Request) {
	var req AppendLogRequest
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBodySize, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	var stored logring.Message
	_ = h.host.Do(func(rec *telemetry.Recorder) error {
		stored = rec.AppendLog(req.Message)
		return nil
	})

	if h.hub != nil {
		h.hub.Publish(stored)
	}
	httpx.RespondJSON(w, http.StatusCreated, stored)
}

// HandleAppendLogs stores a batch of log messages in order under one lock
func (h *Handler) HandleAppendLogs(w http.ResponseWriter, r *http.Request) {
	var req AppendLogsRequest
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBodySize, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Messages) == 0 || len(req.Messages) > MaxBatchMessages {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			fmt.Sprintf("batch must hold between 1 and %d messages, got %d", MaxBatchMessages, len(req.Messages)))
		return
	}

	resp := AppendLogsResponse{Messages: make([]logring.Message, 0, len(req.Messages))}
	_ = h.host.Do(func(rec *telemetry.Recorder) error {
		for _, text := range req.Messages {
			resp.Messages = append(resp.Messages, rec.AppendLog(text))
		}
		return nil
	})

	if h.hub != nil {
		for _, m := range resp.Messages {
			h.hub.Publish(m)
		}
	}
	httpx.RespondJSON(w, http.StatusCreated, resp)
}

// HandleSetLogCapacity resizes the log ring, keeping the newest messages
func (h *Handler) HandleSetLogCapacity(w http.ResponseWriter, r *http.Request) {
	var req CapacityRequest
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBodySize, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	var resp CapacityResponse
	err := h.host.Do(func(rec *telemetry.Recorder) error {
		if err := rec.SetLogCapacity(req.Capacity); err != nil {
			return err
		}
		resp = CapacityResponse{Capacity: rec.LogCapacity(), Count: rec.LogCount()}
		return nil
	})
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	h.logger.Info("Log capacity changed", zap.Int("capacity", resp.Capacity), zap.Int("count", resp.Count))
	httpx.RespondJSON(w, http.StatusOK, resp)
}

// HandleQueryLogs returns one page of messages.
//
// Query parameters:
//   - direction: forward (default) or reverse
//   - cursor: exclusive timestamp in nanoseconds to continue from
//   - count: page size, 1 to 1024 (default 100)
//   - contains or pattern: text filter, at most one
//   - analyze: messages a filter may inspect (default 10000)
func (h *Handler) HandleQueryLogs(w http.ResponseWriter, r *http.Request) {
	req, err := parseLogRequest(r)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	var result logquery.Result
	err = h.host.Do(func(rec *telemetry.Recorder) error {
		result, err = rec.QueryLogs(req)
		return err
	})
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, result)
}

func parseLogRequest(r *http.Request) (logquery.Request, error) {
	q := r.URL.Query()
	req := logquery.Request{
		Direction: logquery.Direction(q.Get("direction")),
		Count:     DefaultPageSize,
	}

	if v := q.Get("cursor"); v != "" {
		cursor, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid cursor: %w", err)
		}
		req.Cursor = &cursor
	}

	if v := q.Get("count"); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid count: %w", err)
		}
		req.Count = count
	}

	if !q.Has("contains") && !q.Has("pattern") {
		return req, nil
	}

	filter := &logquery.FilterRequest{AnalyzeLimit: DefaultAnalyzeLimit}
	if q.Has("contains") {
		v := q.Get("contains")
		filter.Contains = &v
	}
	if q.Has("pattern") {
		v := q.Get("pattern")
		filter.Pattern = &v
	}
	if v := q.Get("analyze"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid analyze limit: %w", err)
		}
		filter.AnalyzeLimit = limit
	}
	req.Filter = filter
	return req, nil
}

// HandleLogInfo describes the log ring
func (h *Handler) HandleLogInfo(w http.ResponseWriter, r *http.Request) {
	var info logquery.Info
	_ = h.host.Do(func(rec *telemetry.Recorder) error {
		info = rec.LogInfo()
		return nil
	})
	httpx.RespondJSON(w, http.StatusOK, info)
}

// HandleCollectSample records a resource sample. force=true overwrites a
// cell that already holds a reading.
func (h *Handler) HandleCollectSample(w http.ResponseWriter, r *http.Request) {
	force, err := parseBool(r.URL.Query().Get("force"))
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid force: %w", err))
		return
	}

	err = h.host.Do(func(rec *telemetry.Recorder) error {
		return rec.RecordSample(force)
	})
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	h.metrics.SamplesTotal.WithLabelValues("api").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// HandleQueryMetrics returns hourly or daily metrics for [from, to] in
// Unix milliseconds.
func (h *Handler) HandleQueryMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := strconv.ParseInt(q.Get("from"), 10, 64)
	if err != nil {
		httpx.RespondErrorString(w, http.StatusBadRequest, "from must be a timestamp in milliseconds")
		return
	}
	to, err := strconv.ParseInt(q.Get("to"), 10, 64)
	if err != nil {
		httpx.RespondErrorString(w, http.StatusBadRequest, "to must be a timestamp in milliseconds")
		return
	}

	granularity := metrics.Granularity(q.Get("granularity"))
	if granularity == "" {
		granularity = metrics.GranularityHourly
	}

	var result metrics.Result
	err = h.host.Do(func(rec *telemetry.Recorder) error {
		result, err = rec.QueryMetrics(from, to, granularity)
		return err
	})
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, result)
}

// HandleStatus returns current resource readings. With no flags set, every
// reading is returned.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := telemetry.StatusRequest{
		HeapSize:          q.Has("heap"),
		MemorySize:        q.Has("memory"),
		AvailableResource: q.Has("available"),
	}
	if !req.HeapSize && !req.MemorySize && !req.AvailableResource {
		req = telemetry.StatusRequest{HeapSize: true, MemorySize: true, AvailableResource: true}
	}

	var resp telemetry.StatusResponse
	_ = h.host.Do(func(rec *telemetry.Recorder) error {
		resp = rec.Status(req)
		return nil
	})
	httpx.RespondJSON(w, http.StatusOK, resp)
}

// HandleInformation answers a combined version, status and metrics request
func (h *Handler) HandleInformation(w http.ResponseWriter, r *http.Request) {
	var req telemetry.InformationRequest
	if err := httpx.DecodeJSON(w, r, config.MaxRequestBodySize, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	var resp telemetry.InformationResponse
	err := h.host.Do(func(rec *telemetry.Recorder) error {
		var err error
		resp, err = rec.Information(req)
		return err
	})
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, resp)
}

// HandleExport returns the whole recorder state as JSON
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var st snapshot.State
	_ = h.host.Do(func(rec *telemetry.Recorder) error {
		st = rec.Export()
		return nil
	})
	httpx.RespondJSON(w, http.StatusOK, st)
}

// HandleImport replaces the recorder state. A rejected state leaves the
// recorder unchanged.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var limit int64
	h.host.Do(func(rec *telemetry.Recorder) error {
		limit = snapshotBodyLimit(rec.LogCapacity(), rec.MaxMessageLength(), rec.DayCount())
		return nil
	})

	var st snapshot.State
	if err := httpx.DecodeJSON(w, r, limit, &st); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	err := h.host.Do(func(rec *telemetry.Recorder) error {
		return rec.Import(st)
	})
	if err != nil {
		h.logger.Warn("Snapshot import rejected", zap.Error(err))
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	stats := h.host.Stats()
	h.logger.Info("Snapshot imported",
		zap.Int("log_messages", stats.LogMessages),
		zap.Int("metric_days", stats.MetricDays),
	)
	httpx.RespondJSON(w, http.StatusOK, stats)
}

// snapshotBodyLimit bounds an import body so that a full ring at the
// current capacity and message length fits even when every byte is
// JSON-escaped. It never goes below config.MaxSnapshotBodySize.
func snapshotBodyLimit(capacity, maxMessageLength, days int) int64 {
	const (
		escapeFactor = 6   // worst case: \u00XX per byte
		messageExtra = 64  // timestamp, field names, separators
		cellBytes    = 21  // widest uint64 plus a comma
		dayExtra     = 128 // key and field names
	)
	perMessage := int64(maxMessageLength)*escapeFactor + messageExtra
	perDay := int64(4*metrics.CellsPerDay*cellBytes + dayExtra)
	dayBytes := int64(days+metrics.MaxDailyDays) * perDay

	if int64(capacity) > (math.MaxInt64-dayBytes)/perMessage {
		return math.MaxInt64
	}
	return max(int64(capacity)*perMessage+dayBytes, config.MaxSnapshotBodySize)
}

// HandleCheckpoint saves a snapshot now
func (h *Handler) HandleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if h.checkpointer == nil {
		httpx.RespondErrorString(w, http.StatusServiceUnavailable, "checkpoints are disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.SnapshotTimeout)
	defer cancel()

	size, err := h.checkpointer.Checkpoint(ctx)
	if err != nil {
		h.logger.Error("On-demand checkpoint failed", zap.Error(err))
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, CheckpointResponse{
		SizeBytes: size,
		Size:      humanize.Bytes(uint64(size)),
	})
}

// parseBool treats an empty value as false
func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
