package server

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicktill/tinyrec/pkg/httpx"
	"github.com/nicktill/tinyrec/pkg/server/monitor"
	"github.com/nicktill/tinyrec/pkg/snapshot"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

var startTime = time.Now()

// StorageUsage represents current snapshot store usage.
type StorageUsage struct {
	UsedBytes int64  `json:"used_bytes"`
	Used      string `json:"used"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string                   `json:"status"`
	Version    string                   `json:"version"`
	Uptime     string                   `json:"uptime"`
	Recorder   Stats                    `json:"recorder"`
	Checkpoint monitor.CheckpointStatus `json:"checkpoint"`
}

// handleHealth returns service health status.
func handleHealth(host *Host, checkpointMonitor *monitor.CheckpointMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overallStatus := "healthy"
		statusCode := http.StatusOK

		if !checkpointMonitor.IsHealthy() {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:     overallStatus,
			Version:    Version,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			Recorder:   host.Stats(),
			Checkpoint: checkpointMonitor.Status(),
		}

		httpx.RespondJSON(w, statusCode, response)
	}
}

// handleStorageUsage returns current snapshot store usage.
func handleStorageUsage(store snapshot.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		used := store.Size()
		httpx.RespondJSON(w, http.StatusOK, StorageUsage{
			UsedBytes: used,
			Used:      humanize.Bytes(uint64(used)),
		})
	}
}

// SetupRoutes configures all HTTP routes for the server.
func SetupRoutes(
	router *mux.Router,
	handler *Handler,
	hub *LogHub,
	store snapshot.Store,
	checkpointMonitor *monitor.CheckpointMonitor,
	registry *prometheus.Registry,
	port string,
) {
	// CORS middleware for API access
	router.Use(corsMiddleware(port))

	// API routes
	api := router.PathPrefix("/v1").Subrouter()
	api.Use(instrumentMiddleware(handler.metrics))
	api.Use(sampleMiddleware(handler.host, handler.metrics, handler.logger))

	// Logs
	api.HandleFunc("/logs", handler.HandleAppendLog).Methods("POST")
	api.HandleFunc("/logs/batch", handler.HandleAppendLogs).Methods("POST")
	api.HandleFunc("/logs", handler.HandleQueryLogs).Methods("GET")
	api.HandleFunc("/logs/capacity", handler.HandleSetLogCapacity).Methods("PUT")
	api.HandleFunc("/logs/info", handler.HandleLogInfo).Methods("GET")
	api.HandleFunc("/logs/tail", hub.HandleWebSocket).Methods("GET")

	// Metrics and status
	api.HandleFunc("/metrics", handler.HandleQueryMetrics).Methods("GET")
	api.HandleFunc("/metrics/collect", handler.HandleCollectSample).Methods("POST")
	api.HandleFunc("/status", handler.HandleStatus).Methods("GET")
	api.HandleFunc("/information", handler.HandleInformation).Methods("POST")

	// Snapshot export/import
	api.HandleFunc("/snapshot", handler.HandleExport).Methods("GET")
	api.HandleFunc("/snapshot", handler.HandleImport).Methods("POST")
	api.HandleFunc("/snapshot/checkpoint", handler.HandleCheckpoint).Methods("POST")

	api.HandleFunc("/storage", handleStorageUsage(store)).Methods("GET")
	api.HandleFunc("/health", handleHealth(handler.host, checkpointMonitor)).Methods("GET")

	// Prometheus scrape endpoint
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")
}

// corsMiddleware creates CORS middleware that restricts to localhost origins only.
func corsMiddleware(port string) func(http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:" + port: true,
		"http://127.0.0.1:" + port: true,
		"http://localhost:3000":    true,
		"http://127.0.0.1:3000":    true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Only set CORS headers for allowed origins
			if allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
