package main

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nicktill/tinyrec/pkg/client"
	"github.com/nicktill/tinyrec/pkg/logquery"
	"github.com/nicktill/tinyrec/pkg/telemetry"
)

// appStats is served by /api/stats
type appStats struct {
	StoredLines  int      `json:"stored_lines"`
	RecentErrors []string `json:"recent_errors"`
	ServerHeap   *uint64  `json:"server_heap_bytes,omitempty"`
	Active       int64    `json:"active"`
	Uptime       string   `json:"uptime"`
}

// handleStats reads log and resource numbers back from tinyrec
func handleStats(rec *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := appStats{
			Active: atomic.LoadInt64(&activeRequests),
			Uptime: time.Since(startTime).Round(time.Second).String(),
		}

		if info, err := rec.LogInfo(ctx); err == nil {
			stats.StoredLines = info.Count
		}

		// newest first, looking at the last 1000 lines at most
		pattern := `^\[example-app\] (ERROR|\S+ \S+ 5\d\d )`
		page, err := rec.QueryLogs(ctx, logquery.Request{
			Direction: logquery.Reverse,
			Count:     10,
			Filter:    &logquery.FilterRequest{AnalyzeLimit: 1000, Pattern: &pattern},
		})
		if err == nil {
			for _, m := range page.Messages {
				stats.RecentErrors = append(stats.RecentErrors, m.Text)
			}
		}

		info, err := rec.Information(ctx, telemetry.InformationRequest{
			Status: &telemetry.StatusRequest{HeapSize: true},
		})
		if err == nil && info.Status != nil {
			stats.ServerHeap = info.Status.HeapSize
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}
