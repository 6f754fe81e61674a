package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nicktill/tinyrec/pkg/client"
)

var activeRequests, orderSeq int64

// setupHandlers configures all HTTP handlers
func setupHandlers(mux *http.ServeMux, rec *client.Client) {
	// Mock endpoints with predictable latencies; the access lines are real
	mux.HandleFunc("/api/users", handleUsers(rec))
	mux.HandleFunc("/api/orders", handleOrders(rec))
	mux.HandleFunc("/api/products", handleProducts())

	mux.HandleFunc("/health", handleHealth())

	// Reads back what tinyrec has recorded for this app
	mux.HandleFunc("/api/stats", handleStats(rec))
}

// handleUsers fails about one request in fifty
func handleUsers(rec *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&activeRequests, 1)
		defer atomic.AddInt64(&activeRequests, -1)

		latency := time.Duration(50+rand.Intn(50)) * time.Millisecond
		time.Sleep(latency)

		if rand.Float32() < 0.02 {
			rec.Logf("ERROR user lookup failed after %v", latency)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, `[{"id":1,"name":"Ada","plan":"pro"},{"id":2,"name":"Linus","plan":"free"}]`)
	}
}

func handleOrders(rec *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&activeRequests, 1)
		defer atomic.AddInt64(&activeRequests, -1)

		latency := time.Duration(80+rand.Intn(40)) * time.Millisecond
		time.Sleep(latency)

		id := atomic.AddInt64(&orderSeq, 1)
		rec.Logf("order %d placed in %v, total=%d.99", id, latency, 50+rand.Intn(150))

		writeJSON(w, fmt.Sprintf(`{"id":%d,"status":"placed"}`, id))
	}
}

func handleProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&activeRequests, 1)
		defer atomic.AddInt64(&activeRequests, -1)

		time.Sleep(time.Duration(30+rand.Intn(30)) * time.Millisecond)
		writeJSON(w, `[{"sku":"KB-01","stock":12},{"sku":"MS-07","stock":0}]`)
	}
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, fmt.Sprintf(`{"status":"ok","uptime":%q}`, time.Since(startTime).Round(time.Second)))
	}
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}
