package main

import (
	"context"
	"log"
	"net/http"
	"time"
)

// simulatedCalls cycles through the demo endpoints
var simulatedCalls = []struct {
	method string
	path   string
}{
	{http.MethodGet, "/api/users"},
	{http.MethodPost, "/api/orders"},
	{http.MethodGet, "/api/products"},
	{http.MethodGet, "/api/users?plan=pro"},
}

// startTrafficSimulator calls the demo endpoints in turn every interval so
// the access log has something to show
func startTrafficSimulator(ctx context.Context, baseURL string) {
	const interval = 3 * time.Second

	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("Traffic simulator calling %s every %v", baseURL, interval)

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			call := simulatedCalls[n%len(simulatedCalls)]
			go simulate(ctx, call.method, baseURL+call.path)
		}
	}
}

func simulate(ctx context.Context, method, url string) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Simulated %s %s failed: %v", method, url, err)
		}
		return
	}
	resp.Body.Close()
}
