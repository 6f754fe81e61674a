package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicktill/tinyrec/pkg/client"
	"github.com/nicktill/tinyrec/pkg/client/httpx"
)

const (
	appAddr     = ":3000"
	tinyrecURL  = "http://localhost:8080"
	shutdownMax = 10 * time.Second
)

var startTime = time.Now()

func main() {
	endpoint := tinyrecURL
	if v := os.Getenv("TINYREC_URL"); v != "" {
		endpoint = v
	}

	rec, err := client.New(client.Config{
		Service:    "example-app",
		Endpoint:   endpoint,
		FlushEvery: 2 * time.Second,
		OnError: func(err error, lines int) {
			log.Printf("Dropped %d log lines: %v", lines, err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create tinyrec client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rec.Start(ctx); err != nil {
		log.Fatalf("Failed to start tinyrec client: %v", err)
	}

	mux := http.NewServeMux()
	setupHandlers(mux, rec)

	server := &http.Server{
		Addr:    appAddr,
		Handler: httpx.Middleware(rec)(mux),
	}

	go func() {
		log.Printf("Example app listening on http://localhost%s, shipping logs to %s", appAddr, endpoint)
		rec.Logf("example app started on %s", appAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	go startTrafficSimulator(ctx, "http://localhost"+appAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down example app...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownMax)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown warning: %v", err)
	}

	rec.Log("example app stopped")
	if err := rec.Stop(shutdownCtx); err != nil {
		log.Printf("Failed to flush logs: %v", err)
	}
}
