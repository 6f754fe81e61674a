package httpx

import (
	"fmt"
	"net/http"
	"time"
)

// Logger receives one access line per request. *client.Client satisfies it.
type Logger interface {
	Log(text string)
}

// Middleware returns HTTP middleware that logs every request as
//
//	GET /api/users 200 12ms
//
// Usage:
//
//	c, _ := client.New(client.Config{...})
//	c.Start(ctx)
//	defer c.Stop(ctx)
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", handler)
//	handler := httpx.Middleware(c)(mux)
//	http.ListenAndServe(":8080", handler)
func Middleware(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap ResponseWriter to capture status code
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			logger.Log(formatAccessLine(r, rw.statusCode, time.Since(start)))
		})
	}
}

func formatAccessLine(r *http.Request, status int, took time.Duration) string {
	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	return fmt.Sprintf("%s %s %d %s", r.Method, path, status, took.Round(time.Millisecond))
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
