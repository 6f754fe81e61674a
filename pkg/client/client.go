package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/nicktill/tinyrec/pkg/client/batch"
	"github.com/nicktill/tinyrec/pkg/client/transport"
	"github.com/nicktill/tinyrec/pkg/logquery"
	"github.com/nicktill/tinyrec/pkg/metrics"
	"github.com/nicktill/tinyrec/pkg/telemetry"
)

// MaxBatchSize is the most lines the server accepts in one batch request.
// Larger Config.MaxBatchSize values are lowered to it.
const MaxBatchSize = 1000

// Config holds configuration for the tinyrec client
type Config struct {
	// Service prefixes every shipped line as "[service] text" (optional)
	Service string `json:"service"`

	// Endpoint is the server base URL (default http://localhost:8080)
	Endpoint string `json:"endpoint"`

	APIKey string `json:"api_key"`

	// FlushEvery is how often buffered lines are shipped (default 5s)
	FlushEvery time.Duration `json:"flush_every"`

	// MaxBatchSize caps lines per request (default 500, at most MaxBatchSize)
	MaxBatchSize int `json:"max_batch_size"`

	// OnError receives background shipping failures
	OnError func(err error, lines int) `json:"-"`
}

// Client ships log lines to a tinyrec server and queries it
type Client struct {
	config    Config
	transport *transport.HTTPTransport
	batcher   *batch.Batcher

	mu      sync.Mutex
	started bool
}

// New creates a new client
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:8080"
	}
	if cfg.FlushEvery == 0 {
		cfg.FlushEvery = 5 * time.Second
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	cfg.MaxBatchSize = min(cfg.MaxBatchSize, MaxBatchSize)

	trans, err := transport.NewHTTP(cfg.Endpoint, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return &Client{
		config:    cfg,
		transport: trans,
		batcher: batch.New(trans, batch.Config{
			MaxBatchSize: cfg.MaxBatchSize,
			FlushEvery:   cfg.FlushEvery,
			OnError:      cfg.OnError,
		}),
	}, nil
}

// Start begins shipping buffered lines
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("client already started")
	}
	if err := c.batcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start batcher: %w", err)
	}
	c.started = true
	return nil
}

// Stop ships whatever is still buffered
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.started = false

	if err := c.batcher.Stop(ctx); err != nil {
		return fmt.Errorf("failed to flush logs: %w", err)
	}
	return nil
}

// Log queues one line for shipping
func (c *Client) Log(text string) {
	if c.config.Service != "" {
		text = "[" + c.config.Service + "] " + text
	}
	c.batcher.Add(text)
}

// Logf formats and queues one line
func (c *Client) Logf(format string, args ...interface{}) {
	c.Log(fmt.Sprintf(format, args...))
}

// Flush ships buffered lines now
func (c *Client) Flush(ctx context.Context) error {
	return c.batcher.Flush(ctx)
}

// QueryLogs fetches one page of messages
func (c *Client) QueryLogs(ctx context.Context, req logquery.Request) (logquery.Result, error) {
	q := url.Values{}
	if req.Direction != "" {
		q.Set("direction", string(req.Direction))
	}
	if req.Cursor != nil {
		q.Set("cursor", strconv.FormatInt(*req.Cursor, 10))
	}
	if req.Count > 0 {
		q.Set("count", strconv.Itoa(req.Count))
	}
	if f := req.Filter; f != nil {
		if f.Contains != nil {
			q.Set("contains", *f.Contains)
		}
		if f.Pattern != nil {
			q.Set("pattern", *f.Pattern)
		}
		q.Set("analyze", strconv.Itoa(f.AnalyzeLimit))
	}

	var result logquery.Result
	err := c.transport.Do(ctx, http.MethodGet, withQuery("/v1/logs", q), nil, &result)
	return result, err
}

// LogInfo describes the server's log ring
func (c *Client) LogInfo(ctx context.Context) (logquery.Info, error) {
	var info logquery.Info
	err := c.transport.Do(ctx, http.MethodGet, "/v1/logs/info", nil, &info)
	return info, err
}

// SetLogCapacity resizes the server's log ring
func (c *Client) SetLogCapacity(ctx context.Context, capacity int) error {
	body := struct {
		Capacity int `json:"capacity"`
	}{capacity}
	return c.transport.Do(ctx, http.MethodPut, "/v1/logs/capacity", body, nil)
}

// Collect asks the server to record a resource sample
func (c *Client) Collect(ctx context.Context, force bool) error {
	return c.transport.Do(ctx, http.MethodPost, "/v1/metrics/collect?force="+strconv.FormatBool(force), nil, nil)
}

// Metrics queries resource usage for the days covering [from, to]
func (c *Client) Metrics(ctx context.Context, from, to time.Time, granularity metrics.Granularity) (metrics.Result, error) {
	q := url.Values{}
	q.Set("from", strconv.FormatInt(from.UnixMilli(), 10))
	q.Set("to", strconv.FormatInt(to.UnixMilli(), 10))
	q.Set("granularity", string(granularity))

	var result metrics.Result
	err := c.transport.Do(ctx, http.MethodGet, withQuery("/v1/metrics", q), nil, &result)
	return result, err
}

// Information sends a combined version, status and metrics request
func (c *Client) Information(ctx context.Context, req telemetry.InformationRequest) (telemetry.InformationResponse, error) {
	var resp telemetry.InformationResponse
	err := c.transport.Do(ctx, http.MethodPost, "/v1/information", req, &resp)
	return resp, err
}

// Checkpoint asks the server to save a snapshot now
func (c *Client) Checkpoint(ctx context.Context) error {
	return c.transport.Do(ctx, http.MethodPost, "/v1/snapshot/checkpoint", nil, nil)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
