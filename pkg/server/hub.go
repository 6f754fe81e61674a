package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nicktill/tinyrec/pkg/config"
	"github.com/nicktill/tinyrec/pkg/logring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// No Origin header = non-browser client (curl, websocat)
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
}

// TailEvent is sent to live tail clients for every appended message
type TailEvent struct {
	Type    string          `json:"type"`
	Message logring.Message `json:"message"`
}

// subscriber is one tail connection. An empty contains receives everything.
type subscriber struct {
	conn     *websocket.Conn
	contains string
}

func (s *subscriber) wants(m logring.Message) bool {
	return s.contains == "" || strings.Contains(strings.ToLower(m.Text), s.contains)
}

type tailFrame struct {
	msg  logring.Message
	data []byte
}

// LogHub fans appended log messages out to WebSocket clients
type LogHub struct {
	subs   map[*websocket.Conn]*subscriber
	join   chan *subscriber
	leave  chan *websocket.Conn
	frames chan tailFrame
	done   chan struct{}
	logger *zap.Logger

	mu sync.RWMutex
}

// NewLogHub creates a hub. Call Run to start delivering messages.
func NewLogHub(logger *zap.Logger) *LogHub {
	return &LogHub{
		subs:   make(map[*websocket.Conn]*subscriber),
		join:   make(chan *subscriber, config.WSChannelBuffer),
		leave:  make(chan *websocket.Conn, config.WSChannelBuffer),
		frames: make(chan tailFrame, config.WSBroadcastBuffer),
		done:   make(chan struct{}),
		logger: logger.Named("tail"),
	}
}

// Run delivers published messages until ctx is done. Connections that
// arrive afterwards are closed immediately.
func (h *LogHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case sub := <-h.join:
			h.mu.Lock()
			h.subs[sub.conn] = sub
			n := len(h.subs)
			h.mu.Unlock()
			h.logger.Debug("Tail client connected", zap.Int("clients", n), zap.String("contains", sub.contains))
		case conn := <-h.leave:
			h.drop(conn)
		case f := <-h.frames:
			for _, conn := range h.deliver(f) {
				h.drop(conn)
			}
		}
	}
}

// deliver writes f to every interested subscriber and returns the ones that failed
func (h *LogHub) deliver(f tailFrame) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var failed []*websocket.Conn
	for conn, sub := range h.subs {
		if !sub.wants(f.msg) {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
			h.logger.Debug("Tail write failed", zap.Error(err))
			failed = append(failed, conn)
		}
	}
	return failed
}

func (h *LogHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.subs[conn]; ok {
		delete(h.subs, conn)
		conn.Close()
	}
	n := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("Tail client disconnected", zap.Int("clients", n))
}

func (h *LogHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs {
		conn.Close()
	}
	h.subs = make(map[*websocket.Conn]*subscriber)
}

// Publish queues m for connected clients. Messages are dropped when the
// hub is backed up or nobody is listening.
func (h *LogHub) Publish(m logring.Message) {
	if !h.HasClients() {
		return
	}

	data, err := json.Marshal(TailEvent{Type: "log_message", Message: m})
	if err != nil {
		h.logger.Error("Failed to encode tail event", zap.Error(err))
		return
	}

	select {
	case h.frames <- tailFrame{msg: m, data: data}:
	default:
		h.logger.Warn("Tail queue full, dropping message")
	}
}

// sendJoin and sendLeave hand a connection to Run. They report false once
// Run has exited and nobody will receive.
func (h *LogHub) sendJoin(sub *subscriber) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.join <- sub:
		return true
	case <-h.done:
		return false
	}
}

func (h *LogHub) sendLeave(conn *websocket.Conn) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.leave <- conn:
		return true
	case <-h.done:
		return false
	}
}

func (h *LogHub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// HasClients reports whether any tail client is connected
func (h *LogHub) HasClients() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs) > 0
}

// HandleWebSocket upgrades the request and streams appended messages until
// the client goes away. The optional contains query parameter limits the
// stream to messages containing that text, ignoring case.
func (h *LogHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	contains := strings.ToLower(r.URL.Query().Get("contains"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	if !h.sendJoin(&subscriber{conn: conn, contains: contains}) {
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		if !h.sendLeave(conn) {
			conn.Close()
		}
	}()
	go keepAlive(ctx, conn)

	conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
	})

	// tail is one-way; reads only surface pongs and close frames
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(config.WSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(config.WSWriteDeadline)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
