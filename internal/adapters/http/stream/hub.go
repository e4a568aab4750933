// Package stream pushes live rankings to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	service "github.com/okian/juryrank/internal/app"
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/internal/domain/types"
	"github.com/okian/juryrank/pkg/logger"
	"github.com/okian/juryrank/pkg/metrics"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 5 * time.Second
	maxClientMessage    = 512
)

// Subscriber is the source of ranking updates.
type Subscriber interface {
	Subscribe() (<-chan service.Update, func())
}

// Message is one frame sent to clients. Exactly one of Results or Entries is
// set, depending on the view requested at connect time.
type Message struct {
	Version uint64                `json:"version"`
	At      time.Time             `json:"at"`
	Results []model.ProjectResult `json:"results,omitempty"`
	Entries []types.Entry         `json:"entries,omitempty"`
}

// Hub serves GET /rankings/stream.
type Hub struct {
	sub          Subscriber
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       logger.Logger

	mu      sync.Mutex
	clients int
	closing chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

// NewHub creates a hub fed by sub.
func NewHub(sub Subscriber, opts ...Option) *Hub {
	h := &Hub{
		sub: sub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: defaultPingInterval,
		writeTimeout: defaultWriteTimeout,
		closing:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("stream")
	}
	return h
}

// Register attaches the stream route to mux.
func (h *Hub) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /rankings/stream", h.ServeHTTP)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

// Close sends a close frame to every client and waits for their handlers to
// return or ctx to expire.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.closing)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request and streams rankings until the client
// leaves, the hub closes or the subscription ends.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.join() {
		http.Error(w, "stream closed", http.StatusServiceUnavailable)
		return
	}
	defer h.leave()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(ctx, "websocket upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	compact := r.URL.Query().Get("view") == "compact"
	updates, cancel := h.sub.Subscribe()
	defer cancel()

	gone := h.readPump(conn)
	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	h.logger.Debug(ctx, "stream client connected", logger.String("remote", r.RemoteAddr))
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				h.closeWith(conn, websocket.CloseGoingAway, "shutting down")
				return
			}
			if err := h.send(conn, u, compact); err != nil {
				h.dropped(ctx, r, err)
				return
			}
			metrics.RecordStreamBroadcast()
		case <-ping.C:
			deadline := time.Now().Add(h.writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				h.dropped(ctx, r, err)
				return
			}
		case <-gone:
			h.logger.Debug(ctx, "stream client left", logger.String("remote", r.RemoteAddr))
			return
		case <-h.closing:
			h.closeWith(conn, websocket.CloseGoingAway, "shutting down")
			return
		}
	}
}

func (h *Hub) join() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	h.clients++
	metrics.UpdateStreamClients(h.clients)
	return true
}

func (h *Hub) leave() {
	h.mu.Lock()
	h.clients--
	metrics.UpdateStreamClients(h.clients)
	h.mu.Unlock()
	h.wg.Done()
}

// readPump discards client frames and keeps the read deadline alive on pong.
// The returned channel closes when the connection fails or the client leaves.
func (h *Hub) readPump(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	wait := 2 * h.pingInterval
	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return gone
}

func (h *Hub) send(conn *websocket.Conn, u service.Update, compact bool) error {
	msg := Message{Version: u.Version, At: u.At}
	if compact {
		msg.Entries = make([]types.Entry, len(u.Results))
		for i, res := range u.Results {
			msg.Entries[i] = types.EntryFrom(res)
		}
	} else {
		msg.Results = u.Results
		if msg.Results == nil {
			msg.Results = []model.ProjectResult{}
		}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.writeTimeout))
}

func (h *Hub) dropped(ctx context.Context, r *http.Request, err error) {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		metrics.RecordStreamDropped()
		h.logger.Warn(ctx, "dropping slow stream client", logger.String("remote", r.RemoteAddr), logger.Error(err))
		return
	}
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.logger.Debug(ctx, "stream write failed", logger.String("remote", r.RemoteAddr), logger.Error(err))
	}
}
