package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/collapse-rescue/internal/collapse"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Hub fans resolved outcomes out to websocket watchers. It satisfies
// collapse.IncidentLog so it can sit beside the incident history.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*watcher]struct{}
	max     int
}

type watcher struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub accepting at most max concurrent watchers.
func NewHub(max int) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*watcher]struct{}),
		max:     max,
	}
}

// Watchers returns the number of connected watchers.
func (h *Hub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// AppendIncident broadcasts the outcome. Slow watchers are dropped rather
// than blocking the day rollover.
func (h *Hub) AppendIncident(o collapse.Outcome) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

// ServeHTTP upgrades the request and streams outcomes until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	full := len(h.clients) >= h.max
	h.mu.Unlock()
	if full {
		http.Error(w, "too many watchers", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &watcher{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Info("watcher connected", "remote", r.RemoteAddr)

	go h.readPump(c)
	h.writePump(c)
}

func (h *Hub) remove(c *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards inbound frames and notices disconnects.
func (h *Hub) readPump(c *watcher) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("watcher read failed", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *watcher) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
