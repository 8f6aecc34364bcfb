package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/metrics"
)

const (
	// clientBuffer is how many results may queue per client before new
	// ones are dropped for it.
	clientBuffer = 32
	writeWait    = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LiveHandler streams every analyzed frame to WebSocket clients as JSON.
type LiveHandler struct {
	metrics *metrics.Manager
	clients map[*liveClient]struct{}
	mu      sync.RWMutex
	closed  bool
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *liveClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewLiveHandler creates a LiveHandler. m may be nil.
func NewLiveHandler(m *metrics.Manager) *LiveHandler {
	return &LiveHandler{
		metrics: m,
		clients: make(map[*liveClient]struct{}),
	}
}

// ServeHTTP upgrades the connection and keeps it until the client leaves.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade error")
		return
	}
	defer conn.Close()

	c := &liveClient{conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.add(c) {
		return
	}
	defer h.remove(c)

	go h.writeLoop(c)

	// Reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) writeLoop(c *liveClient) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.conn.Close()
}

func (h *LiveHandler) add(c *liveClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.setGauge()
	return true
}

func (h *LiveHandler) remove(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
		h.setGauge()
	}
}

// setGauge must be called with mu held.
func (h *LiveHandler) setGauge() {
	if h.metrics != nil {
		h.metrics.GaugeLiveClients.Set(float64(len(h.clients)))
	}
}

// Clients returns the number of connected clients.
func (h *LiveHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues res for every client without blocking. Slow clients
// miss frames.
func (h *LiveHandler) Publish(res exercise.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(res)
	if err != nil {
		log.WithError(err).Warn("live: failed to encode result")
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Close disconnects every client and rejects new ones.
func (h *LiveHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.setGauge()
}
