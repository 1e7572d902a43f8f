package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

// Event names published on the feed.
const (
	EventHello              = "hello"
	EventHeartbeat          = "heartbeat"
	EventCalculationCreated = "calculation.created"
	EventCalculationDeleted = "calculation.deleted"
	EventAlertFired         = "alert.fired"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; apply CORS at the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string    `json:"event"`
	Time  time.Time `json:"time"`
	Data  any       `json:"data,omitempty"`
}

// Status is the payload of hello and heartbeat messages.
type Status struct {
	StoredResults int `json:"stored_results"`
	Clients       int `json:"clients"`
}

// Counter reports how many calculation records are stored.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Hub manages WebSocket client connections. Calculation events are pushed to
// every client as they happen; a heartbeat with store totals goes out every
// interval.
type Hub struct {
	counter  Counter
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reports totals from counter every interval.
func New(counter Counter, interval time.Duration) *Hub {
	return &Hub{
		counter:  counter,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run starts the heartbeat loop. Run blocks until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.Publish(EventHeartbeat, h.status(ctx))
		}
	}
}

// Publish sends event with data to every connected client. Clients whose
// buffer is full are disconnected. Publish never blocks on a slow client.
func (h *Hub) Publish(event string, data any) {
	msg, err := json.Marshal(Message{Event: event, Time: time.Now().UTC(), Data: data})
	if err != nil {
		slog.Error("ws: encode message", "event", event, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			close(c.send)
			slog.Warn("ws: dropped slow client", "event", event)
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// A hello message with current totals is sent on connect. Blocks until the
// connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	if hello, err := json.Marshal(Message{Event: EventHello, Time: time.Now().UTC(), Data: h.status(r.Context())}); err == nil {
		c.send <- hello
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) status(ctx context.Context) Status {
	st := Status{Clients: h.Count()}
	if h.counter != nil {
		n, err := h.counter.Count(ctx)
		if err != nil {
			slog.Warn("ws: count stored results", "err", err)
		}
		st.StoredResults = n
	}
	return st
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
