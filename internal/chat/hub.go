package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Client is one live websocket connection. UserID and Name are zero until
// the connection identifies itself with user:join.
type Client struct {
	ID     string
	UserID uint
	Name   string
	Send   chan Event

	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient wraps a connection. The write and keepalive loops are started
// separately by the transport layer, so tests can read Send directly.
func NewClient(conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:     uuid.NewString(),
		Send:   make(chan Event, 64),
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Deliver queues an event for the client, dropping it when the send
// buffer is full rather than blocking the caller.
func (c *Client) Deliver(ev Event) {
	select {
	case c.Send <- ev:
	default:
	}
}

func (c *Client) WriteLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.Send:
			writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = wsjson.Write(writeCtx, c.conn, ev)
			cancel()
		}
	}
}

func (c *Client) KeepAliveLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.conn.Ping(pingCtx)
			cancel()
		}
	}
}

// Hub owns the set of live clients, keyed by connection id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: map[string]*Client{}}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	c.cancel()

	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

func (h *Hub) Get(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	return c, ok
}

func (h *Hub) All() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}
