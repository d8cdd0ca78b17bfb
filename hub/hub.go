// Package hub broadcasts JSON messages between WebSocket clients.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	wasmhtmx "github.com/xizhibei/go-wasm-htmx"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultSendBuffer = 64
)

// ErrClosed is returned when publishing to a closed hub.
var ErrClosed = errors.New("hub closed")

type options struct {
	sendBuffer int
	now        func() time.Time
	upgrader   websocket.Upgrader
}

// Option configures a Hub.
type Option func(o *options)

// WithSendBuffer sets how many outbound messages may queue per client before
// the client is dropped.
func WithSendBuffer(n int) Option {
	return func(o *options) {
		o.sendBuffer = n
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithCheckOrigin sets the origin check of the upgrader. By default only
// same-host origins are accepted.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(o *options) {
		o.upgrader.CheckOrigin = check
	}
}

// Hub keeps the set of connected clients and fans messages out to them.
type Hub struct {
	log     *zap.SugaredLogger
	options *options

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  atomic.Bool
}

// New creates a Hub.
func New(opts ...Option) *Hub {
	o := options{
		sendBuffer: defaultSendBuffer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Hub{
		log:     zap.S().With("module", "hub"),
		options: &o,
		clients: make(map[*client]struct{}),
	}
	_ = h.Broadcast(h.SystemMessage("WebSocket server started"))
	h.log.Infof("WebSocket hub started")
	return h
}

func (h *Hub) timestamp() string {
	return h.options.now().UTC().Format(time.RFC3339)
}

// SystemMessage builds a system message stamped with the current time.
func (h *Hub) SystemMessage(text string) *Message {
	return &Message{Type: TypeSystem, Message: text, Timestamp: h.timestamp()}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a WebSocket and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.options.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	c := &client{
		id:   r.RemoteAddr,
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.options.sendBuffer),
	}

	if !h.add(c) {
		_ = conn.Close()
		return
	}
	h.log.Infof("New WebSocket connection: %s", c.id)

	welcome, _ := json.Marshal(h.SystemMessage("Welcome! You are connected as " + c.id))
	c.trySend(welcome)

	go c.writePump()
	c.readPump()
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed.Load() {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast sends msg to every connected client. Clients that cannot keep up
// are dropped.
func (h *Hub) Broadcast(msg *Message) error {
	if h.closed.Load() {
		return ErrClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warnf("Dropping slow client %s", c.id)
		h.remove(c)
	}
	return nil
}

// PublishCalculation broadcasts a reported computation result as a calculation
// message. A calculation whose result is not a number is not broadcast.
func (h *Hub) PublishCalculation(ctx context.Context, calc *wasmhtmx.Calculation) error {
	result, ok := calc.Result.Float()
	if !ok {
		h.log.Debugf("Skip calculation without numeric result: %s", calc.Expression())
		return nil
	}
	return h.Broadcast(&Message{
		Type:      TypeCalculation,
		Operation: calc.Expression(),
		Result:    result,
		Timestamp: h.timestamp(),
	})
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}

func (h *Hub) handle(c *client, data []byte) {
	msg, err := ParseMessage(data)
	if err != nil {
		msg = &Message{
			Type:      TypeChat,
			User:      c.id,
			Message:   string(data),
			Timestamp: h.timestamp(),
		}
	}

	if err := h.Broadcast(msg); err != nil {
		h.log.Warnf("Broadcast from %s: %v", c.id, err)
	}
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) trySend(data []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
		c.hub.log.Infof("Connection closed for %s", c.id)
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warnf("WebSocket error for %s: %v", c.id, err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		c.hub.log.Debugf("Received from %s: %s", c.id, data)
		c.hub.handle(c, data)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.hub.log.Warnf("Failed to send message to %s: %v", c.id, err)
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}
