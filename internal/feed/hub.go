// Package feed streams captured frames to viewers over WebSocket and accepts
// the player's input snapshots from them.
package feed

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"driftpursuit/arena/internal/logging"
	"driftpursuit/arena/internal/sim"
	"driftpursuit/arena/internal/wire"
)

const (
	sendBuffer = 64
	writeWait  = 5 * time.Second
)

// ErrClosed is returned when publishing to a closed hub.
var ErrClosed = errors.New("feed: hub closed")

// InputHandler receives input snapshots sent by viewers.
type InputHandler func(input sim.Input)

// Options configures a Hub.
type Options struct {
	Logger          *logging.Logger
	AllowedOrigins  []string
	MaxPayloadBytes int64
	MaxClients      int
	PingInterval    time.Duration

	// InputRate caps input messages per viewer per second. Zero disables it.
	InputRate int
	OnInput   InputHandler
}

// Message is the JSON envelope viewers send.
type Message struct {
	Type  string    `json:"type"`
	Input sim.Input `json:"input"`
}

// MessageInput is the only message type viewers may send.
const MessageInput = "input"

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	id      string
	limiter *inputLimiter
}

// Hub tracks connected viewers and fans encoded frames out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	upgrader     websocket.Upgrader
	log          *logging.Logger
	maxPayload   int64
	maxClients   int
	pingInterval time.Duration
	inputRate    int
	onInput      InputHandler
	frames       uint64
	dropped      uint64
}

// NewHub constructs a hub from the options, applying defaults.
func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = logging.L()
	}
	ping := opts.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	h := &Hub{
		clients:      make(map[*client]struct{}),
		log:          logger.With(logging.String("component", "feed")),
		maxPayload:   opts.MaxPayloadBytes,
		maxClients:   opts.MaxClients,
		pingInterval: ping,
		inputRate:    opts.InputRate,
		onInput:      opts.OnInput,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(opts.AllowedOrigins)}
	return h
}

// originChecker accepts every origin when the list is empty.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.ToLower(strings.TrimSpace(origin))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := strings.ToLower(strings.TrimSpace(r.Header.Get("Origin")))
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Publish encodes a frame and queues it for every viewer.
func (h *Hub) Publish(frame *wire.Frame) error {
	if frame == nil {
		return nil
	}
	return h.Broadcast(wire.Marshal(frame))
}

// Broadcast queues a binary message for every viewer. Viewers whose queue is
// full are disconnected.
func (h *Hub) Broadcast(msg []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.frames++
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			//1.- A viewer that cannot keep up is dropped rather than stalling the loop.
			h.dropped++
			h.removeLocked(c)
			h.log.Warn("viewer too slow, disconnecting", logging.String("client_id", c.id))
		}
	}
	return nil
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stats reports published and dropped counters.
func (h *Hub) Stats() (frames, dropped uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames, h.dropped
}

// Close disconnects every viewer and rejects later publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

// ServeWS upgrades the request and runs the viewer's reader and writer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	logger := h.log
	if logging.TraceIDFromContext(r.Context()) != "" {
		logger = logging.LoggerFromContext(r.Context()).With(logging.String("component", "feed"))
	}

	//1.- Enforce the viewer cap before paying for the upgrade.
	h.mu.Lock()
	full := h.maxClients > 0 && len(h.clients) >= h.maxClients
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}
	if full {
		logger.Warn("viewer rejected, at capacity", logging.Int("max_clients", h.maxClients))
		http.Error(w, "too many viewers", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	if h.maxPayload > 0 {
		conn.SetReadLimit(h.maxPayload)
	}
	c := &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		id:      r.RemoteAddr,
		limiter: newInputLimiter(time.Second, h.inputRate, nil),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logger.Info("viewer connected", logging.String("client_id", c.id))

	go h.readLoop(c, logger)
	go h.writeLoop(c)
}

func (h *Hub) readLoop(c *client, logger *logging.Logger) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		logger.Info("viewer disconnected", logging.String("client_id", c.id))
	}()
	deadline := 2 * h.pingInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("viewer read failed", logging.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(deadline))

		//1.- Malformed messages are logged and skipped; the connection stays up.
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Warn("invalid viewer message", logging.Error(err))
			continue
		}
		if msg.Type != MessageInput {
			logger.Warn("unsupported viewer message", logging.String("type", msg.Type))
			continue
		}
		if !c.limiter.Allow() {
			logger.Debug("viewer input rate limited", logging.String("client_id", c.id))
			continue
		}
		if h.onInput != nil {
			h.onInput(msg.Input)
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
