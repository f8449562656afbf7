package ui

import (
	"encoding/json"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"beast/internal/domain"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans presenter events out to every connected websocket client and
// forwards inbound frames to the handler passed to NewHub.
type Hub struct {
	onMessage func(Message)

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(onMessage func(Message)) *Hub {
	return &Hub{
		onMessage: onMessage,
		clients:   make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("WebSocket upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Debug("Presentation client connected", "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues m for every client. Clients whose buffer is full are
// dropped instead of blocking the caller.
func (h *Hub) Broadcast(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Error("Failed to encode message", "kind", m.Kind, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn("Dropping slow presentation client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error", "err", err)
			}
			return
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			log.Warn("Malformed presentation message", "err", err)
			continue
		}
		if h.onMessage != nil {
			h.onMessage(m)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

func (h *Hub) Status(state domain.State) {
	h.Broadcast(Message{Kind: KindStatus, Content: string(state)})
}

func (h *Hub) Transcript(text string) {
	h.Broadcast(Message{Kind: KindTranscript, Content: text})
}

func (h *Hub) Reply(text string) {
	h.Broadcast(Message{Kind: KindReply, Content: text})
}

func (h *Hub) ShowAnswer(answer domain.Answer) {
	h.Broadcast(Message{Kind: KindAnswer, Answer: &answer})
}

func (h *Hub) HideAnswer() {
	h.Broadcast(Message{Kind: KindHideAnswer})
}

func (h *Hub) News(list string) {
	h.Broadcast(Message{Kind: KindNews, Content: list})
}

func (h *Hub) Level(level float64) {
	h.Broadcast(Message{Kind: KindLevel, Level: level})
}

func (h *Hub) Clear() {
	h.Broadcast(Message{Kind: KindClear})
}
