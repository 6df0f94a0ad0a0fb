package httpserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/feedrank/feedrank/internal/domain"
	"github.com/feedrank/feedrank/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	// sendBuffer bounds per-client queued events; a client that cannot keep
	// up is disconnected rather than blocking broadcasters.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// liveEvent is the wire format streamed to live-feed subscribers.
type liveEvent struct {
	Type    string           `json:"type"`
	Post    *postResponse    `json:"post,omitempty"`
	Comment *commentResponse `json:"comment,omitempty"`
}

// Hub fans newly created content out to websocket subscribers. It implements
// domain.EventSink; create operations never block on slow clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*liveClient]struct{}
	closed  bool
	logger  *slog.Logger
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*liveClient]struct{}),
		logger:  logger,
	}
}

// PostCreated broadcasts a newly created post.
func (h *Hub) PostCreated(post *domain.Post) {
	resp := newPostResponse(post)
	h.broadcast(liveEvent{Type: "post_created", Post: &resp})
}

// CommentCreated broadcasts a newly created comment.
func (h *Hub) CommentCreated(comment *domain.Comment) {
	resp := newCommentResponse(comment)
	h.broadcast(liveEvent{Type: "comment_created", Comment: &resp})
}

func (h *Hub) broadcast(event liveEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal live event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close disconnects all subscribers. The hub accepts no new connections
// afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *liveClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
	return true
}

func (h *Hub) unregister(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

// handleWebsocket upgrades the connection and streams live events until the
// client disconnects.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &liveClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !s.hub.register(client) {
		conn.Close()
		return
	}

	go client.writePump()

	// Read loop: the client sends nothing we care about, but reading is
	// required to process control frames and notice disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unregister(client)
	conn.Close()
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
