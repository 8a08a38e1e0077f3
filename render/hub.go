package render

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	clientQueueLen = 256
)

// Event is one message on the render stream.
type Event struct {
	Type    string   `json:"type"`
	Line    *Line    `json:"line,omitempty"`
	Markers []Marker `json:"markers,omitempty"`
	Message string   `json:"message,omitempty"`
}

const (
	EventLine         = "line"
	EventClearLines   = "clear_lines"
	EventMarkers      = "markers"
	EventClearMarkers = "clear_markers"
	EventNotice       = "notice"
)

// Hub streams render events to websocket subscribers so a page can draw
// each ensemble member as soon as it arrives. Slow subscribers are dropped
// rather than stalling the sweep.
type Hub struct {
	mu       sync.Mutex
	clients  map[*subscriber]struct{}
	upgrader websocket.Upgrader
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			EnableCompression: false,
			CheckOrigin:       func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Unable to upgrade render websocket")
		return
	}
	s := &subscriber{conn: conn, send: make(chan Event, clientQueueLen)}

	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()
	log.Debug().Str("remote", r.RemoteAddr).Msg("Render stream subscriber connected")

	go h.writeLoop(s)
	h.readLoop(s)
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(s *subscriber) {
	for ev := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Msg("Render stream write failed")
			h.remove(s)
			s.conn.Close()
			return
		}
	}
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	s.conn.Close()
}

// readLoop discards inbound messages and notices the peer going away.
func (h *Hub) readLoop(s *subscriber) {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			h.remove(s)
			return
		}
	}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[s]; ok {
		delete(h.clients, s)
		close(s.send)
	}
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		select {
		case s.send <- ev:
		default:
			log.Warn().Msg("Render stream subscriber too slow, dropping")
			delete(h.clients, s)
			close(s.send)
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		delete(h.clients, s)
		close(s.send)
	}
}

func (h *Hub) DrawLine(l Line) {
	h.broadcast(Event{Type: EventLine, Line: &l})
}

func (h *Hub) ClearLines() {
	h.broadcast(Event{Type: EventClearLines})
}

func (h *Hub) DrawMarkers(ms []Marker) {
	h.broadcast(Event{Type: EventMarkers, Markers: ms})
}

func (h *Hub) ClearMarkers() {
	h.broadcast(Event{Type: EventClearMarkers})
}

// Notify pushes a user-visible notice to every subscriber.
func (h *Hub) Notify(msg string) {
	h.broadcast(Event{Type: EventNotice, Message: msg})
}
