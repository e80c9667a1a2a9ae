// Package monitor provides an HTTP/WebSocket server streaming a running
// net's markings to connected clients.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/vldtecno/PTN-Engine-sub000/engine"
	"github.com/vldtecno/PTN-Engine-sub000/netlog"
)

// Message types
type MessageType string

const (
	MsgTypeMarking MessageType = "marking"
	MsgTypeEvent   MessageType = "event"
)

// Message envelope
type Message struct {
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Server handles HTTP and WebSocket connections for one engine.
type Server struct {
	engine *engine.Engine
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]bool

	upgrader websocket.Upgrader
	interval time.Duration
}

type client struct {
	conn     *websocket.Conn
	sendChan chan Message
}

// NewServer creates a server over an engine. Firing and input events are
// pushed to clients as they happen; markings are pushed on a fixed
// interval.
func NewServer(e *engine.Engine, logger zerolog.Logger) *Server {
	s := &Server{
		engine:  e,
		logger:  logger,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		interval: time.Second,
	}
	e.OnEvent(s.broadcastEvent)
	return s
}

// WithInterval sets the marking push interval.
func (s *Server) WithInterval(interval time.Duration) *Server {
	s.interval = interval
	return s
}

// ServeHTTP handles HTTP requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		s.handleWebSocket(w, r)
	case "/state":
		s.handleState(w, r)
	case "/health":
		s.handleHealth(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"running": s.engine.IsEventLoopRunning(),
		"marking": s.engine.Marking(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	clients := len(s.clients)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": clients,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, sendChan: make(chan Message, 64)}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop consumes client frames until the connection drops; inbound
// content is ignored, the stream is one-way.
func (s *Server) readLoop(c *client) {
	defer s.dropClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			msg := Message{
				Type:      MsgTypeMarking,
				Payload:   s.engine.Marking(),
				Timestamp: time.Now().UnixMilli(),
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func (s *Server) dropClient(c *client) {
	s.mu.Lock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.sendChan)
	}
	s.mu.Unlock()
	c.conn.Close()
}

// broadcastEvent fans a net event out to every client, dropping frames for
// slow consumers rather than stalling the net.
func (s *Server) broadcastEvent(event netlog.Event) {
	msg := Message{
		Type:      MsgTypeEvent,
		Payload:   event,
		Timestamp: time.Now().UnixMilli(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.sendChan <- msg:
		default:
		}
	}
}
