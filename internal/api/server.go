// Package api exposes the collector over HTTP: a health probe, an
// on-demand collection endpoint, and a WebSocket stream of decoded
// readings for dashboards.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tfountain/healthnode/internal/health"
	"github.com/tfountain/healthnode/internal/transfer"
)

// CollectFunc runs one device download and returns the decoded readings
// and the transfer outcome.
type CollectFunc func(ctx context.Context) ([]health.Reading, transfer.Status, error)

// CollectResponse is the JSON body returned by POST /collect.
type CollectResponse struct {
	Status   string           `json:"status"`
	Count    int              `json:"count"`
	Readings []health.Reading `json:"readings"`
	Summary  health.Summary   `json:"summary"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the collector API. One collection runs at a time; a
// second POST /collect while one is in flight gets 409.
type Server struct {
	collect CollectFunc

	collecting sync.Mutex
	busy       bool

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// New creates a server around the given collect function.
func New(collect CollectFunc) *Server {
	return &Server{
		collect: collect,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /collect", s.handleCollect)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	slog.Info("[API] listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	s.collecting.Lock()
	if s.busy {
		s.collecting.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "collection already in progress"})
		return
	}
	s.busy = true
	s.collecting.Unlock()
	defer func() {
		s.collecting.Lock()
		s.busy = false
		s.collecting.Unlock()
	}()

	readings, status, err := s.collect(r.Context())
	if err != nil {
		slog.Error("[API] collection failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	resp := CollectResponse{
		Status:   status.String(),
		Count:    len(readings),
		Readings: readings,
		Summary:  health.Summarize(readings),
	}
	s.Broadcast(resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	slog.Info("[API] websocket client connected", "remote", conn.RemoteAddr())

	// Reader loop only to detect close; clients never send anything we use.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.dropClient(conn)
				return
			}
		}
	}()
}

// Broadcast sends v as JSON to every connected WebSocket client. Clients
// that fail to accept the write are dropped.
func (s *Server) Broadcast(v any) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(v); err != nil {
			slog.Warn("[API] dropping websocket client", "error", err)
			s.dropClient(c)
		}
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		conn.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("[API] write response failed", "error", err)
	}
}
