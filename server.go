package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gaitsense-pipeline/gaitcore"
	"gaitsense-pipeline/ingest"
	"gaitsense-pipeline/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// APIServer exposes processed sessions over HTTP plus a websocket feed
// of summaries as they complete.
type APIServer struct {
	store     *storage.SessionStore
	telemetry *gaitcore.TelemetryBuffers
	collector *ingest.Collector

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

func NewAPIServer(store *storage.SessionStore, telemetry *gaitcore.TelemetryBuffers, collector *ingest.Collector) *APIServer {
	return &APIServer{
		store:     store,
		telemetry: telemetry,
		collector: collector,
		clients:   make(map[*websocket.Conn]struct{}),
	}
}

func (s *APIServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSessionSteps)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws/live", s.handleLive)
}

// handleSessions returns recent session summaries, newest first.
func (s *APIServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	n := 50
	summaries := s.store.GetRecent(n)
	writeJSON(w, map[string]interface{}{
		"count":    len(summaries),
		"sessions": summaries,
	})
}

// handleSessionSteps serves /api/sessions/{id}/steps and
// /api/sessions/{id}.
func (s *APIServer) handleSessionSteps(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	res, ok := s.store.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	switch sub {
	case "":
		writeJSON(w, res.Summary)
	case "steps":
		writeJSON(w, map[string]interface{}{
			"session_id": id,
			"count":      len(res.Steps),
			"steps":      res.Steps,
		})
	case "segments":
		writeJSON(w, map[string]interface{}{
			"session_id": id,
			"segments":   res.Segments,
		})
	default:
		http.NotFound(w, r)
	}
}

func (s *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"store":  s.store.GetStats(),
		"ingest": s.collector.Stats().GetSnapshot(),
	})
}

func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"mqtt_connected": s.collector.IsConnected(),
		"sessions":       s.store.Size(),
		"time":           time.Now().UTC(),
	})
}

// handleLive upgrades to a websocket and streams each new session
// summary as one JSON message.
func (s *APIServer) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[api] Websocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	total := len(s.clients)
	s.clientsMu.Unlock()

	log.Printf("[api] Live client connected (%d total)", total)

	// Reader loop only to detect close.
	go func() {
		defer s.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Greet with the latest summary so a fresh client is not empty.
	if latest, ok := s.telemetry.GetLatestSummary(); ok {
		s.clientsMu.Lock()
		conn.WriteJSON(latest)
		s.clientsMu.Unlock()
	}
}

// Broadcast pushes one finished session to every live client.
func (s *APIServer) Broadcast(res *gaitcore.SessionResult) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(res.Summary); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *APIServer) dropClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	conn.Close()
	delete(s.clients, conn)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] Encode failed: %v", err)
	}
}
