// Package observer exposes a running match over HTTP and WebSocket: a
// small REST surface to start/stop/inspect matches and a live snapshot
// feed for spectators.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Server is the HTTP+WebSocket front end for one or more match sessions.
type Server struct {
	matches     *MatchManager
	broadcaster *Broadcaster
	mux         *http.ServeMux
	server      *http.Server
	addr        string
}

// NewServer creates an observer server listening on addr, broadcasting a
// snapshot every broadcastEvery cycles.
func NewServer(addr string, broadcastEvery int) *Server {
	broadcaster := NewBroadcaster()

	s := &Server{
		matches:     NewMatchManager(broadcaster, broadcastEvery),
		broadcaster: broadcaster,
		mux:         http.NewServeMux(),
		addr:        addr,
	}

	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler with CORS middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/ws", s.handleWebSocket)

	s.mux.HandleFunc("/api/v1/match", s.handleMatch)
	s.mux.HandleFunc("/api/v1/match/", s.handleMatchRoute)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("observer server starting on http://%s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown destroys every match session, closes the broadcaster (ending
// every subscription feed), then gracefully shuts down the HTTP server.
// WebSocket connections that were already upgraded are not closed by it.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, id := range s.matches.ListSessions() {
		_ = s.matches.DestroySession(id)
	}
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GetBroadcaster returns the broadcaster, for test wiring.
func (s *Server) GetBroadcaster() *Broadcaster { return s.broadcaster }

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin restricts CORS to localhost origins; matches are local
// spectator tooling, never a public service.
func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "file://") {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"matches": s.matches.Count(),
		"time":    time.Now().Format(time.RFC3339),
	})
}

// handleMatch handles POST (create) and GET (list) on /api/v1/match.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateMatch(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{"matches": s.matches.ListSessions()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.ChampionPaths) == 0 {
		writeError(w, http.StatusBadRequest, "championPaths must not be empty")
		return
	}

	session, err := s.matches.CreateSession(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	debugLog("created match %s with %d champions", session.ID, len(req.ChampionPaths))
	writeJSON(w, http.StatusCreated, session.Status())
}

// handleMatchRoute dispatches /api/v1/match/{id}[/action].
func (s *Server) handleMatchRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/match/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "match id required")
		return
	}
	sessionID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetMatch(w, r, sessionID)
		case http.MethodDelete:
			s.handleDestroyMatch(w, r, sessionID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "stop":
		s.handleStopMatch(w, r, sessionID)
	case "memory":
		s.handleGetMemory(w, r, sessionID)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown action: %s", parts[1]))
	}
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.matches.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session.Status())
}

func (s *Server) handleStopMatch(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.matches.StopSession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	debugLog("stopped match %s", sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"stopped": sessionID})
}

func (s *Server) handleDestroyMatch(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.matches.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	debugLog("destroyed match %s", sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"destroyed": sessionID})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.matches.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	mem := session.Machine.Memory()
	values := mem.Values()
	ages := mem.Ages()
	owners := mem.Owners()

	snap := MemorySnapshot{
		Values: values[:],
		Ages:   make([]int32, len(ages)),
		Owners: make([]int32, len(owners)),
	}
	for i, a := range ages {
		snap.Ages[i] = int32(a)
	}
	for i, o := range owners {
		snap.Owners[i] = int32(o)
	}

	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

func readJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1024*1024))
	return decoder.Decode(v)
}
