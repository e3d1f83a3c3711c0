// Package server provides the HTTP server for the clearform evaluation service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/clearform/internal/analyze"
	"github.com/ayusman/clearform/internal/server/api"
	"github.com/ayusman/clearform/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Analyzer  *analyze.Analyzer
}

// Server represents the HTTP server for the clearform service.
type Server struct {
	config Config
	mux    *http.ServeMux
	watch  *WatchHandler
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		configHandler := api.NewConfigHandler(s.config.Store)
		s.mux.Handle("/api/configs", configHandler)
		s.mux.Handle("/api/configs/", configHandler)
	}

	if s.config.Store != nil && s.config.Analyzer != nil {
		s.watch = NewWatchHandler()
		s.mux.Handle("/api/watch", s.watch)

		evalHandler := api.NewEvaluationHandler(s.config.Store, s.config.Analyzer, s.watch.Publish)
		s.mux.Handle("/api/evaluations", evalHandler)
		s.mux.Handle("/api/evaluations/", evalHandler)
		s.mux.HandleFunc("/api/analyze", evalHandler.Analyze)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health. Besides liveness it
// reports how many action configs are installed, so a fresh deployment with
// no seeded config is visible from the health check alone.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	if s.config.Store != nil {
		configs, err := s.config.Store.Configs().List()
		if err != nil {
			response["status"] = "degraded"
		} else {
			response["actions"] = len(configs)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
