// Package server provides the HTTP status API and live streams for the
// typing coach.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/typecoach/internal/server/api"
	"github.com/ayusman/typecoach/internal/store"
)

// Config holds the server configuration. Every component is optional; its
// routes are only registered when it is set.
type Config struct {
	StaticDir string
	Store     *store.Store
	Status    api.StatusSource
	Frames    FrameSource
	Events    *EventHub

	// StreamInterval paces the MJPEG stream. Zero uses DefaultStreamInterval.
	StreamInterval time.Duration
}

// Server represents the HTTP server for the typing coach.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	if s.config.Status != nil {
		s.router.Handle("/api/status", api.NewStatusHandler(s.config.Status)).Methods(http.MethodGet)
	}

	if s.config.Store != nil {
		api.NewSessionsHandler(s.config.Store).Register(s.router)
	}

	if s.config.Frames != nil {
		s.router.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.config.StreamInterval)).Methods(http.MethodGet)
	}

	if s.config.Events != nil {
		s.router.Handle("/api/events", s.config.Events).Methods(http.MethodGet)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.PathPrefix("/").Handler(fs).Methods(http.MethodGet, http.MethodHead)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	State   string `json:"state,omitempty"`
	Journal bool   `json:"journal"`
	Stream  bool   `json:"stream"`
	Clients int    `json:"clients"`
}

// handleHealth reports uptime, the corrector state and which optional
// components are attached.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.start).Round(time.Second).String(),
		Journal: s.config.Store != nil,
		Stream:  s.config.Frames != nil,
	}
	if s.config.Status != nil {
		response.State = s.config.Status.Status().State.String()
	}
	if s.config.Events != nil {
		response.Clients = s.config.Events.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.config.Events != nil {
		s.config.Events.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
