package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/typecoach/internal/store"
)

// SessionsHandler serves the session journal.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// Register adds the session routes to r.
func (h *SessionsHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/sessions", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/keystrokes", h.keystrokes).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}/drills", h.drills).Methods(http.MethodGet)
}

type sessionResponse struct {
	ID        string `json:"id"`
	Strategy  string `json:"strategy"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
}

type sessionSummaryResponse struct {
	sessionResponse
	Keystrokes int            `json:"keystrokes"`
	Outcomes   map[string]int `json:"outcomes"`
	Drills     int            `json:"drills"`
	WrongKeys  map[string]int `json:"wrong_keys"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type listKeystrokesResponse struct {
	Keystrokes []*store.Keystroke `json:"keystrokes"`
}

type listDrillsResponse struct {
	Drills []*store.DrillResult `json:"drills"`
}

// toResponse converts a store.Session to a sessionResponse.
func toResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Strategy:  s.Strategy,
		Width:     s.Width,
		Height:    s.Height,
		StartedAt: s.StartedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// list handles GET /api/sessions.
func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id} and returns the session with its tallies.
func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	summary, err := h.store.Sessions().Summary(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	wrong, err := h.store.Keystrokes().FingerErrors(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, sessionSummaryResponse{
		sessionResponse: toResponse(&summary.Session),
		Keystrokes:      summary.Keystrokes,
		Outcomes:        summary.Outcomes,
		Drills:          summary.Drills,
		WrongKeys:       wrong,
	})
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Sessions().Delete(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// keystrokes handles GET /api/sessions/{id}/keystrokes.
func (h *SessionsHandler) keystrokes(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	strokes, err := h.store.Keystrokes().ListBySession(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list keystrokes")
		return
	}
	if strokes == nil {
		strokes = []*store.Keystroke{}
	}

	writeJSON(w, http.StatusOK, listKeystrokesResponse{Keystrokes: strokes})
}

// drills handles GET /api/sessions/{id}/drills.
func (h *SessionsHandler) drills(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	drills, err := h.store.Drills().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list drills")
		return
	}
	if drills == nil {
		drills = []*store.DrillResult{}
	}

	writeJSON(w, http.StatusOK, listDrillsResponse{Drills: drills})
}
