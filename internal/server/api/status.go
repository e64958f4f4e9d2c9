package api

import (
	"net/http"

	"github.com/ayusman/typecoach/internal/fingering"
)

// StatusSource reports the corrector's current state.
type StatusSource interface {
	Status() fingering.Status
}

// StatusHandler serves GET /api/status.
type StatusHandler struct {
	source StatusSource
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(source StatusSource) *StatusHandler {
	return &StatusHandler{source: source}
}

// ServeHTTP writes the corrector status: lifecycle state, calibration
// strategy, anchors still to press and the current key map.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Status())
}
