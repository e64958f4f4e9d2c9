// Package hook runs external feedback programs when the corrector reaches a
// verdict, finishes calibrating or completes a drill.
package hook

import "encoding/json"

// Event types a hook can subscribe to. Verdict events are named after the
// verdict outcome.
const (
	EventCorrect       = "correct"
	EventWrong         = "wrong"
	EventUnknown       = "unknown"
	EventCalibrated    = "calibrated"
	EventDrillComplete = "drill_complete"
)

// Manifest describes a hook's metadata and the events it wants.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
}

// Event is the JSON document written to a hook's stdin.
type Event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Key       string          `json:"key,omitempty"`
	Expected  string          `json:"expected,omitempty"`
	Finger    string          `json:"finger,omitempty"`
	Distance  float64         `json:"distance,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Response is what a hook writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribes to eventType. A manifest
// without events receives everything.
func (h *Hook) Handles(eventType string) bool {
	if len(h.Manifest.Events) == 0 {
		return true
	}
	for _, e := range h.Manifest.Events {
		if e == eventType {
			return true
		}
	}
	return false
}
