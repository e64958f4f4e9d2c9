package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"github.com/ayusman/typecoach/internal/fingering"
	"github.com/ayusman/typecoach/internal/keyboard"
	"github.com/ayusman/typecoach/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "typecoach-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newTestRouter(s *store.Store) *mux.Router {
	r := mux.NewRouter()
	NewSessionsHandler(s).Register(r)
	return r
}

func seedSession(t *testing.T, s *store.Store) *store.Session {
	t.Helper()

	sess := &store.Session{ID: "session-1", Strategy: "linear", Width: 1280, Height: 720}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	strokes := []*store.Keystroke{
		{SessionID: sess.ID, Key: "f", Outcome: "correct", Expected: "LEFT_INDEX", Finger: "LEFT_INDEX"},
		{SessionID: sess.ID, Key: "k", Outcome: "wrong", Expected: "RIGHT_MIDDLE", Finger: "RIGHT_RING"},
		{SessionID: sess.ID, Key: "1", Outcome: "no_rule"},
	}
	for _, k := range strokes {
		if err := s.Keystrokes().Add(k); err != nil {
			t.Fatalf("failed to add keystroke: %v", err)
		}
	}
	return sess
}

func TestSessionsHandler_List(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s)
	router := newTestRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Sessions) != 1 || response.Sessions[0].ID != "session-1" {
		t.Errorf("unexpected sessions: %+v", response.Sessions)
	}
}

func TestSessionsHandler_List_InvalidLimit(t *testing.T) {
	router := newTestRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestSessionsHandler_Get(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s)
	router := newTestRouter(s)

	t.Run("returns summary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/session-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response sessionSummaryResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Keystrokes != 3 {
			t.Errorf("expected 3 keystrokes, got %d", response.Keystrokes)
		}
		if response.Outcomes["wrong"] != 1 {
			t.Errorf("expected 1 wrong, got %v", response.Outcomes)
		}
		if response.WrongKeys["k"] != 1 {
			t.Errorf("expected k in wrong keys, got %v", response.WrongKeys)
		}
	})

	t.Run("returns 404 for missing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSessionsHandler_Keystrokes(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s)
	router := newTestRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/session-1/keystrokes?limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listKeystrokesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Keystrokes) != 2 {
		t.Fatalf("expected 2 keystrokes, got %d", len(response.Keystrokes))
	}
	if response.Keystrokes[0].Key != "f" || response.Keystrokes[1].Key != "k" {
		t.Errorf("keystrokes out of order: %+v", response.Keystrokes)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/nope/keystrokes", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionsHandler_Drills(t *testing.T) {
	s := newTestStore(t)
	sess := seedSession(t, s)
	router := newTestRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/session-1/drills", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var empty listDrillsResponse
	if err := json.NewDecoder(rec.Body).Decode(&empty); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if empty.Drills == nil || len(empty.Drills) != 0 {
		t.Errorf("expected empty drill list, got %v", empty.Drills)
	}

	if err := s.Drills().Add(&store.DrillResult{SessionID: sess.ID, Level: "beginner", WPM: 30}); err != nil {
		t.Fatalf("failed to add drill: %v", err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/session-1/drills", nil))

	var response listDrillsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Drills) != 1 || response.Drills[0].WPM != 30 {
		t.Errorf("unexpected drills: %+v", response.Drills)
	}
}

func TestSessionsHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s)
	router := newTestRouter(s)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/session-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/session-1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSessionsHandler_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	linear, _ := keyboard.StrategyByName(keyboard.StrategyLinear)
	c := fingering.New(fingering.DefaultConfig(), linear)
	c.StartCalibration()

	rec := httptest.NewRecorder()
	NewStatusHandler(c).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		State    string   `json:"state"`
		Strategy string   `json:"strategy"`
		Pending  []string `json:"pending"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.State != "calibrating" || response.Strategy != "linear" {
		t.Errorf("unexpected status: %+v", response)
	}
	if len(response.Pending) != 2 || response.Pending[0] != "q" {
		t.Errorf("expected pending [q p], got %v", response.Pending)
	}
}
