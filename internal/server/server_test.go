package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/typecoach/internal/fingering"
	"github.com/ayusman/typecoach/internal/shm"
	"github.com/ayusman/typecoach/internal/store"
)

type fixedStatus struct {
	state fingering.State
}

func (f fixedStatus) Status() fingering.Status {
	return fingering.Status{State: f.state, Strategy: "projective"}
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	t.Run("bare server", func(t *testing.T) {
		rec := serve(New(Config{}), http.MethodGet, "/api/health")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var health healthResponse
		if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.Status != "ok" || health.Uptime == "" {
			t.Errorf("health = %+v", health)
		}
		if health.State != "" || health.Journal || health.Stream || health.Clients != 0 {
			t.Errorf("bare server reports components: %+v", health)
		}
	})

	t.Run("reports attached components", func(t *testing.T) {
		st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("store.New() error = %v", err)
		}
		defer st.Close()

		s := New(Config{
			Store:  st,
			Status: fixedStatus{state: fingering.Calibrating},
			Frames: &fakeFrames{dims: shm.Dimensions{Width: 2, Height: 2, Channels: 3}},
			Events: NewEventHub(),
		})

		var health healthResponse
		json.NewDecoder(serve(s, http.MethodGet, "/api/health").Body).Decode(&health)

		if health.State != "calibrating" {
			t.Errorf("state = %q, want calibrating", health.State)
		}
		if !health.Journal || !health.Stream {
			t.Errorf("journal=%v stream=%v, want both", health.Journal, health.Stream)
		}
	})

	t.Run("only allows GET", func(t *testing.T) {
		s := New(Config{})
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			if rec := serve(s, method, "/api/health"); rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s: expected %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_OptionalRoutes(t *testing.T) {
	bare := New(Config{})
	for _, path := range []string{"/api/status", "/api/sessions", "/api/stream", "/api/events", "/api/nonexistent"} {
		if rec := serve(bare, http.MethodGet, path); rec.Code != http.StatusNotFound {
			t.Errorf("bare %s: expected %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}

	s := New(Config{Status: fixedStatus{state: fingering.Ready}})
	rec := serve(s, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/status: expected %d, got %d", http.StatusOK, rec.Code)
	}

	var status struct {
		State    string `json:"state"`
		Strategy string `json:"strategy"`
	}
	json.NewDecoder(rec.Body).Decode(&status)
	if status.State != "ready" || status.Strategy != "projective" {
		t.Errorf("status = %+v", status)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>typecoach</body></html>"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0644); err != nil {
		t.Fatalf("failed to create index.html: %v", err)
	}

	s := New(Config{StaticDir: dir, Status: fixedStatus{}})

	t.Run("serves index at root", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/")
		if rec.Code != http.StatusOK || rec.Body.String() != index {
			t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("answers HEAD", func(t *testing.T) {
		if rec := serve(s, http.MethodHead, "/index.html"); rec.Code != http.StatusOK {
			t.Errorf("HEAD: expected %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("missing file is 404", func(t *testing.T) {
		if rec := serve(s, http.MethodGet, "/missing.js"); rec.Code != http.StatusNotFound {
			t.Errorf("expected %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("static catch-all keeps API 405s", func(t *testing.T) {
		if rec := serve(s, http.MethodPost, "/api/status"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST /api/status: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}
