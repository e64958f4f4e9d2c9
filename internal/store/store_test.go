package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "typecoach-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func newTestSession(t *testing.T, s *Store) *Session {
	t.Helper()

	sess := &Session{Strategy: "projective", Width: 1280, Height: 720}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "typecoach-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"sessions", "keystrokes", "drills"}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	for i := 0; i < 2; i++ {
		s, err := New(dbPath)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		s.Close()
	}
}

func TestStore_Close(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "typecoach-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	s, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	_, err = s.DB().Exec("SELECT 1")
	if err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestStore_IndexesCreated(t *testing.T) {
	s := newTestStore(t)

	indexes := []string{
		"idx_keystrokes_session_id",
		"idx_drills_session_id",
	}
	for _, idx := range indexes {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	sess := newTestSession(t, s)

	if sess.ID == "" {
		t.Fatal("Create should assign an ID")
	}
	if sess.StartedAt.IsZero() {
		t.Fatal("Create should set StartedAt")
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Strategy != "projective" || got.Width != 1280 || got.Height != 720 {
		t.Errorf("got %+v", got)
	}
	if got.EndedAt != nil {
		t.Error("new session should not be ended")
	}
}

func TestSessionRepository_RejectsUnknownStrategy(t *testing.T) {
	s := newTestStore(t)

	err := s.Sessions().Create(&Session{Strategy: "cubic", Width: 1, Height: 1})
	if err == nil {
		t.Error("expected CHECK constraint failure")
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)
	sess := newTestSession(t, s)

	end := sess.StartedAt.Add(5 * time.Minute)
	if err := s.Sessions().End(sess.ID, end); err != nil {
		t.Fatalf("End: %v", err)
	}

	got, err := s.Sessions().GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(end) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, end)
	}

	if err := s.Sessions().End("missing", end); !errors.Is(err, ErrNotFound) {
		t.Errorf("End(missing) = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sessions().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		sess := &Session{
			Strategy:  "linear",
			Width:     640,
			Height:    480,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.Sessions().Create(sess); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := s.Sessions().List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if !all[0].StartedAt.After(all[2].StartedAt) {
		t.Error("sessions should be newest first")
	}

	limited, err := s.Sessions().List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len = %d, want 2", len(limited))
	}
}

func TestKeystrokeRepository_AddAndList(t *testing.T) {
	s := newTestStore(t)
	sess := newTestSession(t, s)

	strokes := []*Keystroke{
		{SessionID: sess.ID, Key: "f", Outcome: "correct", Expected: "LEFT_INDEX", Finger: "LEFT_INDEX", Distance: 4.5},
		{SessionID: sess.ID, Key: "j", Outcome: "wrong", Expected: "RIGHT_INDEX", Finger: "RIGHT_MIDDLE", Distance: 12},
		{SessionID: sess.ID, Key: "j", Outcome: "wrong", Expected: "RIGHT_INDEX", Finger: "RIGHT_RING", Distance: 20},
		{SessionID: sess.ID, Key: "1", Outcome: "no_rule"},
	}
	for _, k := range strokes {
		if err := s.Keystrokes().Add(k); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if k.ID == 0 {
			t.Error("Add should assign an ID")
		}
	}

	got, err := s.Keystrokes().ListBySession(sess.ID, 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != len(strokes) {
		t.Fatalf("len = %d, want %d", len(got), len(strokes))
	}
	if got[1].Finger != "RIGHT_MIDDLE" || got[1].Distance != 12 {
		t.Errorf("second keystroke = %+v", got[1])
	}

	errs, err := s.Keystrokes().FingerErrors(sess.ID)
	if err != nil {
		t.Fatalf("FingerErrors: %v", err)
	}
	if errs["j"] != 2 || len(errs) != 1 {
		t.Errorf("FingerErrors = %v, want map[j:2]", errs)
	}
}

func TestKeystrokeRepository_RejectsUnknownSession(t *testing.T) {
	s := newTestStore(t)

	err := s.Keystrokes().Add(&Keystroke{SessionID: "missing", Key: "a", Outcome: "correct"})
	if err == nil {
		t.Error("expected foreign key failure")
	}
}

func TestKeystrokeRepository_RejectsUnknownOutcome(t *testing.T) {
	s := newTestStore(t)
	sess := newTestSession(t, s)

	err := s.Keystrokes().Add(&Keystroke{SessionID: sess.ID, Key: "a", Outcome: "maybe"})
	if err == nil {
		t.Error("expected CHECK constraint failure")
	}
}

func TestDrillRepository_AddAndList(t *testing.T) {
	s := newTestStore(t)
	sess := newTestSession(t, s)

	d := &DrillResult{
		SessionID: sess.ID,
		Level:     "beginner",
		TextIndex: 1,
		WPM:       42.5,
		Accuracy:  97.2,
		Errors:    2,
		Elapsed:   90 * time.Second,
	}
	if err := s.Drills().Add(d); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.Drills().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Elapsed != 90*time.Second || got[0].WPM != 42.5 {
		t.Errorf("drill = %+v", got[0])
	}
}

func TestSessionRepository_Summary(t *testing.T) {
	s := newTestStore(t)
	sess := newTestSession(t, s)

	for _, outcome := range []string{"correct", "correct", "wrong", "unknown"} {
		if err := s.Keystrokes().Add(&Keystroke{SessionID: sess.ID, Key: "a", Outcome: outcome}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := s.Drills().Add(&DrillResult{SessionID: sess.ID, Level: "advanced"}); err != nil {
		t.Fatalf("Add drill: %v", err)
	}

	sum, err := s.Sessions().Summary(sess.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Keystrokes != 4 || sum.Outcomes["correct"] != 2 || sum.Outcomes["wrong"] != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Drills != 1 {
		t.Errorf("Drills = %d, want 1", sum.Drills)
	}

	if _, err := s.Sessions().Summary("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Summary(missing) = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	sess := newTestSession(t, s)

	if err := s.Keystrokes().Add(&Keystroke{SessionID: sess.ID, Key: "a", Outcome: "correct"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Drills().Add(&DrillResult{SessionID: sess.ID, Level: "beginner"}); err != nil {
		t.Fatalf("Add drill: %v", err)
	}

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM keystrokes").Scan(&n); err != nil {
		t.Fatalf("count keystrokes: %v", err)
	}
	if n != 0 {
		t.Errorf("keystrokes left = %d, want 0", n)
	}
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM drills").Scan(&n); err != nil {
		t.Fatalf("count drills: %v", err)
	}
	if n != 0 {
		t.Errorf("drills left = %d, want 0", n)
	}

	if err := s.Sessions().Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
