package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the corrector.
type Session struct {
	ID        string     `json:"id"`
	Strategy  string     `json:"strategy"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// SessionSummary is a session with its keystroke tallies.
type SessionSummary struct {
	Session
	Keystrokes int            `json:"keystrokes"`
	Outcomes   map[string]int `json:"outcomes"`
	Drills     int            `json:"drills"`
}

// SessionRepository provides operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. An empty ID is filled with a random UUID;
// a zero StartedAt is set to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, strategy, width, height, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Strategy, sess.Width, sess.Height, sess.StartedAt,
	)
	return err
}

// End records the session's end time.
func (r *SessionRepository) End(id string, at time.Time) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, strategy, width, height, started_at, ended_at
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves the most recent sessions, newest first. A non-positive
// limit returns all sessions.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, strategy, width, height, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Summary returns a session with its keystroke and drill counts.
func (r *SessionRepository) Summary(id string) (*SessionSummary, error) {
	sess, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{Session: *sess, Outcomes: make(map[string]int)}

	rows, err := r.db.Query(
		`SELECT outcome, COUNT(*) FROM keystrokes WHERE session_id = ? GROUP BY outcome`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		summary.Outcomes[outcome] = n
		summary.Keystrokes += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRow(`SELECT COUNT(*) FROM drills WHERE session_id = ?`, id).Scan(&summary.Drills)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// Delete removes a session and, by cascade, its keystrokes and drills.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.Strategy, &sess.Width, &sess.Height, &sess.StartedAt, &ended)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
