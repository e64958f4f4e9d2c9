package store

import (
	"database/sql"
	"time"
)

// Keystroke is one judged key press.
type Keystroke struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Key       string    `json:"key"`
	Outcome   string    `json:"outcome"`
	Expected  string    `json:"expected,omitempty"`
	Finger    string    `json:"finger,omitempty"`
	Distance  float64   `json:"distance"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// KeystrokeRepository provides operations for keystrokes.
type KeystrokeRepository struct {
	db *sql.DB
}

// Keystrokes returns the keystroke repository for this store.
func (s *Store) Keystrokes() *KeystrokeRepository {
	return &KeystrokeRepository{db: s.db}
}

// Add inserts a keystroke and sets its ID.
func (r *KeystrokeRepository) Add(k *Keystroke) error {
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO keystrokes (session_id, key, outcome, expected, finger, distance, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		k.SessionID, k.Key, k.Outcome, k.Expected, k.Finger, k.Distance, k.Reason, k.CreatedAt,
	)
	if err != nil {
		return err
	}

	k.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns a session's keystrokes in the order they were
// typed. A non-positive limit returns all of them.
func (r *KeystrokeRepository) ListBySession(sessionID string, limit int) ([]*Keystroke, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, key, outcome, expected, finger, distance, reason, created_at
		 FROM keystrokes WHERE session_id = ? ORDER BY id LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keystrokes []*Keystroke
	for rows.Next() {
		k := &Keystroke{}
		err := rows.Scan(&k.ID, &k.SessionID, &k.Key, &k.Outcome, &k.Expected, &k.Finger, &k.Distance, &k.Reason, &k.CreatedAt)
		if err != nil {
			return nil, err
		}
		keystrokes = append(keystrokes, k)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keystrokes, nil
}

// FingerErrors counts wrong-finger keystrokes per key for a session, for
// finding the keys that need practice.
func (r *KeystrokeRepository) FingerErrors(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT key, COUNT(*) FROM keystrokes
		 WHERE session_id = ? AND outcome = 'wrong' GROUP BY key`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}

	return counts, rows.Err()
}
