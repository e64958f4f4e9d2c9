package store

import (
	"database/sql"
	"time"
)

// DrillResult is a completed practice text.
type DrillResult struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	Level     string        `json:"level"`
	TextIndex int           `json:"text_index"`
	WPM       float64       `json:"wpm"`
	Accuracy  float64       `json:"accuracy"`
	Errors    int           `json:"errors"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`
}

// DrillRepository provides operations for drill results.
type DrillRepository struct {
	db *sql.DB
}

// Drills returns the drill repository for this store.
func (s *Store) Drills() *DrillRepository {
	return &DrillRepository{db: s.db}
}

// Add inserts a drill result and sets its ID.
func (r *DrillRepository) Add(d *DrillResult) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO drills (session_id, level, text_index, wpm, accuracy, errors, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SessionID, d.Level, d.TextIndex, d.WPM, d.Accuracy, d.Errors, d.Elapsed.Milliseconds(), d.CreatedAt,
	)
	if err != nil {
		return err
	}

	d.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns a session's drill results, oldest first.
func (r *DrillRepository) ListBySession(sessionID string) ([]*DrillResult, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, level, text_index, wpm, accuracy, errors, elapsed_ms, created_at
		 FROM drills WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drills []*DrillResult
	for rows.Next() {
		d := &DrillResult{}
		var elapsedMs int64
		err := rows.Scan(&d.ID, &d.SessionID, &d.Level, &d.TextIndex, &d.WPM, &d.Accuracy, &d.Errors, &elapsedMs, &d.CreatedAt)
		if err != nil {
			return nil, err
		}
		d.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		drills = append(drills, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return drills, nil
}
