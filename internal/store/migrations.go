package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per corrector run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			strategy TEXT NOT NULL CHECK(strategy IN ('linear', 'projective')),
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Keystrokes table - one row per judged key press
		`CREATE TABLE IF NOT EXISTS keystrokes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			outcome TEXT NOT NULL CHECK(outcome IN ('no_rule', 'unmapped', 'correct', 'wrong', 'unknown')),
			expected TEXT NOT NULL DEFAULT '',
			finger TEXT NOT NULL DEFAULT '',
			distance REAL NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		// Drills table - completed practice texts
		`CREATE TABLE IF NOT EXISTS drills (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			level TEXT NOT NULL,
			text_index INTEGER NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			errors INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_keystrokes_session_id ON keystrokes(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_drills_session_id ON drills(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
