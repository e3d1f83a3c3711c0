package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Configs table - stores action evaluation configs as JSON
		`CREATE TABLE IF NOT EXISTS configs (
			id TEXT PRIMARY KEY,
			action_name TEXT NOT NULL UNIQUE,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Evaluations table - stores completed evaluation snapshots together
		// with the exact config they were scored against, so incremental
		// re-evaluation reuses the original rules
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			action_name TEXT NOT NULL,
			score REAL,
			summary TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL,
			config TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Refinement cache table - one row per distinct refinement input
		`CREATE TABLE IF NOT EXISTS refinement_cache (
			key TEXT PRIMARY KEY,
			refined TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_evaluations_action_name ON evaluations(action_name)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
