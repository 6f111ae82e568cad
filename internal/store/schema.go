package store

// schemaSQL defines the SQLite schema for the baseline database.
// The report column holds the JSON-serialized normalized report so a
// baseline can be re-inspected, not just compared by its overall figure.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS baselines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project TEXT NOT NULL,
    recorded_at TEXT NOT NULL,
    overall REAL NOT NULL,
    source_format TEXT NOT NULL,
    report TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_baselines_project ON baselines(project, recorded_at DESC);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
