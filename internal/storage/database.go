package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// driverName is the sqlite3 driver with the application's SQL functions registered.
const driverName = "sqlite3_notes"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// SQLite's LOWER only folds ASCII; ulower folds like strings.ToLower.
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

// timeLayout is a fixed-width UTC layout so that TEXT timestamps sort chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	// Foreign keys are disabled by default in SQLite and the pragma is per connection,
	// so it goes in the DSN to cover every pooled connection.
	db, err := sql.Open(driverName, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS folders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			folder_id TEXT,
			title TEXT NOT NULL DEFAULT '',
			current_version_id TEXT,
			is_pinned INTEGER NOT NULL DEFAULT 0,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE SET NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id, is_deleted);`,
		`CREATE TABLE IF NOT EXISTS note_versions (
			id TEXT PRIMARY KEY,
			note_id TEXT NOT NULL,
			version_number INTEGER NOT NULL,
			rich_content TEXT NOT NULL DEFAULT '[]',
			plain_text TEXT NOT NULL DEFAULT '',
			is_published INTEGER NOT NULL DEFAULT 0,
			published_at TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE,
			UNIQUE (note_id, version_number)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_versions_published ON note_versions(note_id, is_published, published_at);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			note_id TEXT NOT NULL,
			note_version_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (note_version_id) REFERENCES note_versions(id) ON DELETE CASCADE,
			UNIQUE (note_version_id, chunk_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_user ON chunks(user_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by SQLite defaults or older tooling.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
