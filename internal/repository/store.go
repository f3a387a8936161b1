package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// TimeFormat is how timestamps are stored in sqlite. RFC3339 in UTC keeps
// the text column lexicographically ordered, which the due-post query
// relies on.
const TimeFormat = "2006-01-02T15:04:05Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	page_id TEXT NOT NULL,
	token TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_ids TEXT NOT NULL,
	post_type TEXT NOT NULL,
	media_url TEXT NOT NULL DEFAULT '',
	caption TEXT NOT NULL DEFAULT '',
	first_comment TEXT NOT NULL DEFAULT '',
	story_link TEXT NOT NULL DEFAULT '',
	scheduled_at TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	result TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS post_outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	account_id INTEGER NOT NULL,
	status TEXT NOT NULL,
	response TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_due ON posts (status, scheduled_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_post ON post_outcomes (post_id);
`

// Open opens (or creates) the sqlite queue store and applies the schema.
// WAL mode gives the single-writer loop durable writes while the ingestion
// API reads concurrently.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}
