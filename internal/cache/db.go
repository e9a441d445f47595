package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database used as an offline copy of comment threads.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite cache database and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Clear drops every cached row. The schema stays.
func (d *DB) Clear() error {
	for _, table := range []string{"threads", "widgets", "seen_comments"} {
		if _, err := d.db.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS threads (
			content_type INTEGER NOT NULL,
			object_pk TEXT NOT NULL,
			meta TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (content_type, object_pk)
		)`,

		`CREATE TABLE IF NOT EXISTS widgets (
			page_url TEXT PRIMARY KEY,
			attributes TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS seen_comments (
			content_type INTEGER NOT NULL,
			object_pk TEXT NOT NULL,
			comment_ids TEXT NOT NULL DEFAULT '[]',
			checked_at INTEGER NOT NULL,
			PRIMARY KEY (content_type, object_pk)
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
