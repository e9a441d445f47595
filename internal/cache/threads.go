package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fragmede/threadview/internal/api"
)

// GetThread retrieves the cached comment list of s. fresh reports whether it
// is younger than ttl. A miss returns a nil thread and no error.
func (d *DB) GetThread(s api.Subject, ttl time.Duration) (*api.Thread, bool, error) {
	var metaJSON, payload string
	var fetchedAt int64
	err := d.db.QueryRow(`SELECT meta, payload, fetched_at FROM threads
		WHERE content_type = ? AND object_pk = ?`, s.ContentType, s.ObjectID).
		Scan(&metaJSON, &payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	t := &api.Thread{Subject: s}
	if err := json.Unmarshal([]byte(metaJSON), &t.Meta); err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(payload), &t.Comments); err != nil {
		return nil, false, err
	}

	isFresh := time.Since(time.Unix(fetchedAt, 0)) < ttl
	return t, isFresh, nil
}

// PutThread stores or replaces a comment list.
func (d *DB) PutThread(t *api.Thread) error {
	metaJSON, err := json.Marshal(t.Meta)
	if err != nil {
		return err
	}
	comments := t.Comments
	if comments == nil {
		comments = []api.Comment{}
	}
	payload, err := json.Marshal(comments)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO threads
		(content_type, object_pk, meta, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.Subject.ContentType, t.Subject.ObjectID, string(metaJSON), string(payload), time.Now().Unix())
	return err
}

// InvalidateThread marks the cached list of s as stale so the next open
// refetches it. The rows stay available for offline use.
func (d *DB) InvalidateThread(s api.Subject) error {
	_, err := d.db.Exec(`UPDATE threads SET fetched_at = 0
		WHERE content_type = ? AND object_pk = ?`, s.ContentType, s.ObjectID)
	return err
}
