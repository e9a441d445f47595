package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fragmede/threadview/internal/api"
)

// Seen is the set of comment ids the user has already been shown for one
// subject.
type Seen struct {
	Subject   api.Subject
	IDs       []int
	CheckedAt time.Time
}

// GetSeen returns the seen ids of s. ok is false when s was never recorded.
func (d *DB) GetSeen(s api.Subject) (Seen, bool, error) {
	var idsJSON string
	var checkedAt int64
	err := d.db.QueryRow(`SELECT comment_ids, checked_at FROM seen_comments
		WHERE content_type = ? AND object_pk = ?`, s.ContentType, s.ObjectID).
		Scan(&idsJSON, &checkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Seen{Subject: s}, false, nil
	}
	if err != nil {
		return Seen{}, false, err
	}

	seen := Seen{Subject: s, CheckedAt: time.Unix(checkedAt, 0)}
	if err := json.Unmarshal([]byte(idsJSON), &seen.IDs); err != nil {
		return Seen{}, false, err
	}
	return seen, true, nil
}

// PutSeen records the ids currently known for a subject.
func (d *DB) PutSeen(seen Seen) error {
	ids := seen.IDs
	if ids == nil {
		ids = []int{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO seen_comments
		(content_type, object_pk, comment_ids, checked_at)
		VALUES (?, ?, ?, ?)`,
		seen.Subject.ContentType, seen.Subject.ObjectID, string(idsJSON), seen.CheckedAt.Unix())
	return err
}
