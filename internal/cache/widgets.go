package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fragmede/threadview/internal/api"
)

// GetWidget retrieves the widget attributes scraped from pageURL.
func (d *DB) GetWidget(pageURL string, ttl time.Duration) (*api.Widget, bool, error) {
	var attrs string
	var fetchedAt int64
	err := d.db.QueryRow(`SELECT attributes, fetched_at FROM widgets WHERE page_url = ?`, pageURL).
		Scan(&attrs, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var w api.Widget
	if err := json.Unmarshal([]byte(attrs), &w); err != nil {
		return nil, false, err
	}
	return &w, time.Since(time.Unix(fetchedAt, 0)) < ttl, nil
}

// PutWidget stores or replaces the widget attributes of pageURL.
func (d *DB) PutWidget(pageURL string, w *api.Widget) error {
	attrs, err := json.Marshal(w)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO widgets (page_url, attributes, fetched_at)
		VALUES (?, ?, ?)`, pageURL, string(attrs), time.Now().Unix())
	return err
}
