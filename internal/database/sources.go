package database

import (
	"database/sql"
)

// InsertSource registers a source. Existing ids are left untouched so
// user edits survive re-seeding.
func (db *DB) InsertSource(id, name, feedURL, category string) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO sources (id, name, feed_url, category) VALUES (?, ?, ?, ?)`,
		id, name, feedURL, category,
	)
	return err
}

// GetAllSources returns every registered source.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, feed_url, category, is_active, created_at FROM sources ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSources(rows)
}

// GetActiveSources returns sources currently enabled for collection.
func (db *DB) GetActiveSources() ([]Source, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, feed_url, category, is_active, created_at
		FROM sources WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSources(rows)
}

// GetSource returns a single source by id, or nil if not registered.
func (db *DB) GetSource(id string) (*Source, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, feed_url, category, is_active, created_at FROM sources WHERE id = ?`, id,
	)
	var s Source
	var active int
	err := row.Scan(&s.ID, &s.Name, &s.FeedURL, &s.Category, &active, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.IsActive = active != 0
	return &s, nil
}

// ToggleSource flips a source's active state.
func (db *DB) ToggleSource(id string) error {
	_, err := db.conn.Exec(
		"UPDATE sources SET is_active = 1 - is_active WHERE id = ?", id,
	)
	return err
}

// DeleteSource removes a source from the registry.
func (db *DB) DeleteSource(id string) error {
	_, err := db.conn.Exec("DELETE FROM sources WHERE id = ?", id)
	return err
}

// SourceIDMap maps each item URL in a period to the short id of the
// source it was collected from. Items collected outside the registry
// (or before it existed) are simply absent from the map.
func (db *DB) SourceIDMap(periodID string) (map[string]string, error) {
	rows, err := db.conn.Query(
		`SELECT url, source_id FROM items WHERE period_id = ? AND source_id IS NOT NULL`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var url, sourceID string
		if err := rows.Scan(&url, &sourceID); err != nil {
			return nil, err
		}
		m[url] = sourceID
	}
	return m, rows.Err()
}

func scanSources(rows *sql.Rows) ([]Source, error) {
	var sources []Source
	for rows.Next() {
		var s Source
		var active int
		if err := rows.Scan(&s.ID, &s.Name, &s.FeedURL, &s.Category, &active, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.IsActive = active != 0
		sources = append(sources, s)
	}
	return sources, rows.Err()
}
