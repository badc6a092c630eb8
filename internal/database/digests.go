package database

import (
	"database/sql"
)

// InsertDigest records an assembled digest for a period, replacing any
// previous record for the same period.
func (db *DB) InsertDigest(periodID string, itemCount, enrichedCount int) error {
	_, err := db.conn.Exec(
		`INSERT INTO digests (period_id, item_count, enriched_count)
		VALUES (?, ?, ?)
		ON CONFLICT(period_id) DO UPDATE SET
			item_count = excluded.item_count,
			enriched_count = excluded.enriched_count,
			generated_at = datetime('now')`,
		periodID, itemCount, enrichedCount,
	)
	return err
}

// UpdateDigestEnrichedCount records how many digest items gained a
// community-sentiment synopsis.
func (db *DB) UpdateDigestEnrichedCount(periodID string, enrichedCount int) error {
	_, err := db.conn.Exec(
		"UPDATE digests SET enriched_count = ? WHERE period_id = ?",
		enrichedCount, periodID,
	)
	return err
}

// GetDigest returns the digest for a period, or nil if none exists.
func (db *DB) GetDigest(periodID string) (*Digest, error) {
	row := db.conn.QueryRow(
		`SELECT id, period_id, item_count, enriched_count, generated_at
		FROM digests WHERE period_id = ?`, periodID,
	)
	var d Digest
	err := row.Scan(&d.ID, &d.PeriodID, &d.ItemCount, &d.EnrichedCount, &d.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetAllDigests returns all digests, newest period first.
func (db *DB) GetAllDigests() ([]Digest, error) {
	rows, err := db.conn.Query(
		`SELECT id, period_id, item_count, enriched_count, generated_at
		FROM digests ORDER BY period_id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []Digest
	for rows.Next() {
		var d Digest
		if err := rows.Scan(&d.ID, &d.PeriodID, &d.ItemCount, &d.EnrichedCount, &d.GeneratedAt); err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

// GetLastRunDate returns the end date of the most recent digest, or "".
func (db *DB) GetLastRunDate() (string, error) {
	var periodID string
	err := db.conn.QueryRow(
		"SELECT period_id FROM digests ORDER BY period_id DESC LIMIT 1",
	).Scan(&periodID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return PeriodEndDate(periodID), nil
}

// GetStats returns aggregate statistics for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		dest  *int
		query string
	}{
		{&s.TotalItems, "SELECT COUNT(*) FROM items"},
		{&s.RankedItems, "SELECT COUNT(*) FROM item_rank"},
		{&s.DigestItems, "SELECT COUNT(*) FROM items WHERE in_digest = 1"},
		{&s.EnrichedItems, "SELECT COUNT(*) FROM items WHERE comment_summary IS NOT NULL"},
		{&s.Digests, "SELECT COUNT(*) FROM digests"},
		{&s.PeriodsWithItems, "SELECT COUNT(DISTINCT period_id) FROM items WHERE period_id IS NOT NULL"},
		{&s.TotalSources, "SELECT COUNT(*) FROM sources"},
		{&s.ActiveSources, "SELECT COUNT(*) FROM sources WHERE is_active = 1"},
		{&s.TotalUsageRecords, "SELECT COUNT(*) FROM ai_usage"},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}
