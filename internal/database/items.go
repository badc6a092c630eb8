package database

import (
	"database/sql"
)

const itemColumns = `id, url, title, source_id, source_name, category, published_date,
	content, content_fetched, summary, period_id, position, in_digest, collected_at,
	comment_summary, comment_count, comment_score, comment_summary_source`

// InsertItem inserts a collected item. Returns the ID on success, 0 if duplicate.
func (db *DB) InsertItem(url, title string, sourceID, sourceName, category, publishedDate, content, periodID *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO items (url, title, source_id, source_name, category, published_date, content, period_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		url, title, sourceID, sourceName, category, publishedDate, content, periodID,
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetItemsForPeriod returns all items collected for a period.
func (db *DB) GetItemsForPeriod(periodID string) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT `+itemColumns+` FROM items WHERE period_id = ? ORDER BY collected_at DESC`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetDigestItems returns the items selected into a period's digest, in position order.
func (db *DB) GetDigestItems(periodID string) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT `+itemColumns+` FROM items
		WHERE period_id = ? AND in_digest = 1 ORDER BY position`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetItemsNeedingFetch returns items with empty content that haven't been fetched.
func (db *DB) GetItemsNeedingFetch(periodID *string) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE (content IS NULL OR content = '') AND content_fetched = 0`
	var args []any
	if periodID != nil {
		query += " AND period_id = ?"
		args = append(args, *periodID)
	}
	query += " ORDER BY collected_at DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// UpdateItemContent updates item content after fetching.
func (db *DB) UpdateItemContent(itemID int64, content *string) error {
	_, err := db.conn.Exec(
		"UPDATE items SET content = ?, content_fetched = 1 WHERE id = ?",
		content, itemID,
	)
	return err
}

// MarkItemFetchAttempted marks that we tried to fetch content.
func (db *DB) MarkItemFetchAttempted(itemID int64) error {
	_, err := db.conn.Exec(
		"UPDATE items SET content_fetched = 1 WHERE id = ?", itemID,
	)
	return err
}

// UpdateItemSummary stores the AI-generated summary for an item.
func (db *DB) UpdateItemSummary(itemID int64, summary string) error {
	_, err := db.conn.Exec(
		"UPDATE items SET summary = ? WHERE id = ?", summary, itemID,
	)
	return err
}

// SetItemDigestPosition marks an item as part of its period's digest.
func (db *DB) SetItemDigestPosition(itemID int64, position int) error {
	_, err := db.conn.Exec(
		"UPDATE items SET in_digest = 1, position = ? WHERE id = ?", position, itemID,
	)
	return err
}

// UpdateItemComments sets the community-discussion fields on an item.
// The four fields travel together: enrichment either sets all of them or none.
func (db *DB) UpdateItemComments(itemID int64, summary string, count, score int, source string) error {
	_, err := db.conn.Exec(
		`UPDATE items SET comment_summary = ?, comment_count = ?, comment_score = ?,
		comment_summary_source = ? WHERE id = ?`,
		summary, count, score, source, itemID,
	)
	return err
}

// GetItemByID returns a single item by ID.
func (db *DB) GetItemByID(itemID int64) (*Item, error) {
	row := db.conn.QueryRow(
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID,
	)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// GetUnrankedItems returns items that haven't been ranked yet.
func (db *DB) GetUnrankedItems(periodID *string) ([]Item, error) {
	query := `SELECT ` + itemColumnsQualified("i") + `
		FROM items i LEFT JOIN item_rank r ON i.id = r.item_id
		WHERE r.item_id IS NULL`
	var args []any
	if periodID != nil {
		query += " AND i.period_id = ?"
		args = append(args, *periodID)
	}
	query += " ORDER BY i.collected_at DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetIncludedItems returns items ranked for inclusion in a period, best first.
func (db *DB) GetIncludedItems(periodID string) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT `+itemColumnsQualified("i")+`
		FROM items i JOIN item_rank r ON i.id = r.item_id
		WHERE i.period_id = ? AND r.verdict = 'include'
		ORDER BY r.score DESC, i.collected_at DESC`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// InsertItemRank records the ranking verdict for an item.
func (db *DB) InsertItemRank(itemID int64, verdict string, score int, reason *string) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO item_rank (item_id, verdict, score, reason)
		VALUES (?, ?, ?, ?)`,
		itemID, verdict, score, reason,
	)
	return err
}

func itemColumnsQualified(alias string) string {
	return alias + `.id, ` + alias + `.url, ` + alias + `.title, ` + alias + `.source_id, ` +
		alias + `.source_name, ` + alias + `.category, ` + alias + `.published_date, ` +
		alias + `.content, ` + alias + `.content_fetched, ` + alias + `.summary, ` +
		alias + `.period_id, ` + alias + `.position, ` + alias + `.in_digest, ` +
		alias + `.collected_at, ` + alias + `.comment_summary, ` + alias + `.comment_count, ` +
		alias + `.comment_score, ` + alias + `.comment_summary_source`
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		var fetched, inDigest int
		if err := rows.Scan(&it.ID, &it.URL, &it.Title, &it.SourceID, &it.SourceName,
			&it.Category, &it.PublishedDate, &it.Content, &fetched, &it.Summary,
			&it.PeriodID, &it.Position, &inDigest, &it.CollectedAt,
			&it.CommentSummary, &it.CommentCount, &it.CommentScore, &it.CommentSummarySource); err != nil {
			return nil, err
		}
		it.ContentFetched = fetched != 0
		it.InDigest = inDigest != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanItem(row *sql.Row) (*Item, error) {
	var it Item
	var fetched, inDigest int
	if err := row.Scan(&it.ID, &it.URL, &it.Title, &it.SourceID, &it.SourceName,
		&it.Category, &it.PublishedDate, &it.Content, &fetched, &it.Summary,
		&it.PeriodID, &it.Position, &inDigest, &it.CollectedAt,
		&it.CommentSummary, &it.CommentCount, &it.CommentScore, &it.CommentSummarySource); err != nil {
		return nil, err
	}
	it.ContentFetched = fetched != 0
	it.InDigest = inDigest != 0
	return &it, nil
}
