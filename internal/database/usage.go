package database

// InsertUsage appends one AI token-accounting record.
func (db *DB) InsertUsage(u UsageRecord) error {
	_, err := db.conn.Exec(
		`INSERT INTO ai_usage (period_id, item_id, provider, model, operation,
			prompt_tokens, completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.PeriodID, u.ItemID, u.Provider, u.Model, u.Operation,
		u.PromptTokens, u.CompletionTokens, u.TotalTokens,
	)
	return err
}

// GetUsageForPeriod returns all usage records for a period.
func (db *DB) GetUsageForPeriod(periodID string) ([]UsageRecord, error) {
	rows, err := db.conn.Query(
		`SELECT id, period_id, item_id, provider, model, operation,
			prompt_tokens, completion_tokens, total_tokens, created_at
		FROM ai_usage WHERE period_id = ? ORDER BY id`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []UsageRecord
	for rows.Next() {
		var u UsageRecord
		if err := rows.Scan(&u.ID, &u.PeriodID, &u.ItemID, &u.Provider, &u.Model,
			&u.Operation, &u.PromptTokens, &u.CompletionTokens, &u.TotalTokens,
			&u.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, u)
	}
	return records, rows.Err()
}

// GetUsageSummaries aggregates token usage per period, newest first.
func (db *DB) GetUsageSummaries() ([]UsageSummary, error) {
	rows, err := db.conn.Query(
		`SELECT period_id, COUNT(*),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0)
		FROM ai_usage GROUP BY period_id ORDER BY period_id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []UsageSummary
	for rows.Next() {
		var s UsageSummary
		if err := rows.Scan(&s.PeriodID, &s.Calls, &s.PromptTokens,
			&s.CompletionTokens, &s.TotalTokens); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// InsertEnrichmentLog persists one structured enrichment log entry.
func (db *DB) InsertEnrichmentLog(periodID, level, category, message string) error {
	_, err := db.conn.Exec(
		`INSERT INTO enrichment_logs (period_id, level, category, message)
		VALUES (?, ?, ?, ?)`,
		periodID, level, category, message,
	)
	return err
}

// GetEnrichmentLogs returns the enrichment log entries for a period.
func (db *DB) GetEnrichmentLogs(periodID string) ([]EnrichmentLog, error) {
	rows, err := db.conn.Query(
		`SELECT id, period_id, level, category, message, created_at
		FROM enrichment_logs WHERE period_id = ? ORDER BY id`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []EnrichmentLog
	for rows.Next() {
		var l EnrichmentLog
		if err := rows.Scan(&l.ID, &l.PeriodID, &l.Level, &l.Category, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
