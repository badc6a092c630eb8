package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestInsertItem(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertItem("https://example.com/test", "Test Item",
		ptr("r-localllama"), ptr("r/LocalLLaMA"), ptr("community"), ptr("2026-08-30"), ptr("Body text"), ptr("2026-08-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero item ID")
	}
}

func TestInsertDuplicateItem(t *testing.T) {
	db := openTestDB(t)
	_, _ = db.InsertItem("https://example.com/dup", "First", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	id, err := db.InsertItem("https://example.com/dup", "Duplicate", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate item")
	}
}

func TestGetItemsForPeriod(t *testing.T) {
	db := openTestDB(t)
	db.InsertItem("https://a.com", "A", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertItem("https://b.com", "B", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertItem("https://c.com", "C", nil, nil, nil, nil, nil, ptr("2026-08-30"))

	items, err := db.GetItemsForPeriod("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestItemsNeedingFetch(t *testing.T) {
	db := openTestDB(t)
	db.InsertItem("https://a.com", "No content", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertItem("https://b.com", "Has content", nil, nil, nil, nil, ptr("Already here"), ptr("2026-08-31"))

	items, err := db.GetItemsNeedingFetch(ptr("2026-08-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item needing fetch, got %d", len(items))
	}
	if items[0].Title != "No content" {
		t.Errorf("wrong item needs fetch: %s", items[0].Title)
	}
}

func TestUpdateItemComments(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertItem("https://www.reddit.com/r/x/comments/1/p/", "Discussed",
		ptr("r-x"), nil, nil, nil, nil, ptr("2026-08-31"))

	err := db.UpdateItemComments(id, "Community loved it", 45, 120, CommentSourceGenerated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item, err := db.GetItemByID(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.CommentSummary == nil || *item.CommentSummary != "Community loved it" {
		t.Error("expected comment summary persisted")
	}
	if item.CommentCount == nil || *item.CommentCount != 45 {
		t.Error("expected comment count persisted")
	}
	if item.CommentScore == nil || *item.CommentScore != 120 {
		t.Error("expected comment score persisted")
	}
	if item.CommentSummarySource == nil || *item.CommentSummarySource != CommentSourceGenerated {
		t.Error("expected summary source persisted")
	}
}

func TestDigestItemsOrderedByPosition(t *testing.T) {
	db := openTestDB(t)
	a, _ := db.InsertItem("https://a.com", "A", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	b, _ := db.InsertItem("https://b.com", "B", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	c, _ := db.InsertItem("https://c.com", "C", nil, nil, nil, nil, nil, ptr("2026-08-31"))

	db.SetItemDigestPosition(b, 1)
	db.SetItemDigestPosition(c, 2)
	_ = a // not selected

	items, err := db.GetDigestItems("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 digest items, got %d", len(items))
	}
	if items[0].Title != "B" || items[1].Title != "C" {
		t.Errorf("wrong order: %s, %s", items[0].Title, items[1].Title)
	}
}

func TestRankingFlow(t *testing.T) {
	db := openTestDB(t)
	a, _ := db.InsertItem("https://a.com", "Low", nil, nil, nil, nil, ptr("text"), ptr("2026-08-31"))
	b, _ := db.InsertItem("https://b.com", "High", nil, nil, nil, nil, ptr("text"), ptr("2026-08-31"))
	c, _ := db.InsertItem("https://c.com", "Skipped", nil, nil, nil, nil, ptr("text"), ptr("2026-08-31"))

	unranked, _ := db.GetUnrankedItems(ptr("2026-08-31"))
	if len(unranked) != 3 {
		t.Fatalf("expected 3 unranked, got %d", len(unranked))
	}

	db.InsertItemRank(a, "include", 2, ptr("ok"))
	db.InsertItemRank(b, "include", 5, ptr("great"))
	db.InsertItemRank(c, "skip", 0, ptr("noise"))

	unranked, _ = db.GetUnrankedItems(ptr("2026-08-31"))
	if len(unranked) != 0 {
		t.Errorf("expected 0 unranked after ranking, got %d", len(unranked))
	}

	included, err := db.GetIncludedItems("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(included) != 2 {
		t.Fatalf("expected 2 included, got %d", len(included))
	}
	if included[0].Title != "High" {
		t.Errorf("expected best-scored first, got %s", included[0].Title)
	}
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertSource("r-localllama", "r/LocalLLaMA", "https://www.reddit.com/r/LocalLLaMA/.rss", "community"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db.InsertSource("hn-ai", "Hacker News AI", "https://hnrss.org/newest?q=AI", "community")

	s, err := db.GetSource("r-localllama")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s == nil || !s.IsActive {
		t.Fatal("expected active source")
	}

	db.ToggleSource("r-localllama")
	active, _ := db.GetActiveSources()
	if len(active) != 1 {
		t.Errorf("expected 1 active source after toggle, got %d", len(active))
	}

	db.DeleteSource("hn-ai")
	all, _ := db.GetAllSources()
	if len(all) != 1 {
		t.Errorf("expected 1 source after delete, got %d", len(all))
	}
}

func TestSourceIDMap(t *testing.T) {
	db := openTestDB(t)
	db.InsertItem("https://www.reddit.com/r/x/comments/1/p/", "Reddit item",
		ptr("r-x"), nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertItem("https://example.com/article", "HN item",
		ptr("hn-ai"), nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertItem("https://legacy.com/old", "Unsourced item",
		nil, nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertItem("https://other.com/x", "Other period",
		ptr("r-x"), nil, nil, nil, nil, ptr("2026-08-30"))

	m, err := db.SourceIDMap("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m))
	}
	if m["https://www.reddit.com/r/x/comments/1/p/"] != "r-x" {
		t.Error("expected reddit item mapped to r-x")
	}
	if m["https://example.com/article"] != "hn-ai" {
		t.Error("expected HN item mapped to hn-ai")
	}
}

func TestDigestUpsert(t *testing.T) {
	db := openTestDB(t)
	db.InsertDigest("2026-08-31", 5, 0)
	db.InsertDigest("2026-08-31", 7, 0)

	d, err := db.GetDigest("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || d.ItemCount != 7 {
		t.Fatal("expected upserted item count 7")
	}

	db.UpdateDigestEnrichedCount("2026-08-31", 3)
	d, _ = db.GetDigest("2026-08-31")
	if d.EnrichedCount != 3 {
		t.Errorf("expected enriched count 3, got %d", d.EnrichedCount)
	}
}

func TestGetDigestMissing(t *testing.T) {
	db := openTestDB(t)
	d, err := db.GetDigest("2026-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Error("expected nil for missing digest")
	}
}

func TestUsageRecords(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertItem("https://a.com", "A", nil, nil, nil, nil, nil, ptr("2026-08-31"))

	err := db.InsertUsage(UsageRecord{
		PeriodID: "2026-08-31", ItemID: id,
		Provider: "gemini", Model: "gemini-2.0-flash", Operation: "comments",
		PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db.InsertUsage(UsageRecord{
		PeriodID: "2026-08-31", ItemID: id,
		Provider: "gemini", Model: "gemini-2.0-flash", Operation: "rank",
		PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60,
	})

	records, err := db.GetUsageForPeriod("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	summaries, err := db.GetUsageSummaries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Calls != 2 || summaries[0].TotalTokens != 180 {
		t.Errorf("unexpected summary: %+v", summaries[0])
	}
}

func TestEnrichmentLogs(t *testing.T) {
	db := openTestDB(t)
	db.InsertEnrichmentLog("2026-08-31", "error", "enrichment", "fetching reddit thread failed")
	db.InsertEnrichmentLog("2026-08-31", "info", "enrichment", "enriched 2 of 3 discussion items")

	logs, err := db.GetEnrichmentLogs("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].Level != "error" {
		t.Errorf("expected insertion order preserved, got %s first", logs[0].Level)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.InsertSource("r-x", "r/x", "https://reddit.com/r/x/.rss", "community")
	id, _ := db.InsertItem("https://a.com", "A", ptr("r-x"), nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertItemRank(id, "include", 4, nil)
	db.SetItemDigestPosition(id, 1)
	db.UpdateItemComments(id, "Positive", 20, 80, CommentSourceGenerated)
	db.InsertDigest("2026-08-31", 1, 1)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalItems != 1 || stats.RankedItems != 1 || stats.DigestItems != 1 {
		t.Errorf("unexpected item stats: %+v", stats)
	}
	if stats.EnrichedItems != 1 || stats.Digests != 1 {
		t.Errorf("unexpected output stats: %+v", stats)
	}
	if stats.TotalSources != 1 || stats.ActiveSources != 1 {
		t.Errorf("unexpected source stats: %+v", stats)
	}
}

func TestPeriodHelpers(t *testing.T) {
	if got := MakePeriodID("2026-08-25", "2026-08-31"); got != "2026-08-25..2026-08-31" {
		t.Errorf("unexpected period id: %s", got)
	}
	if got := PeriodEndDate("2026-08-25..2026-08-31"); got != "2026-08-31" {
		t.Errorf("unexpected end date: %s", got)
	}
	if got := PeriodEndDate("2026-08-31"); got != "2026-08-31" {
		t.Errorf("unexpected end date for single day: %s", got)
	}
}
