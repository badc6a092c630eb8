package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"aidigest/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func newTestServer(t *testing.T, db *database.DB) *Server {
	t.Helper()
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func TestIndexRoute(t *testing.T) {
	db := openTestDB(t)
	srv := newTestServer(t, db)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Digests") {
		t.Error("expected 'Digests' in response body")
	}
}

func TestDigestRoute(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertItem("https://example.com/story", "A Big Release",
		nil, ptr("Example Blog"), ptr("news"), nil, ptr("content"), ptr("2026-08-31"))
	db.SetItemDigestPosition(id, 1)
	db.UpdateItemSummary(id, "Something important shipped.")
	db.UpdateItemComments(id, "Community is excited.", 42, 120, database.CommentSourceGenerated)
	db.InsertDigest("2026-08-31", 1, 1)

	srv := newTestServer(t, db)

	req := httptest.NewRequest("GET", "/digest/2026-08-31", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "A Big Release") {
		t.Error("expected item title in response")
	}
	if !strings.Contains(body, "Community is excited.") {
		t.Error("expected community sentiment in response")
	}
	if !strings.Contains(body, "42 comments") {
		t.Error("expected comment count in response")
	}
}

func TestDigestRouteWithoutEnrichment(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertItem("https://example.com/plain", "Plain Story",
		nil, nil, nil, nil, ptr("content"), ptr("2026-08-31"))
	db.SetItemDigestPosition(id, 1)
	db.InsertDigest("2026-08-31", 1, 0)

	srv := newTestServer(t, db)

	req := httptest.NewRequest("GET", "/digest/2026-08-31", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Community sentiment") {
		t.Error("expected no sentiment box for unenriched item")
	}
}

func TestSourcesRoutes(t *testing.T) {
	db := openTestDB(t)
	db.InsertSource("r-x", "r/x", "https://reddit.com/r/x/.rss", "community")
	srv := newTestServer(t, db)

	req := httptest.NewRequest("GET", "/sources", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "r/x") {
		t.Error("expected source name in response")
	}

	// Add a source via the form
	form := url.Values{
		"id":       {"hn-ai"},
		"name":     {"Hacker News AI"},
		"feed_url": {"https://hnrss.org/newest?q=AI"},
		"category": {"community"},
	}
	req = httptest.NewRequest("POST", "/sources", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("expected redirect after add, got %d", rec.Code)
	}
	if s, _ := db.GetSource("hn-ai"); s == nil {
		t.Error("expected new source persisted")
	}

	// Toggle it off
	req = httptest.NewRequest("POST", "/sources/hn-ai/toggle", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if s, _ := db.GetSource("hn-ai"); s == nil || s.IsActive {
		t.Error("expected source toggled inactive")
	}

	// Delete it
	req = httptest.NewRequest("POST", "/sources/hn-ai/delete", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if s, _ := db.GetSource("hn-ai"); s != nil {
		t.Error("expected source deleted")
	}
}

func TestUsageRoute(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertItem("https://a.com", "A", nil, nil, nil, nil, nil, ptr("2026-08-31"))
	db.InsertUsage(database.UsageRecord{
		PeriodID: "2026-08-31", ItemID: id,
		Provider: "gemini", Model: "gemini-2.0-flash", Operation: "comments",
		PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120,
	})

	srv := newTestServer(t, db)

	req := httptest.NewRequest("GET", "/usage", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "120") {
		t.Error("expected total tokens in response")
	}
}

func TestNotFound(t *testing.T) {
	db := openTestDB(t)
	srv := newTestServer(t, db)

	req := httptest.NewRequest("GET", "/nonsense", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
