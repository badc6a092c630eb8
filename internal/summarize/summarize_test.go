package summarize

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"aidigest/internal/database"
	"aidigest/internal/llm"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
	calls    int
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (*llm.Response, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{
		Text:  m.response,
		Usage: llm.Usage{PromptTokens: 200, CompletionTokens: 40, TotalTokens: 240},
	}, nil
}

func (m *mockProvider) IsConfigured() bool { return true }
func (m *mockProvider) Name() string       { return "gemini" }
func (m *mockProvider) Model() string      { return "gemini-2.0-flash" }

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

func digestItem(t *testing.T, db *database.DB, url, title string, position int) int64 {
	t.Helper()
	id, err := db.InsertItem(url, title, nil, nil, nil, nil, ptr("Full content"), ptr("2026-08-31"))
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	if err := db.SetItemDigestPosition(id, position); err != nil {
		t.Fatalf("set position: %v", err)
	}
	return id
}

func TestSummarizePeriod(t *testing.T) {
	db := openTestDB(t)
	id := digestItem(t, db, "https://a.com", "Story A", 1)

	s := NewSummarizer(db, &mockProvider{response: "Something significant happened."})
	result := s.SummarizePeriod(context.Background(), "2026-08-31")

	if result.Summarized != 1 || result.Errors != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	item, _ := db.GetItemByID(id)
	if item.Summary == nil || *item.Summary != "Something significant happened." {
		t.Error("expected summary persisted")
	}

	usage, _ := db.GetUsageForPeriod("2026-08-31")
	if len(usage) != 1 || usage[0].Operation != "summary" {
		t.Errorf("expected 1 summary usage record, got %+v", usage)
	}
}

func TestSummarizeSkipsExistingSummaries(t *testing.T) {
	db := openTestDB(t)
	id := digestItem(t, db, "https://a.com", "Story A", 1)
	db.UpdateItemSummary(id, "Already summarized.")

	provider := &mockProvider{response: "Fresh summary."}
	s := NewSummarizer(db, provider)
	result := s.SummarizePeriod(context.Background(), "2026-08-31")

	if provider.calls != 0 {
		t.Errorf("expected no provider calls, got %d", provider.calls)
	}
	if result.Summarized != 1 {
		t.Errorf("expected existing summary counted, got %+v", result)
	}

	item, _ := db.GetItemByID(id)
	if *item.Summary != "Already summarized." {
		t.Error("expected existing summary untouched")
	}
}

func TestSummarizeErrorIsolation(t *testing.T) {
	db := openTestDB(t)
	digestItem(t, db, "https://a.com", "Story A", 1)
	digestItem(t, db, "https://b.com", "Story B", 2)

	s := NewSummarizer(db, &mockProvider{err: fmt.Errorf("model overloaded")})
	result := s.SummarizePeriod(context.Background(), "2026-08-31")

	if result.Errors != 2 || result.Summarized != 0 {
		t.Errorf("expected both items to fail independently, got %+v", result)
	}
}

func TestSummarizeNilProvider(t *testing.T) {
	db := openTestDB(t)
	s := NewSummarizer(db, nil)
	result := s.SummarizePeriod(context.Background(), "2026-08-31")
	if result.Errors != 1 {
		t.Errorf("expected error result without provider, got %+v", result)
	}
}
