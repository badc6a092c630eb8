package summarize

import (
	"context"
	"fmt"
	"log"
	"strings"

	"aidigest/internal/database"
	"aidigest/internal/llm"
)

const summaryPrompt = `You are writing one story summary for a daily AI news digest.

Story Title: %s
Source: %s
Content:
%s

Write a 2-3 sentence summary that tells the reader what happened and why it matters. Be specific about names, numbers, and outcomes. Avoid marketing language. Respond with ONLY the summary text, no preamble.`

// Result holds the results of a summarization run.
type Result struct {
	Summarized int
	Errors     int
}

// Summarizer generates item summaries for digest items using the LLM.
type Summarizer struct {
	db       *database.DB
	provider llm.Provider
}

// NewSummarizer creates a new item summarizer.
func NewSummarizer(db *database.DB, provider llm.Provider) *Summarizer {
	return &Summarizer{db: db, provider: provider}
}

// SummarizePeriod generates summaries for a period's digest items that
// lack one. Already-summarized items are left alone.
func (s *Summarizer) SummarizePeriod(ctx context.Context, periodID string) *Result {
	if s.provider == nil {
		log.Println("No LLM provider available for summarization")
		return &Result{Errors: 1}
	}

	items, err := s.db.GetDigestItems(periodID)
	if err != nil {
		log.Printf("Error getting digest items: %v", err)
		return &Result{Errors: 1}
	}
	if len(items) == 0 {
		log.Printf("No digest items to summarize for %s", periodID)
		return &Result{}
	}

	r := &Result{}
	for _, item := range items {
		if item.Summary != nil && *item.Summary != "" {
			r.Summarized++
			continue
		}

		summary, usage, err := s.summarizeItem(ctx, item)
		if err != nil {
			log.Printf("Error summarizing item %d: %v", item.ID, err)
			r.Errors++
			continue
		}

		s.db.UpdateItemSummary(item.ID, summary)
		s.db.InsertUsage(database.UsageRecord{
			PeriodID:         periodID,
			ItemID:           item.ID,
			Provider:         s.provider.Name(),
			Model:            s.provider.Model(),
			Operation:        "summary",
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		})
		r.Summarized++
	}

	log.Printf("Summarization complete: %d summarized, %d errors", r.Summarized, r.Errors)
	return r
}

func (s *Summarizer) summarizeItem(ctx context.Context, item database.Item) (string, llm.Usage, error) {
	content := ""
	if item.Content != nil {
		content = *item.Content
	}
	if content == "" {
		content = item.Title
	}
	if len(content) > 4000 {
		content = content[:4000] + "..."
	}

	source := "Unknown"
	if item.SourceName != nil {
		source = *item.SourceName
	}

	prompt := fmt.Sprintf(summaryPrompt, item.Title, source, content)

	resp, err := s.provider.Generate(ctx, prompt, 256)
	if err != nil {
		return "", llm.Usage{}, err
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", llm.Usage{}, fmt.Errorf("empty summary from provider")
	}

	return summary, resp.Usage, nil
}
