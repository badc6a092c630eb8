package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"aidigest/internal/database"
	"aidigest/internal/llm"
)

const rankPrompt = `You are ranking AI news stories for a daily digest aimed at people who follow AI closely.

Decide whether this story should be INCLUDED in today's digest or SKIPPED.

INCLUDE means: model releases, significant research results, practical tooling, notable industry moves, insightful community discussion, or developments that change how people build with AI.

SKIP means: marketing fluff, duplicate coverage of an already well-known event, funding gossip with no substance, or AI doom/hype pieces with no informational content.

Story Title: %s
Source: %s
Content:
%s

Respond with ONLY this JSON:
{
    "verdict": "include" or "skip",
    "score": 1-5,
    "reason": "One sentence explaining your verdict"
}

score: 5 = essential reading for the day, 1 = marginal. Skipped stories get 0.`

// Result holds the results of a ranking run.
type Result struct {
	Processed int
	Included  int
	Skipped   int
	Errors    int
}

// Ranker scores items for digest inclusion using the LLM.
type Ranker struct {
	db       *database.DB
	provider llm.Provider
}

// NewRanker creates a new item ranker.
func NewRanker(db *database.DB, provider llm.Provider) *Ranker {
	return &Ranker{db: db, provider: provider}
}

// RankItems ranks all unranked items for a period.
func (rk *Ranker) RankItems(ctx context.Context, periodID string) *Result {
	if rk.provider == nil {
		log.Println("No LLM provider available for ranking")
		return &Result{Errors: 1}
	}

	items, err := rk.db.GetUnrankedItems(&periodID)
	if err != nil {
		log.Printf("Error getting unranked items: %v", err)
		return &Result{Errors: 1}
	}

	if len(items) == 0 {
		log.Println("No items pending ranking")
		return &Result{}
	}

	r := &Result{}
	for _, item := range items {
		verdict, score, reason, usage, err := rk.rankItem(ctx, item)
		if err != nil {
			log.Printf("Error ranking item %d: %v", item.ID, err)
			r.Errors++
			continue
		}

		rk.db.InsertItemRank(item.ID, verdict, score, reason)
		if usage != nil {
			rk.db.InsertUsage(database.UsageRecord{
				PeriodID:         periodID,
				ItemID:           item.ID,
				Provider:         rk.provider.Name(),
				Model:            rk.provider.Model(),
				Operation:        "rank",
				PromptTokens:     usage.PromptTokens,
				CompletionTokens: usage.CompletionTokens,
				TotalTokens:      usage.TotalTokens,
			})
		}

		r.Processed++
		if verdict == "include" {
			r.Included++
		} else {
			r.Skipped++
		}
		log.Printf("Ranked [%s %d]: %s", verdict, score, item.Title)
	}

	log.Printf("Ranking complete: %d processed (%d included, %d skipped), %d errors",
		r.Processed, r.Included, r.Skipped, r.Errors)
	return r
}

func (rk *Ranker) rankItem(ctx context.Context, item database.Item) (string, int, *string, *llm.Usage, error) {
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

	prompt := fmt.Sprintf(rankPrompt, item.Title, source, content)

	resp, err := rk.provider.Generate(ctx, prompt, 256)
	if err != nil {
		return "", 0, nil, nil, err
	}

	parsed := llm.ParseJSONResponse(resp.Text)
	if parsed == nil {
		// Default to included if we can't parse
		reason := "LLM response could not be parsed"
		return "include", 2, &reason, &resp.Usage, nil
	}

	verdict := strings.ToLower(getString(parsed, "verdict", "include"))
	if verdict != "include" && verdict != "skip" {
		verdict = "include"
	}

	reason := getString(parsed, "reason", "")

	score := getInt(parsed, "score", 2)
	if verdict == "skip" {
		score = 0
	} else if score < 1 {
		score = 1
	} else if score > 5 {
		score = 5
	}

	return verdict, score, &reason, &resp.Usage, nil
}

func getString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func getInt(m map[string]any, key string, fallback int) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	}
	return fallback
}
