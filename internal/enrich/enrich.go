package enrich

import (
	"context"
	"fmt"
	"log"

	"aidigest/internal/database"
	"aidigest/internal/llm"
)

// LogEntry is a structured log record emitted by an enrichment run,
// consumed by the observability sink.
type LogEntry struct {
	Level    string
	Category string
	Message  string
}

// Result aggregates an enrichment run. Items preserves the input's
// length and order; an item that failed or was ineligible is returned
// unchanged from its input state.
type Result struct {
	Items    []database.Item
	Logs     []LogEntry
	Usage    []database.UsageRecord
	Enriched int
}

// ThreadFetcher fetches a full Reddit discussion in one round trip.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, postURL string) (*Thread, error)
}

// StoryResolver resolves and fetches Hacker News discussions in two
// steps, so comment fetching can wait until the engagement gate passes.
type StoryResolver interface {
	ResolveStory(ctx context.Context, articleURL string) (*Story, error)
	FetchComments(ctx context.Context, storyID string) ([]string, error)
}

// Summarizer produces a community-sentiment synopsis from comments.
type Summarizer interface {
	Summarize(ctx context.Context, title string, comments []string) (*Synopsis, error)
}

// Enricher drives comment enrichment over a batch of digest items.
// Each item is processed independently; one item's failure never
// aborts the batch.
type Enricher struct {
	reddit     ThreadFetcher
	hn         StoryResolver
	summarizer Summarizer
	configured bool
}

// NewEnricher creates an enricher backed by the public Reddit and HN
// APIs. A nil or unconfigured provider disables enrichment: classified
// items pass through unfetched, with a log noting the missing key.
func NewEnricher(provider llm.Provider) *Enricher {
	e := &Enricher{
		reddit: NewRedditClient(),
		hn:     NewHackerNewsClient(),
	}
	if provider != nil && provider.IsConfigured() {
		e.summarizer = NewCommentSummarizer(provider)
		e.configured = true
	}
	return e
}

// NewEnricherWithClients creates an enricher with explicit
// collaborators. Used by tests.
func NewEnricherWithClients(reddit ThreadFetcher, hn StoryResolver, summarizer Summarizer) *Enricher {
	return &Enricher{
		reddit:     reddit,
		hn:         hn,
		summarizer: summarizer,
		configured: summarizer != nil,
	}
}

type outcome struct {
	item     database.Item
	logs     []LogEntry
	usage    *database.UsageRecord
	enriched bool
}

// Enrich processes a batch of digest items. Items linking to a Reddit
// or HN discussion with enough engagement get a community-sentiment
// synopsis; everything else passes through unchanged. Output order and
// length always match the input.
func (e *Enricher) Enrich(ctx context.Context, items []database.Item, sourceIDs map[string]string) *Result {
	r := &Result{Items: make([]database.Item, 0, len(items))}

	classified := 0
	missingKeyLogged := false

	for _, item := range items {
		platform := Classify(item, sourceIDs)
		if platform == PlatformNone {
			r.Items = append(r.Items, item)
			continue
		}
		classified++

		if !e.configured {
			// Cost-avoidance short-circuit: without a provider key the
			// synopsis could never be generated, so skip fetching too.
			if !missingKeyLogged {
				r.Logs = append(r.Logs, LogEntry{
					Level:    "warning",
					Category: "enrichment",
					Message:  "gemini API key not configured; skipping comment enrichment",
				})
				missingKeyLogged = true
			}
			r.Items = append(r.Items, item)
			continue
		}

		out := e.processItem(ctx, item, platform)
		r.Items = append(r.Items, out.item)
		r.Logs = append(r.Logs, out.logs...)
		if out.usage != nil {
			r.Usage = append(r.Usage, *out.usage)
		}
		if out.enriched {
			r.Enriched++
		}
	}

	if classified > 0 {
		r.Logs = append(r.Logs, LogEntry{
			Level:    "info",
			Category: "enrichment",
			Message:  fmt.Sprintf("enriched %d of %d discussion items", r.Enriched, classified),
		})
		log.Printf("Enrichment complete: %d of %d discussion items enriched", r.Enriched, classified)
	}

	return r
}

func (e *Enricher) processItem(ctx context.Context, item database.Item, platform Platform) outcome {
	out := outcome{item: item}

	var thread *Thread
	switch platform {
	case PlatformReddit:
		t, err := e.reddit.FetchThread(ctx, item.URL)
		if err != nil {
			out.logs = append(out.logs, errorLog(fmt.Sprintf("fetching reddit thread for %q: %v", item.Title, err)))
			return out
		}
		thread = t

	case PlatformHackerNews:
		story, err := e.hn.ResolveStory(ctx, item.URL)
		if err != nil {
			out.logs = append(out.logs, errorLog(fmt.Sprintf("resolving HN story for %q: %v", item.Title, err)))
			return out
		}
		if story == nil {
			// No discussion found. Expected, not an error.
			return out
		}
		if !Eligible(story.Points, story.CommentCount) {
			return out
		}
		comments, err := e.hn.FetchComments(ctx, story.ID)
		if err != nil {
			out.logs = append(out.logs, errorLog(fmt.Sprintf("fetching HN comments for %q: %v", item.Title, err)))
			return out
		}
		thread = &Thread{Score: story.Points, CommentCount: story.CommentCount, Comments: comments}

	default:
		return out
	}

	if !Eligible(thread.Score, thread.CommentCount) {
		return out
	}
	if len(thread.Comments) == 0 {
		return out
	}

	syn, err := e.summarizer.Summarize(ctx, item.Title, thread.Comments)
	if err != nil {
		out.logs = append(out.logs, errorLog(fmt.Sprintf("summarizing comments for %q: %v", item.Title, err)))
		return out
	}

	summary := syn.Summary
	count := thread.CommentCount
	score := thread.Score
	source := database.CommentSourceGenerated
	out.item.CommentSummary = &summary
	out.item.CommentCount = &count
	out.item.CommentScore = &score
	out.item.CommentSummarySource = &source

	periodID := ""
	if item.PeriodID != nil {
		periodID = *item.PeriodID
	}
	out.usage = &database.UsageRecord{
		PeriodID:         periodID,
		ItemID:           item.ID,
		Provider:         syn.Provider,
		Model:            syn.Model,
		Operation:        "comments",
		PromptTokens:     syn.Usage.PromptTokens,
		CompletionTokens: syn.Usage.CompletionTokens,
		TotalTokens:      syn.Usage.TotalTokens,
	}
	out.enriched = true
	return out
}

func errorLog(message string) LogEntry {
	return LogEntry{Level: "error", Category: "enrichment", Message: message}
}
