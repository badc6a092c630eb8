package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"aidigest/internal/collect"
	"aidigest/internal/config"
	"aidigest/internal/database"
	"aidigest/internal/digest"
	"aidigest/internal/enrich"
	"aidigest/internal/fetch"
	"aidigest/internal/llm"
	"aidigest/internal/rank"
	"aidigest/internal/summarize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	PeriodID string
	Steps    []StepResult
}

// Pipeline orchestrates the 6-step digest generation pipeline.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	provider := llm.CreateProvider(cfg.AI.Model, cfg.AI.APIKeyEnv)
	return &Pipeline{
		cfg:      cfg,
		db:       db,
		provider: provider,
	}
}

// Run executes the full 6-step pipeline.
func (p *Pipeline) Run(ctx context.Context, periodID string, daysBack int) *Result {
	r := &Result{PeriodID: periodID}

	// Step 1: Collect
	step := p.runCollect(periodID, daysBack)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Fetch content
	step = p.runFetch(periodID)
	r.Steps = append(r.Steps, step)

	// Step 3: Rank
	step = p.runRank(ctx, periodID)
	r.Steps = append(r.Steps, step)

	// Step 4: Assemble digest
	step = p.runAssemble(periodID)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 5: Summarize items
	step = p.runSummarize(ctx, periodID)
	r.Steps = append(r.Steps, step)

	// Step 6: Enrich with community sentiment
	step = p.runEnrich(ctx, periodID)
	r.Steps = append(r.Steps, step)

	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(periodID string) *Result {
	r := &Result{PeriodID: periodID}

	items, _ := p.db.GetItemsForPeriod(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d items already in DB for %s", len(items), periodID),
	})

	needing, _ := p.db.GetItemsNeedingFetch(&periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] %d items need content fetching", len(needing)),
	})

	unranked, _ := p.db.GetUnrankedItems(&periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("[dry-run] %d items need ranking", len(unranked)),
	})

	included, _ := p.db.GetIncludedItems(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Assemble",
		Summary: fmt.Sprintf("[dry-run] %d included items to select from", len(included)),
	})

	digestItems, _ := p.db.GetDigestItems(periodID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("[dry-run] %d digest items to summarize", len(digestItems)),
	})

	d, _ := p.db.GetDigest(periodID)
	if d != nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Enrich",
			Summary: fmt.Sprintf("[dry-run] Digest exists for %s (%d items enriched)", periodID, d.EnrichedCount),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Enrich",
			Summary: fmt.Sprintf("[dry-run] Would enrich digest for %s", periodID),
		})
	}

	return r
}

func (p *Pipeline) runCollect(periodID string, daysBack int) StepResult {
	log.Println("Step 1/6: Collecting items...")
	collector := collect.NewCollector(p.db, daysBack)
	result := collector.Collect(periodID)
	return StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Found %d new items (%d total, %d duplicates)", result.NewItems, result.TotalFound, result.Duplicates),
	}
}

func (p *Pipeline) runFetch(periodID string) StepResult {
	log.Println("Step 2/6: Fetching item content...")
	fetcher := fetch.NewContentFetcher(p.db, 15*time.Second)
	result := fetcher.FetchMissingContent(&periodID)
	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d items, %d failed", result.Fetched, result.Failed),
	}
}

func (p *Pipeline) runRank(ctx context.Context, periodID string) StepResult {
	log.Println("Step 3/6: Ranking items...")
	ranker := rank.NewRanker(p.db, p.provider)
	result := ranker.RankItems(ctx, periodID)
	return StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("Ranked %d items: %d included, %d skipped", result.Processed, result.Included, result.Skipped),
	}
}

func (p *Pipeline) runAssemble(periodID string) StepResult {
	log.Println("Step 4/6: Assembling digest...")
	builder := digest.NewBuilder(p.db, p.cfg.Digest.ItemsPerCategory)
	d, err := builder.Build(periodID)
	if err != nil {
		return StepResult{Name: "Assemble", Err: err}
	}
	return StepResult{
		Name:    "Assemble",
		Summary: fmt.Sprintf("Digest assembled with %d items", d.ItemCount),
	}
}

func (p *Pipeline) runSummarize(ctx context.Context, periodID string) StepResult {
	log.Println("Step 5/6: Summarizing digest items...")
	summ := summarize.NewSummarizer(p.db, p.provider)
	result := summ.SummarizePeriod(ctx, periodID)
	return StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("Summarized %d items, %d errors", result.Summarized, result.Errors),
	}
}

// Enrich runs only the enrichment step against an existing digest.
func (p *Pipeline) Enrich(ctx context.Context, periodID string) StepResult {
	return p.runEnrich(ctx, periodID)
}

func (p *Pipeline) runEnrich(ctx context.Context, periodID string) StepResult {
	log.Println("Step 6/6: Enriching with community sentiment...")

	items, err := p.db.GetDigestItems(periodID)
	if err != nil {
		return StepResult{Name: "Enrich", Err: err}
	}
	sourceIDs, err := p.db.SourceIDMap(periodID)
	if err != nil {
		return StepResult{Name: "Enrich", Err: err}
	}

	enricher := enrich.NewEnricher(p.provider)
	result := enricher.Enrich(ctx, items, sourceIDs)

	if err := p.persistEnrichment(periodID, result); err != nil {
		return StepResult{Name: "Enrich", Err: err}
	}

	return StepResult{
		Name:    "Enrich",
		Summary: fmt.Sprintf("Enriched %d of %d digest items", result.Enriched, len(items)),
	}
}

// persistEnrichment writes an enrichment result back to storage: item
// comment fields, usage records for the cost-accounting store, and log
// entries for the observability sink.
func (p *Pipeline) persistEnrichment(periodID string, result *enrich.Result) error {
	for _, item := range result.Items {
		if item.CommentSummarySource == nil {
			continue
		}
		err := p.db.UpdateItemComments(item.ID, *item.CommentSummary,
			*item.CommentCount, *item.CommentScore, *item.CommentSummarySource)
		if err != nil {
			return fmt.Errorf("updating item %d comments: %w", item.ID, err)
		}
	}

	for _, u := range result.Usage {
		if err := p.db.InsertUsage(u); err != nil {
			return fmt.Errorf("recording usage for item %d: %w", u.ItemID, err)
		}
	}

	for _, l := range result.Logs {
		if err := p.db.InsertEnrichmentLog(periodID, l.Level, l.Category, l.Message); err != nil {
			return fmt.Errorf("recording enrichment log: %w", err)
		}
	}

	return p.db.UpdateDigestEnrichedCount(periodID, result.Enriched)
}
