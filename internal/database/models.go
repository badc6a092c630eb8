package database

// Comment summary provenance values for Item.CommentSummarySource.
const (
	CommentSourceNative    = "native"
	CommentSourceGenerated = "generated"
)

// Source is a registered content source with a stable short identifier.
// Reddit sources use "r-" prefixed ids, Hacker News sources "hn-".
type Source struct {
	ID        string
	Name      string
	FeedURL   string
	Category  string
	IsActive  bool
	CreatedAt *string
}

// Item represents a collected story. Items selected into a digest get a
// position; the comment fields are only ever set together, by enrichment.
type Item struct {
	ID             int64
	URL            string
	Title          string
	SourceID       *string
	SourceName     *string
	Category       *string
	PublishedDate  *string
	Content        *string
	ContentFetched bool
	Summary        *string
	PeriodID       *string
	Position       *int
	InDigest       bool
	CollectedAt    *string

	CommentSummary       *string
	CommentCount         *int
	CommentScore         *int
	CommentSummarySource *string
}

// ItemRank holds the LLM ranking verdict for an item.
type ItemRank struct {
	ItemID   int64
	Verdict  string // "include" or "skip"
	Score    int    // 1-5, 0 for skipped
	Reason   *string
	RankedAt *string
}

// Digest represents an assembled digest for a period.
type Digest struct {
	ID            int64
	PeriodID      string
	ItemCount     int
	EnrichedCount int
	GeneratedAt   *string
}

// UsageRecord is one AI token-accounting entry, one per provider call.
type UsageRecord struct {
	ID               int64
	PeriodID         string
	ItemID           int64
	Provider         string
	Model            string
	Operation        string // "rank", "summary", "comments"
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CreatedAt        *string
}

// EnrichmentLog is a structured log entry from an enrichment run.
type EnrichmentLog struct {
	ID        int64
	PeriodID  string
	Level     string
	Category  string
	Message   string
	CreatedAt *string
}

// UsageSummary aggregates token usage for a period.
type UsageSummary struct {
	PeriodID         string
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalItems        int
	RankedItems       int
	DigestItems       int
	EnrichedItems     int
	Digests           int
	PeriodsWithItems  int
	TotalSources      int
	ActiveSources     int
	TotalUsageRecords int
}
