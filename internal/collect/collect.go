package collect

import (
	"log"

	"aidigest/internal/database"
)

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	NewItems   int
	Duplicates int
	Sources    map[string]int
}

// Collector pulls items from the feeds of all active registry sources.
type Collector struct {
	db       *database.DB
	daysBack int
}

// NewCollector creates a new item collector.
func NewCollector(db *database.DB, daysBack int) *Collector {
	return &Collector{db: db, daysBack: daysBack}
}

// Collect parses every active source feed and stores new items for the
// period. Duplicate URLs are skipped.
func (c *Collector) Collect(periodID string) *Result {
	r := &Result{Sources: make(map[string]int)}

	sources, err := c.db.GetActiveSources()
	if err != nil {
		log.Printf("Error loading sources: %v", err)
		return r
	}
	if len(sources) == 0 {
		log.Println("No active sources registered. Add some with 'aidigest sources add'.")
		return r
	}

	parser := NewFeedParser(sources)
	entries := parser.ParseAll(c.daysBack)
	r.TotalFound = len(entries)

	for _, entry := range entries {
		var pubDate, content *string
		if entry.PublishedDate != "" {
			pubDate = &entry.PublishedDate
		}
		if entry.Content != "" {
			content = &entry.Content
		}
		sourceID := entry.SourceID
		sourceName := entry.SourceName
		category := entry.Category
		pid := periodID

		id, _ := c.db.InsertItem(entry.URL, entry.Title, &sourceID, &sourceName, &category, pubDate, content, &pid)
		if id > 0 {
			r.NewItems++
			r.Sources[entry.SourceID]++
		} else {
			r.Duplicates++
		}
	}

	log.Printf("Collection complete: %d found, %d new, %d duplicates", r.TotalFound, r.NewItems, r.Duplicates)
	return r
}
