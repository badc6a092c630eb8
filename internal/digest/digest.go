package digest

import (
	"log"

	"aidigest/internal/database"
)

const defaultItemsPerCategory = 5

// Builder assembles the day's digest from ranked items.
type Builder struct {
	db               *database.DB
	itemsPerCategory int
}

// NewBuilder creates a digest builder. itemsPerCategory <= 0 uses the
// default.
func NewBuilder(db *database.DB, itemsPerCategory int) *Builder {
	if itemsPerCategory <= 0 {
		itemsPerCategory = defaultItemsPerCategory
	}
	return &Builder{db: db, itemsPerCategory: itemsPerCategory}
}

// Build selects the top ranked items per category into the period's
// digest and assigns positions. Items already in the digest keep their
// place; Build is safe to re-run after a partial pipeline.
func (b *Builder) Build(periodID string) (*database.Digest, error) {
	existing, err := b.db.GetDigestItems(periodID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		log.Printf("Digest already assembled for %s (%d items)", periodID, len(existing))
		return b.db.GetDigest(periodID)
	}

	items, err := b.db.GetIncludedItems(periodID)
	if err != nil {
		return nil, err
	}

	// Items arrive best-first; take up to N per category, preserving
	// that order across the whole digest.
	perCategory := make(map[string]int)
	position := 1
	for _, item := range items {
		category := "news"
		if item.Category != nil && *item.Category != "" {
			category = *item.Category
		}
		if perCategory[category] >= b.itemsPerCategory {
			continue
		}
		perCategory[category]++

		if err := b.db.SetItemDigestPosition(item.ID, position); err != nil {
			return nil, err
		}
		position++
	}

	selected := position - 1
	if err := b.db.InsertDigest(periodID, selected, 0); err != nil {
		return nil, err
	}

	log.Printf("Digest assembled for %s: %d items across %d categories", periodID, selected, len(perCategory))
	return b.db.GetDigest(periodID)
}
