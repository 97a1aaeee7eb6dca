package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	"minimal-price/internal/domain"
	"minimal-price/internal/repository"
)

// Cache holds an immutable snapshot of the whole catalog behind an atomic
// pointer. Reload builds a fresh snapshot from the store and swaps it in
// wholesale; readers always see either the old or the new snapshot, never a
// partial mix. Two consecutive reads may straddle a reload, which is fine
// for append/rename-only data.
type Cache struct {
	repo     repository.CatalogRepository
	snapshot atomic.Pointer[domain.Snapshot]
}

// New creates an empty cache; call Reload before serving reads
func New(repo repository.CatalogRepository) *Cache {
	c := &Cache{repo: repo}
	c.snapshot.Store(&domain.Snapshot{
		Categories: []domain.Category{},
		Products:   map[int64][]domain.Product{},
	})
	return c
}

// Reload fetches all categories and all their products, then atomically
// replaces the previous snapshot. An in-flight reload always runs to
// completion; there is no incremental update path.
func (c *Cache) Reload(ctx context.Context) error {
	categories, err := c.repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload categories: %w", err)
	}

	products := make(map[int64][]domain.Product, len(categories))
	for _, cat := range categories {
		prods, err := c.repo.ListProductsByCategory(ctx, cat.ID)
		if err != nil {
			return fmt.Errorf("failed to reload products for category %d: %w", cat.ID, err)
		}
		products[cat.ID] = prods
	}

	c.snapshot.Store(&domain.Snapshot{
		Categories: categories,
		Products:   products,
	})

	return nil
}

// Categories returns a copy of all cached categories without touching the store
func (c *Cache) Categories() []domain.Category {
	snap := c.snapshot.Load()
	out := make([]domain.Category, len(snap.Categories))
	copy(out, snap.Categories)
	return out
}

// Products returns a copy of the cached products for a category id. An
// unknown id yields an empty slice, never an error.
func (c *Cache) Products(categoryID int64) []domain.Product {
	snap := c.snapshot.Load()
	prods, ok := snap.Products[categoryID]
	if !ok {
		return []domain.Product{}
	}
	out := make([]domain.Product, len(prods))
	copy(out, prods)
	return out
}
