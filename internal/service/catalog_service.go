package service

import (
	"context"
	"errors"
	"fmt"

	"minimal-price/internal/cache"
	"minimal-price/internal/domain"
	"minimal-price/internal/event"
	"minimal-price/internal/repository"

	"go.uber.org/zap"
)

var ErrNegativePrice = errors.New("price must not be negative")

// CatalogService is the only mutation entry point for the price catalog.
// Every mutation runs the same linear sequence: store write, full cache
// reload, change notification. Concurrent mutations are not serialized
// against each other; the store is the source of truth and the cache
// converges on its next reload.
type CatalogService interface {
	CreateCategory(ctx context.Context, name string) error
	AddOrUpdateProduct(ctx context.Context, category, product string, price float64) error
	RenameCategory(ctx context.Context, oldName, newName string) error
	RenameProduct(ctx context.Context, oldName, newName string) (int64, error)
	Categories() []domain.Category
	Products(categoryID int64) []domain.Product
	Warm(ctx context.Context) error
}

type catalogService struct {
	repo     repository.CatalogRepository
	cache    *cache.Cache
	notifier *event.Notifier
	logger   *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	repo repository.CatalogRepository,
	c *cache.Cache,
	notifier *event.Notifier,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		repo:     repo,
		cache:    c,
		notifier: notifier,
		logger:   logger,
	}
}

// Warm performs the initial cache load at startup
func (s *catalogService) Warm(ctx context.Context) error {
	if err := s.cache.Reload(ctx); err != nil {
		return fmt.Errorf("failed to warm catalog cache: %w", err)
	}
	return nil
}

// CreateCategory persists a new category, then reloads the cache and notifies
func (s *catalogService) CreateCategory(ctx context.Context, name string) error {
	if err := s.repo.CreateCategory(ctx, name); err != nil {
		return err
	}

	s.reload(ctx)
	s.notifier.Publish(domain.CategoryCreated{Name: name})
	return nil
}

// AddOrUpdateProduct upserts a product keyed by (category name, product name)
func (s *catalogService) AddOrUpdateProduct(ctx context.Context, category, product string, price float64) error {
	if price < 0 {
		return ErrNegativePrice
	}

	if err := s.repo.UpsertProduct(ctx, category, product, price); err != nil {
		return err
	}

	s.reload(ctx)
	s.notifier.Publish(domain.ProductUpserted{Category: category, Product: product, Price: price})
	return nil
}

// RenameCategory changes a category name; the category id is unchanged and
// its products stay attached to it
func (s *catalogService) RenameCategory(ctx context.Context, oldName, newName string) error {
	if err := s.repo.RenameCategory(ctx, oldName, newName); err != nil {
		return err
	}

	s.reload(ctx)
	s.notifier.Publish(domain.CategoryRenamed{Old: oldName, New: newName})
	return nil
}

// RenameProduct renames every product carrying oldName across all categories
// and returns the affected count. A notification is published only when at
// least one row changed.
func (s *catalogService) RenameProduct(ctx context.Context, oldName, newName string) (int64, error) {
	count, err := s.repo.RenameProduct(ctx, oldName, newName)
	if err != nil {
		return 0, err
	}

	s.reload(ctx)
	if count > 0 {
		s.notifier.Publish(domain.ProductRenamed{Old: oldName, New: newName})
	}
	return count, nil
}

// Categories proxies the cache; it never touches the store
func (s *catalogService) Categories() []domain.Category {
	return s.cache.Categories()
}

// Products proxies the cache; an unknown category id yields an empty slice
func (s *catalogService) Products(categoryID int64) []domain.Product {
	return s.cache.Products(categoryID)
}

// reload refreshes the cache after a committed write. A reload failure leaves
// the previous snapshot in place and is logged, not surfaced: the write
// already succeeded and the cache converges on the next mutation's reload.
func (s *catalogService) reload(ctx context.Context) {
	if err := s.cache.Reload(ctx); err != nil {
		s.logger.Error("Failed to reload catalog cache after mutation", zap.Error(err))
	}
}
