package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"minimal-price/internal/domain"
	"minimal-price/internal/event"
	"minimal-price/internal/repository"
	"minimal-price/internal/service"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Manager mirrors the price catalog into a Discord forum channel: one thread
// per category, one embed message per thread. It subscribes to catalog change
// events and keeps the name to thread/message mapping in its own repository.
// Everything here is best-effort: a Discord failure is logged and never
// propagates back to the catalog.
type Manager struct {
	client   *Client
	catalog  service.CatalogService
	syncRepo repository.SyncRepository
	logger   *zap.Logger

	forumChannelID string
	currency       string

	// ready is closed exactly once, after the bot token is verified. Event
	// handlers wait on it instead of polling.
	ready     chan struct{}
	readyOnce sync.Once

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates the mirror. Call Start to verify connectivity and
// perform the startup rebuild.
func NewManager(
	client *Client,
	catalog service.CatalogService,
	syncRepo repository.SyncRepository,
	notifier *event.Notifier,
	forumChannelID, currency string,
	logger *zap.Logger,
) *Manager {
	m := &Manager{
		client:         client,
		catalog:        catalog,
		syncRepo:       syncRepo,
		logger:         logger,
		forumChannelID: forumChannelID,
		currency:       currency,
		ready:          make(chan struct{}),
	}

	notifier.Subscribe(m.handleEvent)
	return m
}

// Start verifies the bot token in the background, then rebuilds the forum
// from the current catalog state. Returns immediately.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		if err := m.awaitReady(ctx); err != nil {
			m.logger.Error("Discord mirror never became ready", zap.Error(err))
			return
		}

		m.logger.Info("Discord mirror ready, rebuilding forum posts")
		m.rebuildForum(ctx)
	}()
}

// Stop cancels in-flight work and waits for the startup goroutine
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// awaitReady pings Discord with exponential backoff until the token checks
// out, then resolves the readiness channel for every waiting handler.
func (m *Manager) awaitReady(ctx context.Context) error {
	backoff := retry.WithMaxDuration(5*time.Minute, retry.NewExponential(time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.client.Ping(ctx); err != nil {
			if errors.Is(err, ErrUnauthorized) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("discord readiness probe failed: %w", err)
	}

	m.readyOnce.Do(func() { close(m.ready) })
	return nil
}

// rebuildForum deletes every tracked thread and recreates one post per
// category from the current catalog. Ordering between deletes is spaced out
// to stay under Discord's rate limits.
func (m *Manager) rebuildForum(ctx context.Context) {
	entries, err := m.syncRepo.All(ctx)
	if err != nil {
		m.logger.Error("Failed to load sync entries for rebuild", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if err := m.client.DeleteChannel(ctx, entry.ThreadID); err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Warn("Failed to delete forum thread",
				zap.String("thread_id", entry.ThreadID),
				zap.Error(err),
			)
		}
		if err := m.syncRepo.Delete(ctx, entry.CategoryName); err != nil {
			m.logger.Error("Failed to delete sync entry", zap.String("category", entry.CategoryName), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(200 * time.Millisecond):
		}
	}

	for _, cat := range m.catalog.Categories() {
		m.createForumPost(ctx, cat.Name)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}

	m.logger.Info("Discord forum rebuild complete")
}

// handleEvent is the notifier subscription point. It runs on the notifier's
// goroutine and blocks until the mirror is ready or shut down.
func (m *Manager) handleEvent(e domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	select {
	case <-m.ready:
	case <-ctx.Done():
		m.logger.Warn("Dropping catalog event, Discord mirror not ready", zap.String("event", e.Kind()))
		return
	}

	switch ev := e.(type) {
	case domain.CategoryCreated:
		m.createForumPost(ctx, ev.Name)
	case domain.ProductUpserted:
		m.refreshCategoryPost(ctx, ev.Category, &ev)
	case domain.CategoryRenamed:
		m.renameCategoryPost(ctx, ev.Old, ev.New)
	case domain.ProductRenamed:
		// The legacy rename matches by name across all categories, so every
		// post may be stale. Re-render them all.
		for _, cat := range m.catalog.Categories() {
			m.refreshCategoryPost(ctx, cat.Name, nil)
		}
	}
}

func (m *Manager) createForumPost(ctx context.Context, categoryName string) {
	if _, err := m.syncRepo.Get(ctx, categoryName); err == nil {
		return // already tracked
	} else if !errors.Is(err, repository.ErrSyncEntryNotFound) {
		m.logger.Error("Failed to check sync entry", zap.String("category", categoryName), zap.Error(err))
		return
	}

	products := m.productsFor(categoryName)
	embed := BuildEmbed(categoryName, products, m.currency, time.Now())

	result, err := m.client.CreateForumPost(ctx, m.forumChannelID, categoryName, embed)
	if err != nil {
		m.logger.Error("Failed to create forum post", zap.String("category", categoryName), zap.Error(err))
		return
	}

	entry := &domain.SyncEntry{
		CategoryName: categoryName,
		ThreadID:     result.ThreadID,
		MessageID:    result.MessageID,
	}
	if err := m.syncRepo.Save(ctx, entry); err != nil {
		m.logger.Error("Failed to save sync entry", zap.String("category", categoryName), zap.Error(err))
	}
}

// refreshCategoryPost re-renders a category's embed. When the event carries
// an upserted product, the service cache may still be stale at delivery time,
// so the read is retried with backoff until the write is visible.
func (m *Manager) refreshCategoryPost(ctx context.Context, categoryName string, upserted *domain.ProductUpserted) {
	entry, err := m.syncRepo.Get(ctx, categoryName)
	if errors.Is(err, repository.ErrSyncEntryNotFound) {
		m.createForumPost(ctx, categoryName)
		return
	}
	if err != nil {
		m.logger.Error("Failed to load sync entry", zap.String("category", categoryName), zap.Error(err))
		return
	}

	products, err := m.freshProducts(ctx, categoryName, upserted)
	if err != nil {
		m.logger.Warn("Giving up waiting for fresh catalog state",
			zap.String("category", categoryName),
			zap.Error(err),
		)
		products = m.productsFor(categoryName)
	}

	embed := BuildEmbed(categoryName, products, m.currency, time.Now())

	err = m.client.UpdateMessage(ctx, entry.ThreadID, entry.MessageID, embed)
	if errors.Is(err, ErrNotFound) {
		// The thread or starter message is gone on the remote side. Drop the
		// stale mapping and recreate the post from scratch.
		if err := m.syncRepo.Delete(ctx, categoryName); err != nil {
			m.logger.Error("Failed to drop stale sync entry", zap.String("category", categoryName), zap.Error(err))
			return
		}
		m.createForumPost(ctx, categoryName)
		return
	}
	if err != nil {
		m.logger.Error("Failed to update forum post", zap.String("category", categoryName), zap.Error(err))
	}
}

func (m *Manager) renameCategoryPost(ctx context.Context, oldName, newName string) {
	entry, err := m.syncRepo.Get(ctx, oldName)
	if errors.Is(err, repository.ErrSyncEntryNotFound) {
		m.createForumPost(ctx, newName)
		return
	}
	if err != nil {
		m.logger.Error("Failed to load sync entry", zap.String("category", oldName), zap.Error(err))
		return
	}

	if err := m.client.UpdateThreadName(ctx, entry.ThreadID, newName); err != nil {
		m.logger.Error("Failed to rename forum thread", zap.String("thread_id", entry.ThreadID), zap.Error(err))
	}

	if err := m.syncRepo.Delete(ctx, oldName); err != nil {
		m.logger.Error("Failed to delete old sync entry", zap.String("category", oldName), zap.Error(err))
		return
	}
	renamed := &domain.SyncEntry{CategoryName: newName, ThreadID: entry.ThreadID, MessageID: entry.MessageID}
	if err := m.syncRepo.Save(ctx, renamed); err != nil {
		m.logger.Error("Failed to re-key sync entry", zap.String("category", newName), zap.Error(err))
		return
	}

	m.refreshCategoryPost(ctx, newName, nil)
}

// freshProducts re-queries the catalog until the upserted product is visible
// in the cache, bounded by a short backoff schedule. With no upsert to wait
// for it returns the current cache state immediately.
func (m *Manager) freshProducts(ctx context.Context, categoryName string, upserted *domain.ProductUpserted) ([]domain.Product, error) {
	if upserted == nil {
		return m.productsFor(categoryName), nil
	}

	var products []domain.Product
	backoff := retry.WithMaxRetries(8, retry.NewConstant(250*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		products = m.productsFor(categoryName)
		for _, p := range products {
			if p.Name == upserted.Product && p.Price == upserted.Price {
				return nil
			}
		}
		return retry.RetryableError(errors.New("upserted product not yet visible in cache"))
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (m *Manager) productsFor(categoryName string) []domain.Product {
	for _, cat := range m.catalog.Categories() {
		if cat.Name == categoryName {
			return m.catalog.Products(cat.ID)
		}
	}
	return []domain.Product{}
}
