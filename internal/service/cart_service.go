package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/events"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/sse"
)

// CartCoordinator owns the shared cart count. Views report CartChanged to it
// instead of refreshing a global counter themselves.
type CartCoordinator struct {
	backend   CartBackend
	counts    *cache.CartCountCache
	notifier  sse.Notifier
	publisher events.Publisher
}

// NewCartCoordinator creates a new CartCoordinator.
func NewCartCoordinator(backend CartBackend, counts *cache.CartCountCache, notifier sse.Notifier, publisher events.Publisher) *CartCoordinator {
	return &CartCoordinator{
		backend:   backend,
		counts:    counts,
		notifier:  notifier,
		publisher: publisher,
	}
}

// CartChanged refreshes the session's count from the backend and pushes it
// to every open tab. Failures are logged; the add itself already succeeded.
func (c *CartCoordinator) CartChanged(ctx context.Context, sess models.Session, ev CartChanged) {
	if err := c.counts.Invalidate(ctx, sess.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate cart count")
	}

	count, err := c.refresh(ctx, sess)
	if err != nil {
		log.Warn().Err(err).Str("product_id", ev.ProductID).Msg("Failed to refresh cart count")
		return
	}

	if err := c.publisher.Publish(ctx, sess.ID, events.TypeCartChanged, events.CartChanged{
		SessionID: sess.ID,
		ProductID: ev.ProductID,
		Size:      ev.Size,
		Quantity:  ev.Quantity,
		Count:     count,
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to publish cart event")
	}
}

// Count returns the session's cart item count, cached when possible.
func (c *CartCoordinator) Count(ctx context.Context, sess models.Session) (int, error) {
	n, ok, err := c.counts.Get(ctx, sess.ID)
	if err != nil {
		log.Warn().Err(err).Msg("Cart count cache read failed")
	}
	if ok {
		return n, nil
	}
	return c.refresh(ctx, sess)
}

func (c *CartCoordinator) refresh(ctx context.Context, sess models.Session) (int, error) {
	n, err := c.backend.CountCartItems(ctx, sess.BackendToken)
	if err != nil {
		return 0, err
	}
	if err := c.counts.Set(ctx, sess.ID, n); err != nil {
		log.Warn().Err(err).Msg("Cart count cache write failed")
	}
	c.notifier.CartCount(sess.ID, n)
	return n, nil
}
