package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/sse"
	"github.com/Lwan2205/storefront/internal/utils"
)

// AddToCartInput is the shopper's selection. Zero values fall back to the
// size and quantity already chosen on the page.
type AddToCartInput struct {
	Size     string
	Quantity int
}

// ProductDetailService drives a ProductDetailView per request. The shopper's
// selection is kept per session and product, so the stepper, size choice and
// retry carry over between requests.
type ProductDetailService struct {
	catalog  CatalogBackend
	cart     CartBackend
	carts    *CartCoordinator
	views    *cache.ViewCache
	notifier sse.Notifier
}

// NewProductDetailService creates a new ProductDetailService.
func NewProductDetailService(catalog CatalogBackend, cart CartBackend, carts *CartCoordinator, views *cache.ViewCache, notifier sse.Notifier) *ProductDetailService {
	return &ProductDetailService{catalog: catalog, cart: cart, carts: carts, views: views, notifier: notifier}
}

// restore builds a view carrying the session's saved selection.
func (s *ProductDetailService) restore(ctx context.Context, sess models.Session, productID string) *ProductDetailView {
	v := NewProductDetailView(productID, sess, s.catalog, s.cart, s.notifier)
	sel, ok, err := s.views.Get(ctx, sess.ID, productID)
	if err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("View cache read failed")
	}
	if ok {
		v.Restore(sel)
	}
	return v
}

func (s *ProductDetailService) save(ctx context.Context, sess models.Session, productID string, v *ProductDetailView) {
	if err := s.views.Save(ctx, sess.ID, productID, v.Selection()); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("View cache write failed")
	}
}

// Show loads the product page. A failed load still returns the snapshot in
// the Error state together with the error.
func (s *ProductDetailService) Show(ctx context.Context, sess models.Session, productID string) (*DetailSnapshot, error) {
	v := s.restore(ctx, sess, productID)
	err := v.Load(ctx)
	s.save(ctx, sess, productID, v)
	return v.Snapshot(), err
}

// Retry reloads a page whose last load failed. Pages that are not in the
// Error state have nothing to retry.
func (s *ProductDetailService) Retry(ctx context.Context, sess models.Session, productID string) (*DetailSnapshot, error) {
	v := s.restore(ctx, sess, productID)
	if v.State() != StateError {
		return nil, utils.ErrNothingToRetry
	}
	err := v.Retry(ctx)
	s.save(ctx, sess, productID, v)
	return v.Snapshot(), err
}

// SelectSize records the chosen size. Only in-stock sizes of the current
// product are accepted.
func (s *ProductDetailService) SelectSize(ctx context.Context, sess models.Session, productID, size string) (*DetailSnapshot, error) {
	v := s.restore(ctx, sess, productID)
	if err := v.LoadProduct(ctx); err != nil {
		s.save(ctx, sess, productID, v)
		return v.Snapshot(), err
	}
	if !v.SelectSize(size) {
		s.notifier.Notify(sess.ID, sse.LevelError, "Selected size is out of stock")
		return v.Snapshot(), utils.ErrSizeUnavailable
	}
	s.save(ctx, sess, productID, v)
	return v.Snapshot(), nil
}

// StepQuantity moves the stepper up (delta > 0) or down, never below 1.
func (s *ProductDetailService) StepQuantity(ctx context.Context, sess models.Session, productID string, delta int) int {
	v := s.restore(ctx, sess, productID)
	var n int
	if delta > 0 {
		n = v.Increment()
	} else {
		n = v.Decrement()
	}
	s.save(ctx, sess, productID, v)
	return n
}

// AddToCart validates the selection against the current product and adds it
// to the cart. A missing size fails before any backend call.
func (s *ProductDetailService) AddToCart(ctx context.Context, sess models.Session, productID string, in AddToCartInput) (*AddToCartResult, error) {
	v := s.restore(ctx, sess, productID)
	size := in.Size
	if size == "" {
		size = v.SelectedSize()
	}
	if size == "" {
		s.notifier.Notify(sess.ID, sse.LevelError, "Please select a size")
		return nil, utils.ErrSizeRequired
	}

	if err := v.LoadProduct(ctx); err != nil {
		return nil, err
	}
	if !v.SelectSize(size) {
		s.notifier.Notify(sess.ID, sse.LevelError, "Selected size is out of stock")
		return nil, utils.ErrSizeUnavailable
	}
	if in.Quantity != 0 {
		v.SetQuantity(in.Quantity)
	}

	res, err := v.AddToCart(ctx)
	s.save(ctx, sess, productID, v)
	if err != nil {
		return nil, err
	}
	s.carts.CartChanged(ctx, sess, res.Event)
	return res, nil
}
