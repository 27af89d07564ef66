package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/sse"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// ReferenceService serves the category, manufacturer and discount lists the
// product form offers.
type ReferenceService struct {
	backend  CatalogBackend
	cache    *cache.ReferenceCache
	notifier sse.Notifier

	serviceToken string
}

// NewReferenceService creates a new ReferenceService.
func NewReferenceService(backend CatalogBackend, refCache *cache.ReferenceCache, notifier sse.Notifier) *ReferenceService {
	return &ReferenceService{backend: backend, cache: refCache, notifier: notifier}
}

// SetServiceToken sets the backend credential Refresh uses. Without one the
// background refresh is skipped and the cache fills on demand through Load.
func (s *ReferenceService) SetServiceToken(token string) {
	s.serviceToken = token
}

// Load returns the reference lists, from cache when possible.
func (s *ReferenceService) Load(ctx context.Context, sess models.Session) (*cache.References, error) {
	refs, err := s.cache.Get(ctx)
	if err == nil {
		return refs, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Msg("Reference cache read failed")
	}

	refs, err = s.fetch(ctx, sess.BackendToken)
	if err != nil {
		s.notifier.Notify(sess.ID, sse.LevelError, "Failed to load data")
		return nil, err
	}
	if err := s.cache.Set(ctx, refs); err != nil {
		log.Warn().Err(err).Msg("Reference cache write failed")
	}
	return refs, nil
}

// Refresh re-fetches the lists with the service credential and overwrites the
// cache. A rejected credential leaves the cached lists in place.
func (s *ReferenceService) Refresh(ctx context.Context) error {
	if s.serviceToken == "" {
		log.Debug().Msg("No backend service token, reference refresh skipped")
		return nil
	}
	refs, err := s.fetch(ctx, s.serviceToken)
	if errors.Is(err, shopapi.ErrRejected) {
		log.Warn().Err(err).Msg("Backend rejected service token, reference refresh skipped")
		return nil
	}
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, refs)
}

// fetch loads the three lists concurrently; any failure fails the whole load.
func (s *ReferenceService) fetch(ctx context.Context, token string) (*cache.References, error) {
	refs := &cache.References{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.backend.ListCategories(gctx, token)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		refs.Categories = v
		return nil
	})
	g.Go(func() error {
		v, err := s.backend.ListManufacturers(gctx, token)
		if err != nil {
			return fmt.Errorf("manufacturers: %w", err)
		}
		refs.Manufacturers = v
		return nil
	})
	g.Go(func() error {
		v, err := s.backend.ListDiscounts(gctx, token)
		if err != nil {
			return fmt.Errorf("discounts: %w", err)
		}
		refs.Discounts = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}
