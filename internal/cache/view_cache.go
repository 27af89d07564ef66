package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lwan2205/storefront/internal/models"
)

// ViewCache keeps the product page selection per session.
// Key: view:{sessionId}:{productId}
type ViewCache struct {
	store Store
	ttl   time.Duration
}

// NewViewCache creates a new ViewCache.
func NewViewCache(store Store, ttl time.Duration) *ViewCache {
	return &ViewCache{store: store, ttl: ttl}
}

func (c *ViewCache) key(sessionID, productID string) string {
	return fmt.Sprintf("view:%s:%s", sessionID, productID)
}

// Save stores the selection.
func (c *ViewCache) Save(ctx context.Context, sessionID, productID string, sel models.DetailSelection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}
	return c.store.Set(ctx, c.key(sessionID, productID), string(data), c.ttl)
}

// Get returns the selection and whether one was stored.
func (c *ViewCache) Get(ctx context.Context, sessionID, productID string) (models.DetailSelection, bool, error) {
	var sel models.DetailSelection
	raw, err := c.store.Get(ctx, c.key(sessionID, productID))
	if errors.Is(err, ErrMiss) {
		return sel, false, nil
	}
	if err != nil {
		return sel, false, err
	}
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return sel, false, fmt.Errorf("failed to unmarshal view: %w", err)
	}
	return sel, true, nil
}
