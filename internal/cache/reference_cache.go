package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lwan2205/storefront/pkg/shopapi"
)

const referenceKey = "references:all"

// References is the form data of the admin product editor.
type References struct {
	Categories    []shopapi.Category     `json:"categories"`
	Manufacturers []shopapi.Manufacturer `json:"manufacturers"`
	Discounts     []shopapi.Discount     `json:"discounts"`
	CachedAt      time.Time              `json:"cachedAt"`
}

// ReferenceCache caches categories, manufacturers and discounts.
type ReferenceCache struct {
	store Store
	ttl   time.Duration
}

// NewReferenceCache creates a new ReferenceCache.
func NewReferenceCache(store Store, ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{store: store, ttl: ttl}
}

// Set stores the reference lists.
func (c *ReferenceCache) Set(ctx context.Context, refs *References) error {
	refs.CachedAt = time.Now()
	data, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to marshal references: %w", err)
	}
	return c.store.Set(ctx, referenceKey, string(data), c.ttl)
}

// Get returns the cached lists, or ErrMiss.
func (c *ReferenceCache) Get(ctx context.Context) (*References, error) {
	raw, err := c.store.Get(ctx, referenceKey)
	if err != nil {
		return nil, err
	}
	var refs References
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal references: %w", err)
	}
	return &refs, nil
}

// CartCountCache caches the cart item count per session.
// Key: cart:count:{sessionId}
type CartCountCache struct {
	store Store
	ttl   time.Duration
}

// NewCartCountCache creates a new CartCountCache.
func NewCartCountCache(store Store, ttl time.Duration) *CartCountCache {
	return &CartCountCache{store: store, ttl: ttl}
}

func (c *CartCountCache) key(sessionID string) string {
	return "cart:count:" + sessionID
}

// Set stores the count.
func (c *CartCountCache) Set(ctx context.Context, sessionID string, count int) error {
	return c.store.Set(ctx, c.key(sessionID), fmt.Sprint(count), c.ttl)
}

// Get returns the count and whether it was cached.
func (c *CartCountCache) Get(ctx context.Context, sessionID string) (int, bool, error) {
	raw, err := c.store.Get(ctx, c.key(sessionID))
	if errors.Is(err, ErrMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var n int
	if _, err := fmt.Sscan(raw, &n); err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// Invalidate drops the cached count.
func (c *CartCountCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.store.Delete(ctx, c.key(sessionID))
}

// SubmitLock guards a draft against concurrent submissions.
// Key: lock:submit:{draftId}
type SubmitLock struct {
	store Store
	ttl   time.Duration
}

// NewSubmitLock creates a new SubmitLock. The TTL bounds how long a crashed
// submission can hold the lock.
func NewSubmitLock(store Store, ttl time.Duration) *SubmitLock {
	return &SubmitLock{store: store, ttl: ttl}
}

// Acquire takes the lock for draftID, returning false when it is held.
func (l *SubmitLock) Acquire(ctx context.Context, draftID, token string) (bool, error) {
	return l.store.SetNX(ctx, "lock:submit:"+draftID, token, l.ttl)
}

// Release frees the lock when token still owns it.
func (l *SubmitLock) Release(ctx context.Context, draftID, token string) error {
	key := "lock:submit:" + draftID
	cur, err := l.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return nil
	}
	if err != nil {
		return err
	}
	if cur != token {
		return nil
	}
	return l.store.Delete(ctx, key)
}
