package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/utils"
)

// DraftCache keeps product drafts per session.
// Key: draft:{sessionId}:{draftId}
// TTL: sliding, refreshed on every save
type DraftCache struct {
	store Store
	ttl   time.Duration
}

// NewDraftCache creates a new DraftCache.
func NewDraftCache(store Store, ttl time.Duration) *DraftCache {
	return &DraftCache{store: store, ttl: ttl}
}

func (c *DraftCache) key(sessionID, draftID string) string {
	return fmt.Sprintf("draft:%s:%s", sessionID, draftID)
}

// Save stores the draft under its session.
func (c *DraftCache) Save(ctx context.Context, d *models.ProductDraft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := c.store.Set(ctx, c.key(d.SessionID, d.ID), string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get loads a draft. Drafts belonging to another session are not found.
func (c *DraftCache) Get(ctx context.Context, sessionID, draftID string) (*models.ProductDraft, error) {
	raw, err := c.store.Get(ctx, c.key(sessionID, draftID))
	if errors.Is(err, ErrMiss) {
		return nil, utils.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	var d models.ProductDraft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	d.SessionID = sessionID
	return &d, nil
}

// ImageOwner is the draft that staged an image.
// Key: image:{imageKey}
// TTL: none, removed with the image
type ImageOwner struct {
	SessionID string `json:"sessionId"`
	DraftID   string `json:"draftId"`
}

func (c *DraftCache) imageKey(key string) string {
	return "image:" + key
}

// RecordImage remembers which draft staged an image.
func (c *DraftCache) RecordImage(ctx context.Context, imageKey string, owner ImageOwner) error {
	data, err := json.Marshal(owner)
	if err != nil {
		return fmt.Errorf("failed to marshal image owner: %w", err)
	}
	return c.store.Set(ctx, c.imageKey(imageKey), string(data), 0)
}

// ImageOwner returns the recorded owner of an image, or ErrMiss.
func (c *DraftCache) ImageOwner(ctx context.Context, imageKey string) (ImageOwner, error) {
	var owner ImageOwner
	raw, err := c.store.Get(ctx, c.imageKey(imageKey))
	if err != nil {
		return owner, err
	}
	if err := json.Unmarshal([]byte(raw), &owner); err != nil {
		return owner, fmt.Errorf("failed to unmarshal image owner: %w", err)
	}
	return owner, nil
}

// ForgetImage drops the owner record of an image.
func (c *DraftCache) ForgetImage(ctx context.Context, imageKey string) error {
	return c.store.Delete(ctx, c.imageKey(imageKey))
}

// Delete removes a draft.
func (c *DraftCache) Delete(ctx context.Context, sessionID, draftID string) error {
	return c.store.Delete(ctx, c.key(sessionID, draftID))
}
