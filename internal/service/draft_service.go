package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/storage"
	"github.com/Lwan2205/storefront/internal/utils"
)

// ImageUpload is an image posted to a draft.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// VariantEdit is the outcome of a variant mutation. Applied is false when the
// addressed entry no longer exists; the draft is then returned unchanged.
type VariantEdit struct {
	Draft   *models.ProductDraft `json:"draft"`
	Applied bool                 `json:"applied"`
	Variant *models.VariantDraft `json:"variant,omitempty"`
}

// draftLocks serializes read-modify-write cycles on the same draft within
// this process.
type draftLocks [32]sync.Mutex

func (l *draftLocks) lock(draftID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(draftID))
	m := &l[h.Sum32()%uint32(len(l))]
	m.Lock()
	return m.Unlock
}

// DraftService owns the ProductVariantForm state of each session.
type DraftService struct {
	drafts    *cache.DraftCache
	catalog   CatalogBackend
	images    storage.Storage
	moderator ImageModerator
	maxImage  int64
	locks     draftLocks
}

// NewDraftService creates a new DraftService.
func NewDraftService(drafts *cache.DraftCache, catalog CatalogBackend, images storage.Storage, moderator ImageModerator, maxImageBytes int64) *DraftService {
	return &DraftService{
		drafts:    drafts,
		catalog:   catalog,
		images:    images,
		moderator: moderator,
		maxImage:  maxImageBytes,
	}
}

// Create starts an empty create-flow draft.
func (s *DraftService) Create(ctx context.Context, sess models.Session) (*models.ProductDraft, error) {
	d := models.NewProductDraft(uuid.NewString(), sess.ID)
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateFromProduct starts an update-flow draft hydrated from the backend.
func (s *DraftService) CreateFromProduct(ctx context.Context, sess models.Session, productID string) (*models.ProductDraft, error) {
	p, err := s.catalog.GetProduct(ctx, sess.BackendToken, productID)
	if err != nil {
		return nil, err
	}
	d := models.DraftFromProduct(uuid.NewString(), sess.ID, p)
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns a draft of the session.
func (s *DraftService) Get(ctx context.Context, sess models.Session, draftID string) (*models.ProductDraft, error) {
	return s.drafts.Get(ctx, sess.ID, draftID)
}

// Discard drops a draft and its staged image.
func (s *DraftService) Discard(ctx context.Context, sess models.Session, draftID string) error {
	unlock := s.locks.lock(draftID)
	defer unlock()

	d, err := s.drafts.Get(ctx, sess.ID, draftID)
	if err != nil {
		return err
	}
	s.dropImage(ctx, d.Image)
	return s.drafts.Delete(ctx, sess.ID, draftID)
}

// Patch applies scalar field edits. Either every field is applied or none.
func (s *DraftService) Patch(ctx context.Context, sess models.Session, draftID string, fields map[string]string) (*models.ProductDraft, error) {
	var out *models.ProductDraft
	err := s.mutate(ctx, sess, draftID, func(d *models.ProductDraft) (bool, error) {
		for name, value := range fields {
			if err := d.SetField(name, value); err != nil {
				return false, err
			}
		}
		out = d
		return len(fields) > 0, nil
	})
	return out, err
}

// AddVariant appends an empty variant.
func (s *DraftService) AddVariant(ctx context.Context, sess models.Session, draftID string) (*VariantEdit, error) {
	res := &VariantEdit{}
	err := s.mutate(ctx, sess, draftID, func(d *models.ProductDraft) (bool, error) {
		v := d.AddVariant()
		res.Draft, res.Applied, res.Variant = d, true, &v
		return true, nil
	})
	return res, err
}

// EditVariant edits the variant with key. Edits to a removed key are discarded.
func (s *DraftService) EditVariant(ctx context.Context, sess models.Session, draftID string, key int, field models.VariantField, value string) (*VariantEdit, error) {
	return s.variantOp(ctx, sess, draftID, func(d *models.ProductDraft) bool {
		return d.EditVariant(key, field, value)
	})
}

// RemoveVariant removes the variant with key.
func (s *DraftService) RemoveVariant(ctx context.Context, sess models.Session, draftID string, key int) (*VariantEdit, error) {
	return s.variantOp(ctx, sess, draftID, func(d *models.ProductDraft) bool {
		return d.RemoveVariant(key)
	})
}

// EditVariantAt edits the variant at index; out of bounds is a no-op.
func (s *DraftService) EditVariantAt(ctx context.Context, sess models.Session, draftID string, index int, field models.VariantField, value string) (*VariantEdit, error) {
	return s.variantOp(ctx, sess, draftID, func(d *models.ProductDraft) bool {
		return d.EditVariantAt(index, field, value)
	})
}

// RemoveVariantAt removes the variant at index; out of bounds is a no-op.
func (s *DraftService) RemoveVariantAt(ctx context.Context, sess models.Session, draftID string, index int) (*VariantEdit, error) {
	return s.variantOp(ctx, sess, draftID, func(d *models.ProductDraft) bool {
		return d.RemoveVariantAt(index)
	})
}

func (s *DraftService) variantOp(ctx context.Context, sess models.Session, draftID string, op func(d *models.ProductDraft) bool) (*VariantEdit, error) {
	res := &VariantEdit{}
	err := s.mutate(ctx, sess, draftID, func(d *models.ProductDraft) (bool, error) {
		res.Draft = d
		res.Applied = op(d)
		return res.Applied, nil
	})
	return res, err
}

// SetImage stages an image for the draft, replacing any previous one.
func (s *DraftService) SetImage(ctx context.Context, sess models.Session, draftID string, img ImageUpload) (*models.ProductDraft, error) {
	data, err := io.ReadAll(io.LimitReader(img.Body, s.maxImage+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.maxImage {
		return nil, fmt.Errorf("%w: limit is %d bytes", utils.ErrImageTooLarge, s.maxImage)
	}
	if err := s.moderator.Check(ctx, data); err != nil {
		return nil, err
	}

	// Confirm the draft exists before staging anything.
	if _, err := s.drafts.Get(ctx, sess.ID, draftID); err != nil {
		return nil, err
	}

	put, err := s.images.Put(ctx, bytes.NewReader(data), storage.PutInput{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stage image: %w", err)
	}

	var out *models.ProductDraft
	err = s.mutate(ctx, sess, draftID, func(d *models.ProductDraft) (bool, error) {
		s.dropImage(ctx, d.Image)
		if err := s.drafts.RecordImage(ctx, put.Key, cache.ImageOwner{SessionID: sess.ID, DraftID: d.ID}); err != nil {
			log.Warn().Err(err).Str("key", put.Key).Msg("Failed to record image owner")
		}
		d.Image = &models.ImageRef{
			Key:         put.Key,
			URL:         put.URL,
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Size:        int64(len(data)),
		}
		out = d
		return true, nil
	})
	if err != nil {
		_ = s.images.Delete(ctx, put.Key)
		return nil, err
	}
	return out, nil
}

// Refresh re-hydrates an update-flow draft from the backend's current state.
// A draft discarded meanwhile stays discarded.
func (s *DraftService) Refresh(ctx context.Context, sess models.Session, d *models.ProductDraft) error {
	p, err := s.catalog.GetProduct(ctx, sess.BackendToken, d.ProductID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, sess, d.ID, func(cur *models.ProductDraft) (bool, error) {
		s.dropImage(ctx, cur.Image)
		*cur = *models.DraftFromProduct(cur.ID, sess.ID, p)
		*d = *cur
		return true, nil
	})
}

// mutate loads, edits and saves a draft under its lock. fn reports whether
// the draft changed; unchanged drafts are not written back.
func (s *DraftService) mutate(ctx context.Context, sess models.Session, draftID string, fn func(d *models.ProductDraft) (bool, error)) error {
	unlock := s.locks.lock(draftID)
	defer unlock()

	d, err := s.drafts.Get(ctx, sess.ID, draftID)
	if err != nil {
		return err
	}
	changed, err := fn(d)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.drafts.Save(ctx, d)
}

func (s *DraftService) dropImage(ctx context.Context, img *models.ImageRef) {
	if img == nil {
		return
	}
	if err := s.images.Delete(ctx, img.Key); err != nil {
		log.Warn().Err(err).Str("key", img.Key).Msg("Failed to delete staged image")
		return
	}
	if err := s.drafts.ForgetImage(ctx, img.Key); err != nil {
		log.Warn().Err(err).Str("key", img.Key).Msg("Failed to forget image owner")
	}
}

// SweepImages deletes staged images older than olderThan whose draft expired,
// was discarded or moved on to another image. It returns how many it removed.
func (s *DraftService) SweepImages(ctx context.Context, olderThan time.Duration) (int, error) {
	keys, err := s.images.ListBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to list staged images: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if s.imageInUse(ctx, key) {
			continue
		}
		if err := s.images.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to delete orphaned image")
			continue
		}
		_ = s.drafts.ForgetImage(ctx, key)
		removed++
	}
	return removed, nil
}

func (s *DraftService) imageInUse(ctx context.Context, key string) bool {
	owner, err := s.drafts.ImageOwner(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return false
	}
	if err != nil {
		// Unknown state; keep the image for the next pass.
		log.Warn().Err(err).Str("key", key).Msg("Failed to read image owner")
		return true
	}

	unlock := s.locks.lock(owner.DraftID)
	defer unlock()
	d, err := s.drafts.Get(ctx, owner.SessionID, owner.DraftID)
	if errors.Is(err, utils.ErrDraftNotFound) {
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read image draft")
		return true
	}
	return d.Image != nil && d.Image.Key == key
}
