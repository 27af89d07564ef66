package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/events"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/sse"
	"github.com/Lwan2205/storefront/internal/storage"
	"github.com/Lwan2205/storefront/internal/utils"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// ProductListPath is where the admin lands after a successful submission.
const ProductListPath = "/admin-panel/all-products"

// SubmissionJournal records submission attempts.
type SubmissionJournal interface {
	Record(ctx context.Context, s *models.Submission) error
	List(ctx context.Context, limit, offset int) ([]models.Submission, error)
}

// NopJournal is used when no database is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, *models.Submission) error { return nil }
func (NopJournal) List(context.Context, int, int) ([]models.Submission, error) {
	return []models.Submission{}, nil
}

// UpdatedCallback runs after the backend accepted an update-flow draft.
type UpdatedCallback func(ctx context.Context, sess models.Session, d *models.ProductDraft) error

// SubmitResult is a successful submission.
type SubmitResult struct {
	Message  string               `json:"message"`
	Redirect string               `json:"redirect"`
	Draft    *models.ProductDraft `json:"draft"`
}

// SubmissionService sends drafts to the backend as multipart forms.
type SubmissionService struct {
	drafts    *DraftService
	backend   ProductWriter
	images    storage.Storage
	lock      *cache.SubmitLock
	journal   SubmissionJournal
	publisher events.Publisher
	notifier  sse.Notifier
	onUpdated UpdatedCallback
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	drafts *DraftService,
	backend ProductWriter,
	images storage.Storage,
	lock *cache.SubmitLock,
	journal SubmissionJournal,
	publisher events.Publisher,
	notifier sse.Notifier,
) *SubmissionService {
	return &SubmissionService{
		drafts:    drafts,
		backend:   backend,
		images:    images,
		lock:      lock,
		journal:   journal,
		publisher: publisher,
		notifier:  notifier,
	}
}

// SetOnUpdated sets the callback run after a successful update.
func (s *SubmissionService) SetOnUpdated(fn UpdatedCallback) {
	s.onUpdated = fn
}

// NormalizeVariants coerces each variant's stock text to an integer and
// returns the payload with the aggregate stock. Blank input counts as 0;
// anything else that is not an integer fails with utils.ErrInvalidStock.
// Negative values and duplicate sizes are passed through for the backend to
// police.
func NormalizeVariants(variants []models.VariantDraft) ([]shopapi.VariantPayload, int, error) {
	out := make([]shopapi.VariantPayload, 0, len(variants))
	total := 0
	for i, v := range variants {
		raw := strings.TrimSpace(v.Stock)
		stock := 0
		if raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: variant %d has stock %q", utils.ErrInvalidStock, i+1, v.Stock)
			}
			stock = n
		}
		total += stock
		out = append(out, shopapi.VariantPayload{ID: v.ID, Size: v.Size, Stock: stock})
	}
	return out, total, nil
}

// Submit transmits the draft. On failure the draft is left unchanged and the
// session gets an error notification; there is no automatic retry.
func (s *SubmissionService) Submit(ctx context.Context, sess models.Session, draftID string) (*SubmitResult, error) {
	token := uuid.NewString()
	ok, err := s.lock.Acquire(ctx, draftID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submit lock: %w", err)
	}
	if !ok {
		s.notifier.Notify(sess.ID, sse.LevelInfo, "This product is already being saved")
		return nil, utils.ErrSubmissionInFlight
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), draftID, token); err != nil {
			log.Warn().Err(err).Str("draft_id", draftID).Msg("Failed to release submit lock")
		}
	}()

	d, err := s.drafts.Get(ctx, sess, draftID)
	if err != nil {
		return nil, err
	}

	kind, failMsg, okMsg := models.SubmissionCreate, "Failed to add product", "Product added successfully"
	if d.Mode == models.DraftModeUpdate {
		kind, failMsg, okMsg = models.SubmissionUpdate, "Failed to update product", "Product updated successfully"
	}

	variants, total, err := NormalizeVariants(d.Variants)
	if err != nil {
		s.notifier.Notify(sess.ID, sse.LevelError, err.Error())
		return nil, err
	}

	form := &shopapi.ProductForm{
		Name:         d.Name,
		Price:        d.Price,
		Description:  d.Description,
		Category:     d.Category,
		Discount:     d.Discount,
		Manufacturer: d.Manufacturer,
		Stock:        total,
		Rating:       d.Rating,
		IsFeatured:   d.IsFeatured,
		Variants:     variants,
	}
	if d.Image != nil {
		rc, err := s.images.Open(ctx, d.Image.Key)
		if err != nil {
			s.notifier.Notify(sess.ID, sse.LevelError, failMsg)
			return nil, fmt.Errorf("failed to open staged image: %w", err)
		}
		defer rc.Close()
		form.Image = &shopapi.ImageUpload{
			Filename:    d.Image.Filename,
			ContentType: d.Image.ContentType,
			Body:        rc,
		}
	}

	entry := &models.Submission{
		DraftID:        d.ID,
		SessionID:      sess.ID,
		Kind:           kind,
		IdempotencyKey: uuid.NewString(),
		VariantCount:   len(variants),
		TotalStock:     total,
	}

	var res *shopapi.Result
	if kind == models.SubmissionUpdate {
		entry.ProductID = &d.ProductID
		res, err = s.backend.UpdateProduct(ctx, sess.BackendToken, d.ProductID, entry.IdempotencyKey, form)
	} else {
		res, err = s.backend.CreateProduct(ctx, sess.BackendToken, entry.IdempotencyKey, form)
	}

	if err != nil {
		entry.Message = err.Error()
		s.record(ctx, entry)
		log.Warn().Err(err).Str("draft_id", d.ID).Str("kind", string(kind)).Msg("Product submission failed")
		s.notifier.Notify(sess.ID, sse.LevelError, userMessage(err, failMsg))
		return nil, err
	}

	entry.Success = true
	entry.Message = res.Message
	s.record(ctx, entry)

	if kind == models.SubmissionCreate {
		if reset, err := s.resetDraft(ctx, sess, d.ID); err != nil {
			log.Error().Err(err).Str("draft_id", d.ID).Msg("Failed to reset draft after create")
		} else {
			d = reset
		}
	} else if s.onUpdated != nil {
		if err := s.onUpdated(ctx, sess, d); err != nil {
			log.Warn().Err(err).Str("draft_id", d.ID).Msg("Post-update refresh failed")
		}
	}

	s.publish(ctx, d.ID, events.ProductSubmitted{
		DraftID:      entry.DraftID,
		Kind:         string(kind),
		ProductID:    derefString(entry.ProductID),
		VariantCount: entry.VariantCount,
		TotalStock:   entry.TotalStock,
	})

	msg := okMsg
	if res.Message != "" {
		msg = res.Message
	}
	s.notifier.Notify(sess.ID, sse.LevelSuccess, msg)
	log.Info().Str("draft_id", entry.DraftID).Str("kind", string(kind)).Int("total_stock", total).Msg("Product submitted")

	return &SubmitResult{Message: msg, Redirect: ProductListPath, Draft: d}, nil
}

// List returns journaled submissions, newest first.
func (s *SubmissionService) List(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	return s.journal.List(ctx, limit, offset)
}

// resetDraft clears the draft back to create-flow defaults and drops its
// staged image.
func (s *SubmissionService) resetDraft(ctx context.Context, sess models.Session, draftID string) (*models.ProductDraft, error) {
	var out *models.ProductDraft
	err := s.drafts.mutate(ctx, sess, draftID, func(d *models.ProductDraft) (bool, error) {
		s.drafts.dropImage(ctx, d.Image)
		d.Reset()
		out = d
		return true, nil
	})
	return out, err
}

func (s *SubmissionService) record(ctx context.Context, entry *models.Submission) {
	if err := s.journal.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("draft_id", entry.DraftID).Msg("Failed to journal submission")
	}
}

func (s *SubmissionService) publish(ctx context.Context, key string, data events.ProductSubmitted) {
	if err := s.publisher.Publish(ctx, key, events.TypeProductSubmitted, data); err != nil {
		log.Warn().Err(err).Msg("Failed to publish product event")
	}
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
