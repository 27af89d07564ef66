package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Lwan2205/storefront/internal/models"
)

// SubmissionRepository provides access to the submissions journal.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Record inserts a submission attempt and fills its ID and CreatedAt.
func (r *SubmissionRepository) Record(ctx context.Context, s *models.Submission) error {
	const q = `
        INSERT INTO submissions (
            draft_id, session_id, kind, product_id, idempotency_key,
            variant_count, total_stock, success, message, created_at
        ) VALUES (
            :draft_id, :session_id, :kind, :product_id, :idempotency_key,
            :variant_count, :total_stock, :success, :message, NOW()
        ) RETURNING id, created_at`
	stmt, err := r.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.QueryRowxContext(ctx, s).Scan(&s.ID, &s.CreatedAt)
}

// List returns the newest submissions first. A limit outside 1..200 becomes 50.
func (r *SubmissionRepository) List(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const q = `
        SELECT id, draft_id, session_id, kind, product_id, idempotency_key,
               variant_count, total_stock, success, message, created_at
        FROM submissions
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2`
	var out []models.Submission
	if err := r.db.SelectContext(ctx, &out, q, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}
