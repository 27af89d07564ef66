package models

import "time"

// SubmissionKind distinguishes create and update submissions in the journal.
type SubmissionKind string

const (
	SubmissionCreate SubmissionKind = "create"
	SubmissionUpdate SubmissionKind = "update"
)

// Submission is one journaled attempt to send a draft to the backend.
type Submission struct {
	ID             int64          `db:"id" json:"id"`
	DraftID        string         `db:"draft_id" json:"draftId"`
	SessionID      string         `db:"session_id" json:"-"`
	Kind           SubmissionKind `db:"kind" json:"kind"`
	ProductID      *string        `db:"product_id" json:"productId,omitempty"`
	IdempotencyKey string         `db:"idempotency_key" json:"idempotencyKey"`
	VariantCount   int            `db:"variant_count" json:"variantCount"`
	TotalStock     int            `db:"total_stock" json:"totalStock"`
	Success        bool           `db:"success" json:"success"`
	Message        string         `db:"message" json:"message"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}
