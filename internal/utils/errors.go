package utils

import "errors"

// Common application errors used across services.
var (
	ErrDraftNotFound      = errors.New("DRAFT_NOT_FOUND")
	ErrInvalidField       = errors.New("INVALID_FIELD")
	ErrInvalidStock       = errors.New("INVALID_STOCK")
	ErrSubmissionInFlight = errors.New("SUBMISSION_IN_FLIGHT")
	ErrSizeRequired       = errors.New("SIZE_REQUIRED")
	ErrSizeUnavailable    = errors.New("SIZE_UNAVAILABLE")
	ErrProductNotLoaded   = errors.New("PRODUCT_NOT_LOADED")
	ErrNothingToRetry     = errors.New("NOTHING_TO_RETRY")
	ErrImageTooLarge      = errors.New("IMAGE_TOO_LARGE")
	ErrImageRejected      = errors.New("IMAGE_REJECTED")
	ErrInvalidSession     = errors.New("INVALID_SESSION")
)
