package handler

import (
	"errors"

	"github.com/Lwan2205/storefront/internal/utils"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// addToCartMessage is the user-facing text for a failed add-to-cart.
func addToCartMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrSizeRequired):
		return "Please select a size"
	case errors.Is(err, utils.ErrSizeUnavailable):
		return "Selected size is out of stock"
	case errors.Is(err, utils.ErrProductNotLoaded):
		return "Failed to fetch product detail"
	}
	return backendMessage(err, "Failed to add product to cart")
}

func backendMessage(err error, fallback string) string {
	if msg := shopapi.Message(err); msg != "" {
		return msg
	}
	return fallback
}

func imageMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrImageTooLarge):
		return "Image is too large"
	case errors.Is(err, utils.ErrImageRejected):
		return "Image was rejected by content moderation"
	case errors.Is(err, utils.ErrDraftNotFound):
		return "Draft not found"
	}
	return "Failed to upload image"
}

func submitMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrSubmissionInFlight):
		return "This draft is already being submitted"
	case errors.Is(err, utils.ErrInvalidStock):
		return err.Error()
	case errors.Is(err, utils.ErrDraftNotFound):
		return "Draft not found"
	}
	return backendMessage(err, "Failed to save product")
}
