package shopapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Envelope is the backend's standard response wrapper. Reference list
// endpoints only fill Data.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Result is the outcome of a mutating call that succeeded.
type Result struct {
	Message string
}

// Product is the read-only, server-owned product shape. Callers never mutate
// it; edits go through a draft.
type Product struct {
	ID           string           `json:"_id" validate:"required"`
	Name         string           `json:"name" validate:"required"`
	Price        decimal.Decimal  `json:"price"`
	Origin       *decimal.Decimal `json:"origin,omitempty"` // price before discount
	Description  string           `json:"description"`
	Category     *Category        `json:"category,omitempty"`
	Discount     *Discount        `json:"discount,omitempty"`
	Manufacturer *Manufacturer    `json:"manufacturer,omitempty"`
	Stock        int              `json:"stock"`
	Images       string           `json:"images"`
	Rating       float64          `json:"rating"`
	IsFeatured   bool             `json:"isFeatured"`
	Variants     []Variant        `json:"variants" validate:"dive"`
}

// Variant is a persisted per-size stock entry with a stable backend id. The
// admin form does not police size or stock, so blank sizes and negative stock
// are valid here.
type Variant struct {
	ID    string `json:"_id,omitempty"`
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// InStock reports whether the variant can be put in a cart.
func (v Variant) InStock() bool {
	return v.Stock > 0
}

// Category is a backend-owned product category.
type Category struct {
	ID   string `json:"_id" validate:"required"`
	Name string `json:"name"`
}

// Manufacturer is a backend-owned manufacturer record.
type Manufacturer struct {
	ID      string `json:"_id" validate:"required"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// Discount is a backend-owned discount code.
type Discount struct {
	ID              string  `json:"_id" validate:"required"`
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discountPercent"`
}

// AddToCartRequest is the JSON body of the cart-add endpoint.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

// CartCount is the payload of the cart-count endpoint.
type CartCount struct {
	Count int `json:"count" validate:"min=0"`
}
