package service

import (
	"context"

	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// CatalogBackend reads products and reference data.
type CatalogBackend interface {
	ListCategories(ctx context.Context, session string) ([]shopapi.Category, error)
	ListManufacturers(ctx context.Context, session string) ([]shopapi.Manufacturer, error)
	ListDiscounts(ctx context.Context, session string) ([]shopapi.Discount, error)
	GetProduct(ctx context.Context, session, productID string) (*shopapi.Product, error)
	GetRelatedProducts(ctx context.Context, session, productID string) ([]shopapi.Product, error)
}

// ProductWriter creates and updates products.
type ProductWriter interface {
	CreateProduct(ctx context.Context, session, idempotencyKey string, form *shopapi.ProductForm) (*shopapi.Result, error)
	UpdateProduct(ctx context.Context, session, productID, idempotencyKey string, form *shopapi.ProductForm) (*shopapi.Result, error)
}

// CartBackend manipulates the session's cart.
type CartBackend interface {
	AddToCart(ctx context.Context, session string, req shopapi.AddToCartRequest) (*shopapi.Result, error)
	CountCartItems(ctx context.Context, session string) (int, error)
}

// userMessage picks the backend's own message for a rejection, else fallback.
func userMessage(err error, fallback string) string {
	if msg := shopapi.Message(err); msg != "" {
		return msg
	}
	return fallback
}
