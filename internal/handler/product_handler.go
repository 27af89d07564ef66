package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lwan2205/storefront/internal/middleware"
	"github.com/Lwan2205/storefront/internal/service"
	"github.com/Lwan2205/storefront/internal/utils"
)

// ProductHandler serves the shopper-facing product page and cart.
type ProductHandler struct {
	detail *service.ProductDetailService
	carts  *service.CartCoordinator
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(detail *service.ProductDetailService, carts *service.CartCoordinator) *ProductHandler {
	return &ProductHandler{detail: detail, carts: carts}
}

// AddToCartRequest is the body of POST /v1/products/:id/cart. Omitted fields
// use the size and quantity already chosen on the page.
type AddToCartRequest struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// SelectSizeRequest is the body of POST /v1/products/:id/size.
type SelectSizeRequest struct {
	Size string `json:"size" binding:"required"`
}

// GetProduct handles GET /v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	snap, err := h.detail.Show(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		utils.ErrorFrom(c, err, snap.Error)
		return
	}
	utils.Success(c, http.StatusOK, "Product retrieved", snap)
}

// Retry handles POST /v1/products/:id/retry
func (h *ProductHandler) Retry(c *gin.Context) {
	snap, err := h.detail.Retry(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if errors.Is(err, utils.ErrNothingToRetry) {
		utils.ErrorFrom(c, err, "Product is not in an error state")
		return
	}
	if err != nil {
		utils.ErrorFrom(c, err, snap.Error)
		return
	}
	utils.Success(c, http.StatusOK, "Product retrieved", snap)
}

// SelectSize handles POST /v1/products/:id/size
func (h *ProductHandler) SelectSize(c *gin.Context) {
	var req SelectSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorFrom(c, utils.ErrSizeRequired, "Please select a size")
		return
	}
	snap, err := h.detail.SelectSize(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), req.Size)
	if err != nil {
		msg := addToCartMessage(err)
		if snap != nil && snap.Error != "" {
			msg = snap.Error
		}
		utils.ErrorFrom(c, err, msg)
		return
	}
	utils.Success(c, http.StatusOK, "Size selected", snap)
}

// IncrementQuantity handles POST /v1/products/:id/quantity/increment
func (h *ProductHandler) IncrementQuantity(c *gin.Context) {
	h.stepQuantity(c, 1)
}

// DecrementQuantity handles POST /v1/products/:id/quantity/decrement
func (h *ProductHandler) DecrementQuantity(c *gin.Context) {
	h.stepQuantity(c, -1)
}

func (h *ProductHandler) stepQuantity(c *gin.Context, delta int) {
	n := h.detail.StepQuantity(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), delta)
	utils.Success(c, http.StatusOK, "Quantity updated", gin.H{"quantity": n})
}

// AddToCart handles POST /v1/products/:id/cart
func (h *ProductHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	res, err := h.detail.AddToCart(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), service.AddToCartInput{
		Size:     req.Size,
		Quantity: req.Quantity,
	})
	if err != nil {
		utils.ErrorFrom(c, err, addToCartMessage(err))
		return
	}
	utils.SuccessRedirect(c, http.StatusOK, res.Message, gin.H{
		"productId": res.Event.ProductID,
		"size":      res.Event.Size,
		"quantity":  res.Event.Quantity,
	}, res.Redirect)
}

// CartCount handles GET /v1/cart/count
func (h *ProductHandler) CartCount(c *gin.Context) {
	n, err := h.carts.Count(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to fetch cart count")
		return
	}
	utils.Success(c, http.StatusOK, "Cart count retrieved", gin.H{"count": n})
}
