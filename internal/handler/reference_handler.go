package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lwan2205/storefront/internal/middleware"
	"github.com/Lwan2205/storefront/internal/service"
	"github.com/Lwan2205/storefront/internal/utils"
)

// ReferenceHandler serves the select options of the product form.
type ReferenceHandler struct {
	refs *service.ReferenceService
}

// NewReferenceHandler constructs a ReferenceHandler.
func NewReferenceHandler(refs *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

// GetReferences handles GET /v1/admin/references
func (h *ReferenceHandler) GetReferences(c *gin.Context) {
	refs, err := h.refs.Load(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to load data")
		return
	}
	utils.Success(c, http.StatusOK, "References retrieved", refs)
}
