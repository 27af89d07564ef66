package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Lwan2205/storefront/internal/service"
	"github.com/Lwan2205/storefront/internal/utils"
)

// SubmissionHandler exposes the submission journal.
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler constructs a SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// ListSubmissions handles GET /v1/admin/submissions?limit=&offset=
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	items, err := h.submissions.List(c.Request.Context(), limit, offset)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to list submissions")
		return
	}
	utils.Success(c, http.StatusOK, "Submissions retrieved", gin.H{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}
