package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Lwan2205/storefront/internal/middleware"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/service"
	"github.com/Lwan2205/storefront/internal/utils"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// DraftHandler serves the admin product form.
type DraftHandler struct {
	drafts      *service.DraftService
	submissions *service.SubmissionService
	maxImage    int64
}

// NewDraftHandler constructs a DraftHandler.
func NewDraftHandler(drafts *service.DraftService, submissions *service.SubmissionService, maxImageBytes int64) *DraftHandler {
	return &DraftHandler{drafts: drafts, submissions: submissions, maxImage: maxImageBytes}
}

// VariantEditRequest is the body of the variant edit endpoints.
type VariantEditRequest struct {
	Field string `json:"field" binding:"required,oneof=size stock"`
	Value string `json:"value"`
}

// draftView is a draft with the size choices the form should render.
type draftView struct {
	*models.ProductDraft
	SizeOptions []string `json:"sizeOptions"`
}

func viewOf(d *models.ProductDraft) draftView {
	return draftView{ProductDraft: d, SizeOptions: d.SizeOptions()}
}

// CreateDraft handles POST /v1/admin/drafts
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	d, err := h.drafts.Create(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to create draft")
		return
	}
	utils.Success(c, http.StatusCreated, "Draft created", viewOf(d))
}

// CreateDraftFromProduct handles POST /v1/admin/drafts/from-product/:productId
func (h *DraftHandler) CreateDraftFromProduct(c *gin.Context) {
	d, err := h.drafts.CreateFromProduct(c.Request.Context(), middleware.SessionFrom(c), c.Param("productId"))
	if err != nil {
		utils.ErrorFrom(c, err, backendMessage(err, "Failed to fetch product detail"))
		return
	}
	utils.Success(c, http.StatusCreated, "Draft created", viewOf(d))
}

// GetDraft handles GET /v1/admin/drafts/:draftId
func (h *DraftHandler) GetDraft(c *gin.Context) {
	d, err := h.drafts.Get(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"))
	if err != nil {
		utils.ErrorFrom(c, err, "Draft not found")
		return
	}
	utils.Success(c, http.StatusOK, "Draft retrieved", viewOf(d))
}

// DiscardDraft handles DELETE /v1/admin/drafts/:draftId
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	if err := h.drafts.Discard(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId")); err != nil {
		utils.ErrorFrom(c, err, "Failed to discard draft")
		return
	}
	utils.Success(c, http.StatusOK, "Draft discarded", nil)
}

// PatchDraft handles PATCH /v1/admin/drafts/:draftId
// Body is a flat object of scalar fields, e.g. {"name":"Cream","price":100000}.
func (h *DraftHandler) PatchDraft(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	fields := make(map[string]string, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = t
		case float64:
			fields[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			fields[k] = fmt.Sprint(t)
		}
	}

	d, err := h.drafts.Patch(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"), fields)
	if err != nil {
		utils.ErrorFrom(c, err, err.Error())
		return
	}
	utils.Success(c, http.StatusOK, "Draft updated", viewOf(d))
}

// AddVariant handles POST /v1/admin/drafts/:draftId/variants
func (h *DraftHandler) AddVariant(c *gin.Context) {
	res, err := h.drafts.AddVariant(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"))
	h.respondVariant(c, res, err, http.StatusCreated, "Variant added")
}

// EditVariant handles PUT /v1/admin/drafts/:draftId/variants/:key
func (h *DraftHandler) EditVariant(c *gin.Context) {
	key, ok := intParam(c, "key")
	if !ok {
		return
	}
	var req VariantEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "field must be size or stock")
		return
	}
	res, err := h.drafts.EditVariant(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"), key, models.VariantField(req.Field), req.Value)
	h.respondVariant(c, res, err, http.StatusOK, "Variant updated")
}

// RemoveVariant handles DELETE /v1/admin/drafts/:draftId/variants/:key
func (h *DraftHandler) RemoveVariant(c *gin.Context) {
	key, ok := intParam(c, "key")
	if !ok {
		return
	}
	res, err := h.drafts.RemoveVariant(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"), key)
	h.respondVariant(c, res, err, http.StatusOK, "Variant removed")
}

// EditVariantAt handles PUT /v1/admin/drafts/:draftId/variants/at/:index
func (h *DraftHandler) EditVariantAt(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	var req VariantEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "field must be size or stock")
		return
	}
	res, err := h.drafts.EditVariantAt(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"), index, models.VariantField(req.Field), req.Value)
	h.respondVariant(c, res, err, http.StatusOK, "Variant updated")
}

// RemoveVariantAt handles DELETE /v1/admin/drafts/:draftId/variants/at/:index
func (h *DraftHandler) RemoveVariantAt(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	res, err := h.drafts.RemoveVariantAt(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"), index)
	h.respondVariant(c, res, err, http.StatusOK, "Variant removed")
}

// respondVariant writes a variant mutation. A stale key or index is not an
// error: the unchanged draft is returned with applied=false.
func (h *DraftHandler) respondVariant(c *gin.Context, res *service.VariantEdit, err error, code int, message string) {
	if err != nil {
		utils.ErrorFrom(c, err, "Draft not found")
		return
	}
	if !res.Applied {
		code, message = http.StatusOK, "No variant at that position, nothing changed"
	}
	utils.Success(c, code, message, gin.H{
		"draft":   viewOf(res.Draft),
		"applied": res.Applied,
		"variant": res.Variant,
	})
}

// SetImage handles PUT /v1/admin/drafts/:draftId/image (multipart "image")
func (h *DraftHandler) SetImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImage+(1<<20))
	fh, err := c.FormFile(shopapi.ImageFieldName)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorFrom(c, utils.ErrImageTooLarge, "Image is too large")
			return
		}
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing image file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Unreadable image file")
		return
	}
	defer f.Close()

	d, err := h.drafts.SetImage(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"), service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		utils.ErrorFrom(c, err, imageMessage(err))
		return
	}
	utils.Success(c, http.StatusOK, "Image staged", viewOf(d))
}

// Submit handles POST /v1/admin/drafts/:draftId/submit
func (h *DraftHandler) Submit(c *gin.Context) {
	res, err := h.submissions.Submit(c.Request.Context(), middleware.SessionFrom(c), c.Param("draftId"))
	if err != nil {
		utils.ErrorFrom(c, err, submitMessage(err))
		return
	}
	utils.SuccessRedirect(c, http.StatusOK, res.Message, viewOf(res.Draft), res.Redirect)
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", name+" must be an integer")
		return 0, false
	}
	return n, true
}
