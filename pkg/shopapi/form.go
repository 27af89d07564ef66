package shopapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"

	"github.com/shopspring/decimal"
)

// ImageFieldName is the multipart field the backend reads the product image from.
const ImageFieldName = "image"

// VariantPayload is one normalized variant as transmitted to the backend.
type VariantPayload struct {
	ID    string `json:"_id,omitempty"`
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// ImageUpload is an image streamed into the product form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ProductForm is the create/update payload. Scalars become one form field
// each; Variants are sent as a single JSON-encoded field.
type ProductForm struct {
	Name         string
	Price        decimal.Decimal
	Description  string
	Category     string
	Discount     string
	Manufacturer string
	Stock        int
	Rating       float64
	IsFeatured   bool
	Variants     []VariantPayload
	Image        *ImageUpload
}

// Encode writes the form as multipart/form-data and returns the body with its
// content type.
func (f *ProductForm) Encode() (*bytes.Buffer, string, error) {
	variants := f.Variants
	if variants == nil {
		variants = []VariantPayload{}
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal variants: %w", err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := []struct{ name, value string }{
		{"name", f.Name},
		{"price", f.Price.String()},
		{"description", f.Description},
		{"category", f.Category},
		{"discount", f.Discount},
		{"manufacturer", f.Manufacturer},
		{"stock", strconv.Itoa(f.Stock)},
		{"rating", strconv.FormatFloat(f.Rating, 'f', -1, 64)},
		{"isFeatured", strconv.FormatBool(f.IsFeatured)},
		{"variants", string(variantsJSON)},
	}
	for _, fld := range fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", fld.name, err)
		}
	}

	if f.Image != nil && f.Image.Body != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ImageFieldName, f.Image.Filename))
		ct := f.Image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := io.Copy(part, f.Image.Body); err != nil {
			return nil, "", fmt.Errorf("failed to copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}
