package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Lwan2205/storefront/internal/utils"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// DraftMode tells whether a draft creates a new product or edits an existing one.
type DraftMode string

const (
	DraftModeCreate DraftMode = "create"
	DraftModeUpdate DraftMode = "update"
)

// VariantField names an editable field of a VariantDraft.
type VariantField string

const (
	VariantFieldSize  VariantField = "size"
	VariantFieldStock VariantField = "stock"
)

// ValidSizes are the sizes offered by the create form. The update form
// accepts free text.
var ValidSizes = []string{"S", "M", "L", "XL"}

// VariantDraft is a per-size stock entry that has not been persisted yet.
// Key is a synthetic identity assigned by the owning draft; ID is the backend
// id of a variant hydrated from an existing product. Stock keeps the raw user
// input and is only coerced at submission.
type VariantDraft struct {
	Key   int    `json:"key"`
	ID    string `json:"id,omitempty"`
	Size  string `json:"size"`
	Stock string `json:"stock"`
}

// ImageRef points at a staged image waiting to be submitted with the draft.
type ImageRef struct {
	Key         string `json:"key"`
	URL         string `json:"url,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ProductDraft is the client-side representation of a product being created
// or edited. It is mutated only through its edit methods.
type ProductDraft struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"-"`
	Mode         DraftMode       `json:"mode"`
	ProductID    string          `json:"productId,omitempty"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Discount     string          `json:"discount,omitempty"`
	Manufacturer string          `json:"manufacturer"`
	Rating       float64         `json:"rating"`
	IsFeatured   bool            `json:"isFeatured"`
	Variants     []VariantDraft  `json:"variants"`
	Image        *ImageRef       `json:"image,omitempty"`
	NextKey      int             `json:"nextKey"`
}

// NewProductDraft returns an empty draft for the create flow.
func NewProductDraft(id, sessionID string) *ProductDraft {
	return &ProductDraft{
		ID:        id,
		SessionID: sessionID,
		Mode:      DraftModeCreate,
		Variants:  []VariantDraft{},
		NextKey:   1,
	}
}

// DraftFromProduct hydrates an update-flow draft from a fetched product.
func DraftFromProduct(id, sessionID string, p *shopapi.Product) *ProductDraft {
	d := &ProductDraft{
		ID:          id,
		SessionID:   sessionID,
		Mode:        DraftModeUpdate,
		ProductID:   p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Rating:      p.Rating,
		IsFeatured:  p.IsFeatured,
		Variants:    make([]VariantDraft, 0, len(p.Variants)),
		NextKey:     1,
	}
	if p.Category != nil {
		d.Category = p.Category.ID
	}
	if p.Discount != nil {
		d.Discount = p.Discount.ID
	}
	if p.Manufacturer != nil {
		d.Manufacturer = p.Manufacturer.ID
	}
	for _, v := range p.Variants {
		d.Variants = append(d.Variants, VariantDraft{
			Key:   d.nextKey(),
			ID:    v.ID,
			Size:  v.Size,
			Stock: strconv.Itoa(v.Stock),
		})
	}
	return d
}

// SizeOptions returns the sizes the form should offer, or nil for free text.
func (d *ProductDraft) SizeOptions() []string {
	if d.Mode == DraftModeCreate {
		return ValidSizes
	}
	return nil
}

func (d *ProductDraft) nextKey() int {
	if d.NextKey <= 0 {
		d.NextKey = 1
	}
	k := d.NextKey
	d.NextKey++
	return k
}

// AddVariant appends an empty variant and returns it.
func (d *ProductDraft) AddVariant() VariantDraft {
	v := VariantDraft{Key: d.nextKey(), Size: "", Stock: "0"}
	d.Variants = append(d.Variants, v)
	return v
}

// EditVariantAt replaces one field of the variant at index. It returns false
// and leaves the draft untouched when index is out of bounds or field unknown.
func (d *ProductDraft) EditVariantAt(index int, field VariantField, value string) bool {
	if index < 0 || index >= len(d.Variants) {
		return false
	}
	switch field {
	case VariantFieldSize:
		d.Variants[index].Size = value
	case VariantFieldStock:
		d.Variants[index].Stock = value
	default:
		return false
	}
	return true
}

// RemoveVariantAt deletes the variant at index, shifting later entries down.
func (d *ProductDraft) RemoveVariantAt(index int) bool {
	if index < 0 || index >= len(d.Variants) {
		return false
	}
	d.Variants = append(d.Variants[:index], d.Variants[index+1:]...)
	return true
}

// IndexOf returns the current position of the variant with key, or -1.
func (d *ProductDraft) IndexOf(key int) int {
	for i, v := range d.Variants {
		if v.Key == key {
			return i
		}
	}
	return -1
}

// EditVariant edits the variant identified by key. Edits addressed to a key
// that was removed are discarded.
func (d *ProductDraft) EditVariant(key int, field VariantField, value string) bool {
	return d.EditVariantAt(d.IndexOf(key), field, value)
}

// RemoveVariant removes the variant identified by key.
func (d *ProductDraft) RemoveVariant(key int) bool {
	return d.RemoveVariantAt(d.IndexOf(key))
}

// SetField updates a scalar field from form input.
func (d *ProductDraft) SetField(name, value string) error {
	switch name {
	case "name":
		d.Name = value
	case "description":
		d.Description = value
	case "category":
		d.Category = value
	case "discount":
		d.Discount = value
	case "manufacturer":
		d.Manufacturer = value
	case "price":
		value = strings.TrimSpace(value)
		if value == "" {
			d.Price = decimal.Zero
			return nil
		}
		p, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%w: invalid price %q", utils.ErrInvalidField, value)
		}
		d.Price = p
	case "rating":
		value = strings.TrimSpace(value)
		if value == "" {
			d.Rating = 0
			return nil
		}
		r, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid rating %q", utils.ErrInvalidField, value)
		}
		d.Rating = r
	case "isFeatured":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: invalid isFeatured %q", utils.ErrInvalidField, value)
		}
		d.IsFeatured = b
	default:
		return fmt.Errorf("%w: unknown field %q", utils.ErrInvalidField, name)
	}
	return nil
}

// Reset clears every field back to the create-flow defaults, keeping the
// draft's identity.
func (d *ProductDraft) Reset() {
	*d = *NewProductDraft(d.ID, d.SessionID)
}
