package models

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Lwan2205/storefront/pkg/shopapi"
)

func sizes(d *ProductDraft) []string {
	out := make([]string, len(d.Variants))
	for i, v := range d.Variants {
		out[i] = v.Size
	}
	return out
}

func TestAddVariant_AppendsDefaults(t *testing.T) {
	d := NewProductDraft("d1", "s1")
	v := d.AddVariant()
	if v.Size != "" || v.Stock != "0" {
		t.Fatalf("unexpected defaults %+v", v)
	}
	w := d.AddVariant()
	if w.Key == v.Key {
		t.Fatalf("keys must be unique, got %d twice", v.Key)
	}
	if len(d.Variants) != 2 || d.Variants[1].Key != w.Key {
		t.Fatalf("variant not appended at the end: %+v", d.Variants)
	}
}

func TestEditVariantAt_OutOfBoundsIsNoop(t *testing.T) {
	d := NewProductDraft("d1", "s1")
	d.AddVariant()
	before := d.Variants[0]
	if d.EditVariantAt(1, VariantFieldSize, "M") {
		t.Fatalf("expected false for index past the end")
	}
	if d.EditVariantAt(-1, VariantFieldSize, "M") {
		t.Fatalf("expected false for negative index")
	}
	if d.EditVariantAt(0, VariantField("color"), "red") {
		t.Fatalf("expected false for unknown field")
	}
	if d.Variants[0] != before {
		t.Fatalf("variant changed: %+v", d.Variants[0])
	}
}

func TestRemoveVariantAt_ShiftsLaterEntries(t *testing.T) {
	d := NewProductDraft("d1", "s1")
	for _, s := range []string{"S", "M", "L", "XL"} {
		v := d.AddVariant()
		d.EditVariant(v.Key, VariantFieldSize, s)
	}
	if !d.RemoveVariantAt(1) {
		t.Fatalf("remove failed")
	}
	got := sizes(d)
	want := []string{"S", "L", "XL"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if d.RemoveVariantAt(3) {
		t.Fatalf("expected out of bounds remove to fail")
	}
}

func TestVariantSequence_RandomOperations(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	d := NewProductDraft("d1", "s1")
	var model []string // expected stock per position
	adds, removes := 0, 0

	for step := 0; step < 500; step++ {
		switch op := r.Intn(3); {
		case op == 0 || len(model) == 0:
			d.AddVariant()
			model = append(model, "0")
			adds++
		case op == 1:
			i := r.Intn(len(model))
			val := decimal.NewFromInt(int64(r.Intn(100))).String()
			d.EditVariantAt(i, VariantFieldStock, val)
			model[i] = val
		default:
			i := r.Intn(len(model))
			d.RemoveVariantAt(i)
			model = append(model[:i], model[i+1:]...)
			removes++
		}
	}

	if len(d.Variants) != adds-removes {
		t.Fatalf("len %d, want %d", len(d.Variants), adds-removes)
	}
	for i, v := range d.Variants {
		if v.Stock != model[i] {
			t.Fatalf("position %d stock %q, want %q", i, v.Stock, model[i])
		}
	}
}

func TestEditVariant_StaleKeyDiscarded(t *testing.T) {
	d := NewProductDraft("d1", "s1")
	a := d.AddVariant()
	b := d.AddVariant()
	d.RemoveVariant(a.Key)

	if d.EditVariant(a.Key, VariantFieldSize, "XL") {
		t.Fatalf("edit to removed key must be discarded")
	}
	if d.Variants[0].Key != b.Key || d.Variants[0].Size != "" {
		t.Fatalf("surviving variant touched: %+v", d.Variants[0])
	}
}

func TestSetField(t *testing.T) {
	d := NewProductDraft("d1", "s1")
	if err := d.SetField("price", "100000"); err != nil {
		t.Fatalf("price: %v", err)
	}
	if !d.Price.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("price %s", d.Price)
	}
	if err := d.SetField("price", "abc"); err == nil {
		t.Fatalf("expected invalid price error")
	}
	if err := d.SetField("isFeatured", "true"); err != nil || !d.IsFeatured {
		t.Fatalf("isFeatured not set: %v", err)
	}
	if err := d.SetField("rating", "4.5"); err != nil || d.Rating != 4.5 {
		t.Fatalf("rating not set: %v", err)
	}
	if err := d.SetField("stock", "3"); err == nil {
		t.Fatalf("aggregate stock is derived and must not be settable")
	}
}

func TestReset_KeepsIdentity(t *testing.T) {
	d := NewProductDraft("d1", "s1")
	_ = d.SetField("name", "Cream")
	d.AddVariant()
	d.Image = &ImageRef{Key: "k"}
	d.Reset()
	if d.ID != "d1" || d.SessionID != "s1" {
		t.Fatalf("identity lost: %+v", d)
	}
	if d.Name != "" || len(d.Variants) != 0 || d.Image != nil || !d.Price.IsZero() {
		t.Fatalf("not reset: %+v", d)
	}
}

func TestDraftFromProduct(t *testing.T) {
	p := &shopapi.Product{
		ID:           "p1",
		Name:         "Cream",
		Price:        decimal.NewFromInt(250000),
		Category:     &shopapi.Category{ID: "c1"},
		Manufacturer: &shopapi.Manufacturer{ID: "m1"},
		Variants: []shopapi.Variant{
			{ID: "v1", Size: "S", Stock: 0},
			{ID: "v2", Size: "M", Stock: 2},
		},
	}
	d := DraftFromProduct("d1", "s1", p)
	if d.Mode != DraftModeUpdate || d.ProductID != "p1" {
		t.Fatalf("mode/product id: %+v", d)
	}
	if d.Category != "c1" || d.Manufacturer != "m1" || d.Discount != "" {
		t.Fatalf("references: %+v", d)
	}
	if len(d.Variants) != 2 || d.Variants[1].ID != "v2" || d.Variants[1].Stock != "2" {
		t.Fatalf("variants: %+v", d.Variants)
	}
	if d.SizeOptions() != nil {
		t.Fatalf("update flow takes free-text sizes")
	}
	if v := d.AddVariant(); v.Key <= d.Variants[1].Key {
		t.Fatalf("new key %d must follow hydrated keys", v.Key)
	}
}
