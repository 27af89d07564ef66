package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/sse"
	"github.com/Lwan2205/storefront/internal/utils"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

func gatedProduct() *shopapi.Product {
	return &shopapi.Product{
		ID:    "p1",
		Name:  "Tee",
		Price: decimal.NewFromInt(150000),
		Variants: []shopapi.Variant{
			{ID: "v1", Size: "S", Stock: 0},
			{ID: "v2", Size: "M", Stock: 2},
		},
	}
}

func loadedView(t *testing.T, b *fakeBackend, n *recordingNotifier) *ProductDetailView {
	t.Helper()
	v := NewProductDetailView("p1", testSession, b, b, n)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return v
}

func TestDetailView_SizeGating(t *testing.T) {
	b := &fakeBackend{product: gatedProduct()}
	v := loadedView(t, b, &recordingNotifier{})

	opts := v.SizeOptions()
	if len(opts) != 2 {
		t.Fatalf("options %+v", opts)
	}
	if !opts[0].Disabled || opts[0].Label != "X" {
		t.Fatalf("S must be disabled and labelled X: %+v", opts[0])
	}
	if opts[1].Disabled || opts[1].Label != "M" {
		t.Fatalf("M must be enabled: %+v", opts[1])
	}

	if v.SelectSize("S") || v.SelectedSize() != "" {
		t.Fatalf("selecting an out-of-stock size changed the selection")
	}
	if !v.SelectSize("M") || v.SelectedSize() != "M" {
		t.Fatalf("selecting M failed")
	}
	if v.SelectSize("S") || v.SelectedSize() != "M" {
		t.Fatalf("selection changed by out-of-stock click")
	}
}

func TestDetailView_AddToCartWithoutSize(t *testing.T) {
	b := &fakeBackend{product: gatedProduct()}
	n := &recordingNotifier{}
	v := loadedView(t, b, n)

	_, err := v.AddToCart(context.Background())
	if !errors.Is(err, utils.ErrSizeRequired) {
		t.Fatalf("expected ErrSizeRequired, got %v", err)
	}
	if len(b.cartAdds) != 0 {
		t.Fatalf("network request issued")
	}
	if got := n.last(); got.level != sse.LevelError || got.message != "Please select a size" {
		t.Fatalf("notification %+v", got)
	}
	if v.State() != StateLoaded {
		t.Fatalf("state %s", v.State())
	}
}

func TestDetailView_QuantityStepper(t *testing.T) {
	v := NewProductDetailView("p1", testSession, &fakeBackend{}, &fakeBackend{}, &recordingNotifier{})
	for i := 0; i < 5; i++ {
		if q := v.Decrement(); q != 1 {
			t.Fatalf("decrement below floor: %d", q)
		}
	}
	const n = 7
	for i := 0; i < n; i++ {
		v.Increment()
	}
	if v.Quantity() != n+1 {
		t.Fatalf("quantity %d, want %d", v.Quantity(), n+1)
	}
	if v.SetQuantity(-4) != 1 {
		t.Fatalf("SetQuantity must clamp to 1")
	}
}

func TestDetailView_AddToCartSuccess(t *testing.T) {
	b := &fakeBackend{product: gatedProduct()}
	n := &recordingNotifier{}
	v := loadedView(t, b, n)
	v.SelectSize("M")
	v.Increment()

	res, err := v.AddToCart(context.Background())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.Redirect != CartPath {
		t.Fatalf("redirect %q", res.Redirect)
	}
	want := shopapi.AddToCartRequest{ProductID: "p1", Quantity: 2, Size: "M"}
	if len(b.cartAdds) != 1 || b.cartAdds[0] != want {
		t.Fatalf("request %+v", b.cartAdds)
	}
	if res.Event.SessionID != testSession.ID || res.Event.Quantity != 2 {
		t.Fatalf("event %+v", res.Event)
	}
	if v.State() != StateLoaded {
		t.Fatalf("state %s", v.State())
	}
}

func TestDetailView_AddToCartFailureLeavesState(t *testing.T) {
	b := &fakeBackend{product: gatedProduct(), cartErr: &shopapi.RejectedError{Status: 400, Message: "Out of stock"}}
	n := &recordingNotifier{}
	v := loadedView(t, b, n)
	v.SelectSize("M")

	if _, err := v.AddToCart(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if v.State() != StateLoaded || v.SelectedSize() != "M" || v.Quantity() != 1 {
		t.Fatalf("state changed: %+v", v.Snapshot())
	}
	if got := n.last(); got.message != "Out of stock" {
		t.Fatalf("notification %+v", got)
	}
}

func TestDetailView_ErrorStateAndRetry(t *testing.T) {
	b := &fakeBackend{productErr: shopapi.ErrUnavailable}
	n := &recordingNotifier{}
	v := NewProductDetailView("p1", testSession, b, b, n)

	if err := v.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if v.State() != StateError {
		t.Fatalf("state %s, want error", v.State())
	}
	if snap := v.Snapshot(); snap.Error != "Failed to fetch product detail" {
		t.Fatalf("snapshot error %q", snap.Error)
	}
	if _, err := v.AddToCart(context.Background()); !errors.Is(err, utils.ErrProductNotLoaded) {
		t.Fatalf("expected ErrProductNotLoaded, got %v", err)
	}

	b.productErr = nil
	b.product = gatedProduct()
	if err := v.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if v.State() != StateLoaded {
		t.Fatalf("state after retry %s", v.State())
	}
}

func TestDetailView_RelatedFailureDoesNotBlock(t *testing.T) {
	b := &fakeBackend{product: gatedProduct(), relatedErr: shopapi.ErrUnavailable}
	n := &recordingNotifier{}
	v := loadedView(t, b, n)

	snap := v.Snapshot()
	if snap.State != StateLoaded || snap.Product == nil || len(snap.Related) != 0 {
		t.Fatalf("snapshot %+v", snap)
	}
	found := false
	for _, note := range n.notes {
		if note.message == "Failed to fetch related products" {
			found = true
		}
	}
	if !found {
		t.Fatalf("related failure not reported: %+v", n.notes)
	}
}

func TestDetailView_OriginalPriceOnlyWithDiscount(t *testing.T) {
	origin := decimal.NewFromInt(200000)
	p := gatedProduct()
	p.Origin = &origin
	b := &fakeBackend{product: p}
	if snap := loadedView(t, b, &recordingNotifier{}).Snapshot(); snap.OriginalPrice != nil {
		t.Fatalf("original price shown without discount")
	}
	p.Discount = &shopapi.Discount{ID: "d1", DiscountPercent: 25}
	if snap := loadedView(t, b, &recordingNotifier{}).Snapshot(); snap.OriginalPrice == nil || !snap.OriginalPrice.Equal(origin) {
		t.Fatalf("original price missing: %+v", snap.OriginalPrice)
	}
}

func TestProductDetailService_AddToCart(t *testing.T) {
	b := &fakeBackend{product: gatedProduct()}
	n := &recordingNotifier{}
	svc := newDetailService(b, n)
	ctx := context.Background()

	if _, err := svc.AddToCart(ctx, testSession, "p1", AddToCartInput{}); !errors.Is(err, utils.ErrSizeRequired) {
		t.Fatalf("expected ErrSizeRequired, got %v", err)
	}
	if _, err := svc.AddToCart(ctx, testSession, "p1", AddToCartInput{Size: "S", Quantity: 1}); !errors.Is(err, utils.ErrSizeUnavailable) {
		t.Fatalf("expected ErrSizeUnavailable, got %v", err)
	}
	if len(b.cartAdds) != 0 {
		t.Fatalf("backend called for rejected selections")
	}

	if _, err := svc.AddToCart(ctx, testSession, "p1", AddToCartInput{Size: "M", Quantity: 0}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if b.cartAdds[0].Quantity != 1 {
		t.Fatalf("quantity not clamped: %+v", b.cartAdds[0])
	}
	if n.counts[testSession.ID] != 1 {
		t.Fatalf("cart count not pushed: %v", n.counts)
	}
}

func newDetailService(b *fakeBackend, n *recordingNotifier) *ProductDetailService {
	store := newTestStore()
	carts := NewCartCoordinator(b, cache.NewCartCountCache(store, time.Minute), n, &recordingPublisher{})
	return NewProductDetailService(b, b, carts, cache.NewViewCache(store, time.Hour), n)
}

func TestProductDetailService_SelectionCarriesOver(t *testing.T) {
	b := &fakeBackend{product: gatedProduct()}
	svc := newDetailService(b, &recordingNotifier{})
	ctx := context.Background()

	if n := svc.StepQuantity(ctx, testSession, "p1", -1); n != 1 {
		t.Fatalf("decrement below 1: %d", n)
	}
	for i := 0; i < 2; i++ {
		svc.StepQuantity(ctx, testSession, "p1", 1)
	}
	if _, err := svc.SelectSize(ctx, testSession, "p1", "S"); !errors.Is(err, utils.ErrSizeUnavailable) {
		t.Fatalf("out-of-stock size selected: %v", err)
	}
	snap, err := svc.SelectSize(ctx, testSession, "p1", "M")
	if err != nil || snap.SelectedSize != "M" || snap.Quantity != 3 {
		t.Fatalf("select: %v %+v", err, snap)
	}

	if _, err := svc.AddToCart(ctx, testSession, "p1", AddToCartInput{}); err != nil {
		t.Fatalf("add with saved selection: %v", err)
	}
	if got := b.cartAdds[0]; got.Size != "M" || got.Quantity != 3 {
		t.Fatalf("saved selection not used: %+v", got)
	}

	other := testSession
	other.ID = "sess-2"
	if _, err := svc.AddToCart(ctx, other, "p1", AddToCartInput{}); !errors.Is(err, utils.ErrSizeRequired) {
		t.Fatalf("selection leaked across sessions: %v", err)
	}
}

func TestProductDetailService_Retry(t *testing.T) {
	b := &fakeBackend{product: gatedProduct(), productErr: shopapi.ErrUnavailable}
	svc := newDetailService(b, &recordingNotifier{})
	ctx := context.Background()

	if _, err := svc.Retry(ctx, testSession, "p1"); !errors.Is(err, utils.ErrNothingToRetry) {
		t.Fatalf("retry before any load: %v", err)
	}
	snap, err := svc.Show(ctx, testSession, "p1")
	if err == nil || snap.State != StateError {
		t.Fatalf("expected error state, got %v %+v", err, snap)
	}

	b.productErr = nil
	snap, err = svc.Retry(ctx, testSession, "p1")
	if err != nil || snap.State != StateLoaded {
		t.Fatalf("retry: %v %+v", err, snap)
	}
	if _, err := svc.Retry(ctx, testSession, "p1"); !errors.Is(err, utils.ErrNothingToRetry) {
		t.Fatalf("retry of a loaded page: %v", err)
	}
}
