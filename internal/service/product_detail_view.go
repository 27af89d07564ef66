package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/sse"
	"github.com/Lwan2205/storefront/internal/utils"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// CartPath is where the shopper lands after adding to cart.
const CartPath = "/cart"

// ViewState is the lifecycle state of a ProductDetailView.
type ViewState string

const (
	StateLoading      ViewState = "loading"
	StateLoaded       ViewState = "loaded"
	StateAddingToCart ViewState = "adding_to_cart"
	StateError        ViewState = "error"
)

// SizeOption is one size button. Out-of-stock sizes are disabled and
// labelled "X".
type SizeOption struct {
	Size     string `json:"size"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
	Selected bool   `json:"selected"`
}

// CartChanged is handed to the cart coordinator after a successful add.
type CartChanged struct {
	SessionID string
	ProductID string
	Size      string
	Quantity  int
}

// AddToCartResult is a successful add-to-cart.
type AddToCartResult struct {
	Message  string
	Redirect string
	Event    CartChanged
}

// DetailSnapshot is the renderable state of a view.
type DetailSnapshot struct {
	State         ViewState         `json:"state"`
	Product       *shopapi.Product  `json:"product,omitempty"`
	OriginalPrice *decimal.Decimal  `json:"originalPrice,omitempty"`
	Related       []shopapi.Product `json:"related"`
	SizeOptions   []SizeOption      `json:"sizeOptions"`
	SelectedSize  string            `json:"selectedSize,omitempty"`
	Quantity      int               `json:"quantity"`
	Error         string            `json:"error,omitempty"`
}

// ProductDetailView is the state machine behind the product page:
// Loading -> Loaded -> AddingToCart -> Loaded, with Error reachable from
// Loading and left through Retry.
type ProductDetailView struct {
	productID string
	sess      models.Session
	catalog   CatalogBackend
	cart      CartBackend
	notifier  sse.Notifier

	mu           sync.Mutex
	state        ViewState
	product      *shopapi.Product
	related      []shopapi.Product
	selectedSize string
	quantity     int
	loadErr      error
}

// NewProductDetailView creates a view in the Loading state.
func NewProductDetailView(productID string, sess models.Session, catalog CatalogBackend, cart CartBackend, notifier sse.Notifier) *ProductDetailView {
	return &ProductDetailView{
		productID: productID,
		sess:      sess,
		catalog:   catalog,
		cart:      cart,
		notifier:  notifier,
		state:     StateLoading,
		related:   []shopapi.Product{},
		quantity:  1,
	}
}

// State returns the current state.
func (v *ProductDetailView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Load fetches the product and, concurrently, its related products. The
// primary transition depends only on the product; a related-products failure
// is reported and leaves the list empty.
func (v *ProductDetailView) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		related, err := v.catalog.GetRelatedProducts(ctx, v.sess.BackendToken, v.productID)
		if err != nil {
			v.notifier.Notify(v.sess.ID, sse.LevelError, userMessage(err, "Failed to fetch related products"))
			return nil
		}
		v.mu.Lock()
		v.related = related
		v.mu.Unlock()
		return nil
	})

	err := v.LoadProduct(ctx)
	_ = g.Wait()
	return err
}

// LoadProduct fetches only the product: Loading -> Loaded, or Error.
func (v *ProductDetailView) LoadProduct(ctx context.Context) error {
	v.mu.Lock()
	v.state = StateLoading
	v.loadErr = nil
	v.mu.Unlock()

	p, err := v.catalog.GetProduct(ctx, v.sess.BackendToken, v.productID)

	v.mu.Lock()
	if err != nil {
		v.state = StateError
		v.loadErr = err
	} else {
		v.state = StateLoaded
		v.product = p
	}
	v.mu.Unlock()

	if err != nil {
		v.notifier.Notify(v.sess.ID, sse.LevelError, userMessage(err, "Failed to fetch product detail"))
	}
	return err
}

// Retry reloads a view that failed to load. It is a no-op in other states.
func (v *ProductDetailView) Retry(ctx context.Context) error {
	if v.State() != StateError {
		return nil
	}
	return v.Load(ctx)
}

// SizeOptions lists one option per variant of the loaded product.
func (v *ProductDetailView) SizeOptions() []SizeOption {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sizeOptionsLocked()
}

func (v *ProductDetailView) sizeOptionsLocked() []SizeOption {
	if v.product == nil {
		return []SizeOption{}
	}
	opts := make([]SizeOption, 0, len(v.product.Variants))
	for _, variant := range v.product.Variants {
		opt := SizeOption{Size: variant.Size, Label: variant.Size, Selected: variant.Size == v.selectedSize}
		if !variant.InStock() {
			opt.Label = "X"
			opt.Disabled = true
		}
		opts = append(opts, opt)
	}
	return opts
}

// SelectSize selects size if a variant of that size is in stock. Out-of-stock
// or unknown sizes leave the selection unchanged and return false.
func (v *ProductDetailView) SelectSize(size string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil {
		return false
	}
	for _, variant := range v.product.Variants {
		if variant.Size == size && variant.InStock() {
			v.selectedSize = size
			return true
		}
	}
	return false
}

// SelectedSize returns the selected size, or "".
func (v *ProductDetailView) SelectedSize() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selectedSize
}

// Quantity returns the stepper value.
func (v *ProductDetailView) Quantity() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.quantity
}

// Increment raises the quantity by one. There is no upper bound.
func (v *ProductDetailView) Increment() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.quantity++
	return v.quantity
}

// Decrement lowers the quantity by one, never below 1.
func (v *ProductDetailView) Decrement() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.quantity > 1 {
		v.quantity--
	}
	return v.quantity
}

// Selection returns the state kept between requests.
func (v *ProductDetailView) Selection() models.DetailSelection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.DetailSelection{
		State:        string(v.state),
		SelectedSize: v.selectedSize,
		Quantity:     v.quantity,
	}
}

// Restore reapplies a selection saved by an earlier request. Transient
// states are not restored; the view stays in Loading until it loads again.
func (v *ProductDetailView) Restore(sel models.DetailSelection) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch st := ViewState(sel.State); st {
	case StateLoaded, StateError:
		v.state = st
	}
	v.selectedSize = sel.SelectedSize
	v.quantity = max(sel.Quantity, 1)
}

// SetQuantity sets the quantity, clamping to at least 1.
func (v *ProductDetailView) SetQuantity(n int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n < 1 {
		n = 1
	}
	v.quantity = n
	return v.quantity
}

// AddToCart posts the selection. Without a selected size it reports an error
// and makes no backend call. On failure the view returns to Loaded unchanged.
func (v *ProductDetailView) AddToCart(ctx context.Context) (*AddToCartResult, error) {
	v.mu.Lock()
	if v.state != StateLoaded || v.product == nil {
		v.mu.Unlock()
		return nil, utils.ErrProductNotLoaded
	}
	if v.selectedSize == "" {
		v.mu.Unlock()
		v.notifier.Notify(v.sess.ID, sse.LevelError, "Please select a size")
		return nil, utils.ErrSizeRequired
	}
	req := shopapi.AddToCartRequest{
		ProductID: v.product.ID,
		Quantity:  v.quantity,
		Size:      v.selectedSize,
	}
	v.state = StateAddingToCart
	v.mu.Unlock()

	res, err := v.cart.AddToCart(ctx, v.sess.BackendToken, req)

	v.mu.Lock()
	v.state = StateLoaded
	v.mu.Unlock()

	if err != nil {
		v.notifier.Notify(v.sess.ID, sse.LevelError, userMessage(err, "Failed to add product to cart"))
		return nil, err
	}

	msg := res.Message
	if msg == "" {
		msg = "Product added to cart"
	}
	v.notifier.Notify(v.sess.ID, sse.LevelSuccess, msg)
	return &AddToCartResult{
		Message:  msg,
		Redirect: CartPath,
		Event: CartChanged{
			SessionID: v.sess.ID,
			ProductID: req.ProductID,
			Size:      req.Size,
			Quantity:  req.Quantity,
		},
	}, nil
}

// Snapshot returns the renderable state.
func (v *ProductDetailView) Snapshot() *DetailSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := &DetailSnapshot{
		State:        v.state,
		Product:      v.product,
		Related:      v.related,
		SizeOptions:  v.sizeOptionsLocked(),
		SelectedSize: v.selectedSize,
		Quantity:     v.quantity,
	}
	if v.product != nil && v.product.Discount != nil {
		snap.OriginalPrice = v.product.Origin
	}
	if v.loadErr != nil {
		snap.Error = userMessage(v.loadErr, "Failed to fetch product detail")
	}
	return snap
}
