package service

import (
	"context"
	"sync"
	"time"

	"github.com/Lwan2205/storefront/internal/cache"
	"github.com/Lwan2205/storefront/internal/events"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/pkg/shopapi"
)

type fakeBackend struct {
	mu sync.Mutex

	product    *shopapi.Product
	productErr error
	related    []shopapi.Product
	relatedErr error

	categories []shopapi.Category
	refErr     error
	refCalls   int
	refToken   string

	writeErr    error
	writeMsg    string
	created     []*shopapi.ProductForm
	updated     map[string]*shopapi.ProductForm
	idemKeys    []string
	createdImgs []string

	cartErr   error
	cartAdds  []shopapi.AddToCartRequest
	cartCount int
	countCall int
}

func (f *fakeBackend) ListCategories(_ context.Context, token string) ([]shopapi.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refCalls++
	f.refToken = token
	return f.categories, f.refErr
}

func (f *fakeBackend) ListManufacturers(context.Context, string) ([]shopapi.Manufacturer, error) {
	return []shopapi.Manufacturer{{ID: "m1", Name: "Acme"}}, nil
}

func (f *fakeBackend) ListDiscounts(context.Context, string) ([]shopapi.Discount, error) {
	return []shopapi.Discount{}, nil
}

func (f *fakeBackend) GetProduct(context.Context, string, string) (*shopapi.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productErr != nil {
		return nil, f.productErr
	}
	cp := *f.product
	return &cp, nil
}

func (f *fakeBackend) GetRelatedProducts(context.Context, string, string) ([]shopapi.Product, error) {
	return f.related, f.relatedErr
}

func (f *fakeBackend) CreateProduct(_ context.Context, _ string, key string, form *shopapi.ProductForm) (*shopapi.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.created = append(f.created, form)
	f.idemKeys = append(f.idemKeys, key)
	if form.Image != nil {
		f.createdImgs = append(f.createdImgs, form.Image.Filename)
	}
	return &shopapi.Result{Message: f.writeMsg}, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, _ string, id, key string, form *shopapi.ProductForm) (*shopapi.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.updated == nil {
		f.updated = map[string]*shopapi.ProductForm{}
	}
	f.updated[id] = form
	f.idemKeys = append(f.idemKeys, key)
	return &shopapi.Result{Message: f.writeMsg}, nil
}

func (f *fakeBackend) AddToCart(_ context.Context, _ string, req shopapi.AddToCartRequest) (*shopapi.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	f.cartAdds = append(f.cartAdds, req)
	f.cartCount += req.Quantity
	return &shopapi.Result{}, nil
}

func (f *fakeBackend) CountCartItems(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCall++
	return f.cartCount, nil
}

type note struct {
	session, level, message string
}

type recordingNotifier struct {
	mu     sync.Mutex
	notes  []note
	counts map[string]int
}

func (n *recordingNotifier) Notify(sessionID, level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{sessionID, level, message})
}

func (n *recordingNotifier) CartCount(sessionID string, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.counts == nil {
		n.counts = map[string]int{}
	}
	n.counts[sessionID] = count
}

func (n *recordingNotifier) last() note {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return note{}
	}
	return n.notes[len(n.notes)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var _ events.Publisher = (*recordingPublisher)(nil)

type memJournal struct {
	mu      sync.Mutex
	entries []models.Submission
}

func (j *memJournal) Record(_ context.Context, s *models.Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	s.ID = int64(len(j.entries) + 1)
	s.CreatedAt = time.Now()
	j.entries = append(j.entries, *s)
	return nil
}

func (j *memJournal) List(context.Context, int, int) ([]models.Submission, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]models.Submission(nil), j.entries...), nil
}

var testSession = models.Session{ID: "sess-1", BackendToken: "backend-token"}

func newTestStore() cache.Store { return cache.NewMemoryStore() }
