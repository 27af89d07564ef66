package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Backend paths.
const (
	pathCategories    = "/api/categories"
	pathManufacturers = "/api/manufacturers"
	pathDiscounts     = "/api/discounts"
	pathProducts      = "/api/products"
	pathRelated       = "/api/products/related"
	pathCartAdd       = "/api/cart/add"
	pathCartCount     = "/api/cart/count"
)

// Config holds storefront backend configuration.
type Config struct {
	BaseURL       string
	SessionCookie string
	Timeout       time.Duration
}

// Client is the HTTP client for the storefront backend REST API. Every call
// carries the caller's backend session cookie.
type Client struct {
	httpClient *http.Client
	config     Config
	validate   *validator.Validate
	debug      bool
}

// NewClient constructs a new backend client with sane defaults.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.SessionCookie == "" {
		config.SessionCookie = "token"
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		validate:   validator.New(),
		debug:      os.Getenv("ENV") == "development",
	}
}

// ListCategories returns every product category.
func (c *Client) ListCategories(ctx context.Context, session string) ([]Category, error) {
	var out []Category
	if err := c.getList(ctx, session, pathCategories, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListManufacturers returns every manufacturer.
func (c *Client) ListManufacturers(ctx context.Context, session string) ([]Manufacturer, error) {
	var out []Manufacturer
	if err := c.getList(ctx, session, pathManufacturers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDiscounts returns every discount code.
func (c *Client) ListDiscounts(ctx context.Context, session string) ([]Discount, error) {
	var out []Discount
	if err := c.getList(ctx, session, pathDiscounts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, session, productID string) (*Product, error) {
	env, err := c.doJSON(ctx, session, http.MethodGet, pathProducts+"/"+url.PathEscape(productID), nil, "")
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.decodeData(env, &p); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &p, nil
}

// GetRelatedProducts fetches products related to productID.
func (c *Client) GetRelatedProducts(ctx context.Context, session, productID string) ([]Product, error) {
	env, err := c.doJSON(ctx, session, http.MethodGet, pathRelated+"/"+url.PathEscape(productID), nil, "")
	if err != nil {
		return nil, err
	}
	var out []Product
	if err := c.decodeData(env, &out); err != nil {
		return nil, err
	}
	if err := c.validate.Var(out, "dive"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

// CreateProduct posts a new product as multipart form data.
func (c *Client) CreateProduct(ctx context.Context, session, idempotencyKey string, form *ProductForm) (*Result, error) {
	return c.sendForm(ctx, session, http.MethodPost, pathProducts, idempotencyKey, form)
}

// UpdateProduct replaces an existing product as multipart form data.
func (c *Client) UpdateProduct(ctx context.Context, session, productID, idempotencyKey string, form *ProductForm) (*Result, error) {
	return c.sendForm(ctx, session, http.MethodPut, pathProducts+"/"+url.PathEscape(productID), idempotencyKey, form)
}

// AddToCart adds quantity units of one product size to the session's cart.
func (c *Client) AddToCart(ctx context.Context, session string, req AddToCartRequest) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	env, err := c.doJSON(ctx, session, http.MethodPost, pathCartAdd, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return &Result{Message: env.Message}, nil
}

// CountCartItems returns the number of items in the session's cart.
func (c *Client) CountCartItems(ctx context.Context, session string) (int, error) {
	env, err := c.doJSON(ctx, session, http.MethodGet, pathCartCount, nil, "")
	if err != nil {
		return 0, err
	}
	var cc CartCount
	if err := c.decodeData(env, &cc); err != nil {
		return 0, err
	}
	if err := c.validate.Struct(&cc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return cc.Count, nil
}

func (c *Client) sendForm(ctx context.Context, session, method, path, idempotencyKey string, form *ProductForm) (*Result, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, session, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return &Result{Message: env.Message}, nil
}

// getList fetches a reference list. These endpoints answer {data: [...]}
// without a success flag.
func (c *Client) getList(ctx context.Context, session, path string, out any) error {
	req, err := c.newRequest(ctx, session, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	status, raw, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if status >= http.StatusBadRequest {
		return &RejectedError{Status: status, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := c.validate.Var(out, "dive"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, session, method, path string, body io.Reader, contentType string) (*Envelope, error) {
	req, err := c.newRequest(ctx, session, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, session, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if session != "" {
		req.AddCookie(&http.Cookie{Name: c.config.SessionCookie, Value: session})
	}
	return req, nil
}

// do performs req and decodes the standard envelope. A success=false body or
// an error status becomes a *RejectedError.
func (c *Client) do(req *http.Request) (*Envelope, error) {
	status, raw, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: status %d: %v", ErrInvalidResponse, status, err)
	}
	if status >= http.StatusBadRequest || !env.Success {
		return nil, &RejectedError{Status: status, Message: env.Message}
	}
	return &env, nil
}

func (c *Client) roundTrip(req *http.Request) (int, []byte, error) {
	if c.debug {
		log.Debug().
			Str("method", req.Method).
			Str("endpoint", req.URL.String()).
			Msg("[BACKEND] Outgoing request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if c.debug {
		ev := log.Debug().
			Str("endpoint", req.URL.Path).
			Int("status_code", resp.StatusCode)
		if json.Valid(raw) {
			ev = ev.RawJSON("response", raw)
		}
		ev.Msg("[BACKEND] Incoming response")
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) decodeData(env *Envelope, out any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrInvalidResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
