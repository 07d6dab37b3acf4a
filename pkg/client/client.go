// Package client is the typed API client for the order management backend.
// It carries the synchronization contract the UIs rely on: every mutation is
// confirmed by the server before any local state changes, errors surface the
// server's message verbatim, and collections are always re-read wholesale
// (see Store) rather than patched in place.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"comanda/pkg/status"

	"github.com/google/uuid"
)

// msgTableHasOpenOrders must match the backend's distinguished delete-guard
// message; clients map it to a specific user-facing error.
const msgTableHasOpenOrders = "Cannot delete table with open orders"

// ErrTableHasOpenOrders matches (via errors.Is) the APIError returned when a
// table delete is blocked by open orders.
var ErrTableHasOpenOrders = errors.New("table has open orders")

// APIError is a non-2xx response. Message is the server's error string when
// the body carried one, otherwise a generic fallback.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrTableHasOpenOrders && e.Message == msgTableHasOpenOrders
}

type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
		}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// --- Auth ---

// Login authenticates and installs the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// --- Products ---

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	err := c.do(ctx, http.MethodGet, "/products", nil, &products)
	return products, err
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPost, "/products", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil)
}

// --- Tables ---

func (c *Client) Tables(ctx context.Context) ([]Table, error) {
	var tables []Table
	err := c.do(ctx, http.MethodGet, "/tables", nil, &tables)
	return tables, err
}

func (c *Client) AvailableTables(ctx context.Context) ([]Table, error) {
	var tables []Table
	err := c.do(ctx, http.MethodGet, "/tables/available", nil, &tables)
	return tables, err
}

func (c *Client) CreateTable(ctx context.Context, in TableInput) (*Table, error) {
	var t Table
	if err := c.do(ctx, http.MethodPost, "/tables", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTable(ctx context.Context, id uint, in TableInput) (*Table, error) {
	var t Table
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tables/%d", id), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTable fails with ErrTableHasOpenOrders when the table still holds
// open orders.
func (c *Client) DeleteTable(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tables/%d", id), nil, nil)
}

// --- Orders ---

func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := c.do(ctx, http.MethodGet, "/orders", nil, &orders)
	return orders, err
}

func (c *Client) Order(ctx context.Context, id uint) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// OrdersByDate lists the orders of one calendar day (YYYY-MM-DD).
func (c *Client) OrdersByDate(ctx context.Context, date string) ([]Order, error) {
	var orders []Order
	path := "/orders/by-date?date=" + url.QueryEscape(date)
	err := c.do(ctx, http.MethodGet, path, nil, &orders)
	return orders, err
}

func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodPost, "/orders", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id uint, in OrderInput) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d", id), in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) CloseOrder(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/close", id), nil, nil)
}

func (c *Client) DeleteOrder(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/orders/%d", id), nil, nil)
}

// --- Kitchen ---

func (c *Client) KitchenOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := c.do(ctx, http.MethodGet, "/kitchen/orders", nil, &orders)
	return orders, err
}

// AdvanceKitchenStatus moves an order to the given stage. The server only
// accepts the immediate next stage; gate the call with status.CanAdvance so
// an affordance is never offered for an illegal move.
func (c *Client) AdvanceKitchenStatus(ctx context.Context, id uint, to status.Kitchen) (*Order, error) {
	body := map[string]status.Kitchen{"status": to}
	var o Order
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%d/kitchen-status", id), body, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
