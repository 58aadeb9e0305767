// Package upstream is the typed HTTP client for the commerce backend. It
// is the only place backend payloads are parsed; everything past this
// boundary works with catalog and cart domain types.
package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/madebycan/storefront-api/internal/cart"
	"github.com/madebycan/storefront-api/internal/catalog"
	"github.com/madebycan/storefront-api/internal/session"
	"github.com/madebycan/storefront-api/internal/voucher"
)

// maxResponseBytes caps backend response bodies.
const maxResponseBytes = 10 << 20

// Compile-time check ensuring Client satisfies the synchronizer's upstream
// interface.
var _ cart.Upstream = (*Client)(nil)

// Client calls the commerce backend over JSON/HTTP. Authenticated endpoints
// relay the customer's bearer token from the request context.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpc = c }
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse backend URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("backend URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetProduct fetches a product with its full variant matrix by slug.
func (c *Client) GetProduct(ctx context.Context, slug string) (*catalog.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(slug), nil, false)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, catalog.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", slug)
	}
	return decodeProduct(data)
}

// FetchCart returns the authenticated customer's server cart.
func (c *Client) FetchCart(ctx context.Context) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodGet, "/cart", nil, true)
	if err != nil {
		return nil, errors.Wrap(err, "fetch cart")
	}
	return decodeCart(data)
}

// MergeCart sends the guest cart's items to the merge endpoint and returns
// the merged, server-authoritative cart. Conflict resolution (same variant
// on both sides, stock clamping, price revalidation) happens entirely on
// the backend.
func (c *Client) MergeCart(ctx context.Context, items []cart.Item) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodPost, "/cart/merge", encodeMergeRequest(items), true)
	if err != nil {
		return nil, errors.Wrap(err, "merge cart")
	}
	return decodeCart(data)
}

// AddItem appends or increments a line in the server cart.
func (c *Client) AddItem(ctx context.Context, item cart.Item) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodPost, "/cart/items", encodeAddItemRequest(item), true)
	if err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	return decodeCart(data)
}

// UpdateItem sets a line's quantity and selection flag.
func (c *Client) UpdateItem(ctx context.Context, variantID int64, quantity int, selected bool) (*cart.Cart, error) {
	path := "/cart/items/" + strconv.FormatInt(variantID, 10)
	data, err := c.do(ctx, http.MethodPatch, path, encodeUpdateItemRequest(quantity, selected), true)
	if err != nil {
		return nil, errors.Wrapf(err, "update cart item %d", variantID)
	}
	return decodeCart(data)
}

// RemoveItem drops a line from the server cart.
func (c *Client) RemoveItem(ctx context.Context, variantID int64) (*cart.Cart, error) {
	path := "/cart/items/" + strconv.FormatInt(variantID, 10)
	data, err := c.do(ctx, http.MethodDelete, path, nil, true)
	if err != nil {
		return nil, errors.Wrapf(err, "remove cart item %d", variantID)
	}
	return decodeCart(data)
}

// SetSelectAll sets the selection flag on every line of the server cart.
func (c *Client) SetSelectAll(ctx context.Context, selected bool) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodPost, "/cart/select-all", encodeSelectAllRequest(selected), true)
	if err != nil {
		return nil, errors.Wrap(err, "set select all")
	}
	return decodeCart(data)
}

// ApplyVoucher attaches a voucher to the server cart. A 422 means the
// backend rejected the code.
func (c *Client) ApplyVoucher(ctx context.Context, code string) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodPost, "/cart/voucher", encodeVoucherRequest(code), true)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusUnprocessableEntity {
			return nil, voucher.ErrInvalidCode
		}
		return nil, errors.Wrap(err, "apply voucher")
	}
	return decodeCart(data)
}

// do performs one backend request and returns the response body. Non-2xx
// responses become *StatusError with the backend's message when present.
func (c *Client) do(ctx context.Context, method, path string, body []byte, authed bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := session.TokenFrom(ctx)
		if token == "" {
			return nil, ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: decodeMessage(data)}
	}
	return data, nil
}
