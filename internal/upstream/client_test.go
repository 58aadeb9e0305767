package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madebycan/storefront-api/internal/cart"
	"github.com/madebycan/storefront-api/internal/catalog"
	"github.com/madebycan/storefront-api/internal/session"
	"github.com/madebycan/storefront-api/internal/voucher"
)

const productJSON = `{
	"id": 1,
	"slug": "spartan-backpack",
	"name": "Spartan Backpack",
	"category": "bags",
	"description": "A backpack.",
	"gender": "unisex",
	"variants": [
		{
			"id": 7,
			"product_id": 1,
			"price": "129.90",
			"stock": 5,
			"weight": 0.8,
			"sku": "SB-RED-S-L",
			"color": {"id": 1, "name": "Red", "hex_code": "#c0392b"},
			"size": {"id": 2, "name": "Small", "code": "S", "description": ""},
			"material": {"id": 3, "name": "Leather", "code": "LTH", "description": ""},
			"images": [{"id": 11, "path": "products/sb-1.jpg"}, {"id": 12, "path": "products/sb-2.jpg"}]
		}
	]
}`

const cartJSON = `{
	"items": [
		{
			"variant_id": 7,
			"product_id": 1,
			"name": "Spartan Backpack",
			"variant_label": "Red / Small / Leather",
			"image": "products/sb-1.jpg",
			"slug": "spartan-backpack",
			"sku": "SB-RED-S-L",
			"price": "129.90",
			"stock": 5,
			"weight": "0.80",
			"quantity": 2,
			"selected": true
		}
	],
	"voucher": {"code": "SUMMER25", "discount": "12.99", "valid_until": "2026-09-30T23:59:59Z"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	return c
}

func authedCtx() context.Context {
	return session.WithToken(context.Background(), "token-abc")
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://backend")
	require.Error(t, err)
}

func TestGetProduct(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/spartan-backpack", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, productJSON)
	})

	p, err := c.GetProduct(context.Background(), "spartan-backpack")
	require.NoError(t, err)

	assert.EqualValues(t, 1, p.ID)
	assert.Equal(t, "Spartan Backpack", p.Name)
	require.Len(t, p.Variants, 1)

	v := p.Variants[0]
	assert.EqualValues(t, 7, v.ID)
	assert.True(t, v.Price.Equal(decimal.RequireFromString("129.90")))
	assert.True(t, v.Weight.Equal(decimal.RequireFromString("0.8")))
	assert.Equal(t, "Red", v.Color.Name)
	assert.Equal(t, "S", v.Size.Code)
	assert.Equal(t, "LTH", v.Material.Code)
	require.Len(t, v.Images, 2)
	assert.EqualValues(t, 11, v.Images[0].ID)
}

func TestGetProduct_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestGetProduct_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"wrong field type", `{"id": "one", "slug": "x"}`},
		{"missing identity", `{"name": "x"}`},
		{
			"duplicate attribute triple",
			`{"id": 1, "slug": "x", "variants": [
				{"id": 1, "color": {"id": 1}, "size": {"id": 2}, "material": {"id": 3}},
				{"id": 2, "color": {"id": 1}, "size": {"id": 2}, "material": {"id": 3}}
			]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetProduct(context.Background(), "x")
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "product", de.Entity)
		})
	}
}

func TestFetchCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, cartJSON)
	})

	got, err := c.FetchCart(authedCtx())
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.EqualValues(t, 7, got.Items[0].VariantID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	require.NotNil(t, got.Voucher)
	assert.Equal(t, "SUMMER25", got.Voucher.Code)
	assert.True(t, got.Voucher.Amount.Equal(decimal.RequireFromString("12.99")))
	require.NotNil(t, got.Voucher.ValidUntil)
	assert.Nil(t, got.Voucher.ValidFrom)
}

func TestFetchCart_RequiresSession(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("request must not reach the backend")
	})

	_, err := c.FetchCart(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMergeCart_SendsGuestItems(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart/merge", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, cartJSON)
	})

	items := []cart.Item{{
		VariantID: 7,
		ProductID: 1,
		Price:     decimal.RequireFromString("129.90"),
		Stock:     5,
		Quantity:  2,
		Selected:  true,
	}}
	got, err := c.MergeCart(authedCtx(), items)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	sent, ok := gotBody["items"].([]any)
	require.True(t, ok)
	require.Len(t, sent, 1)
	first, ok := sent[0].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 7, first["variant_id"])
	assert.EqualValues(t, 2, first["quantity"])
	assert.Equal(t, "129.9", first["price"])
}

func TestUpdateItem_SendsQuantitySet(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/cart/items/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, cartJSON)
	})

	_, err := c.UpdateItem(authedCtx(), 7, 3, true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, gotBody["quantity"])
	assert.Equal(t, true, gotBody["selected"])
}

func TestApplyVoucher_InvalidCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message": "invalid voucher"}`)
	})

	_, err := c.ApplyVoucher(authedCtx(), "NOPE12345")
	assert.ErrorIs(t, err, voucher.ErrInvalidCode)
}

func TestStatusError_CarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message": "stock changed"}`)
	})

	_, err := c.FetchCart(authedCtx())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, "stock changed", se.Message)
}
