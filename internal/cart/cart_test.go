package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madebycan/storefront-api/internal/catalog"
)

func testItem(variantID int64, qty, stock int, price string) Item {
	return Item{
		VariantID: variantID,
		ProductID: 1,
		Name:      "Spartan Backpack",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Quantity:  qty,
		Selected:  true,
	}
}

func TestCart_AddIsIdempotentPerVariant(t *testing.T) {
	var c Cart

	require.NoError(t, c.add(testItem(7, 1, 10, "10.00")))
	require.NoError(t, c.add(testItem(7, 1, 10, "10.00")))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 2, c.TotalItems())
}

func TestCart_AddClampsToStock(t *testing.T) {
	var c Cart

	require.NoError(t, c.add(testItem(7, 2, 3, "10.00")))
	require.NoError(t, c.add(testItem(7, 5, 3, "10.00")))

	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestCart_AddValidation(t *testing.T) {
	var c Cart

	assert.ErrorIs(t, c.add(testItem(7, 0, 10, "10.00")), ErrInvalidQuantity)
	assert.ErrorIs(t, c.add(testItem(7, 1, 0, "10.00")), ErrOutOfStock)
	assert.Empty(t, c.Items)
}

func TestCart_QuantityClamp(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		stock int
		want  int
	}{
		{"increment", 1, 1, 10, 2},
		{"decrement", 3, -1, 10, 2},
		{"never below one", 1, -5, 10, 1},
		{"never above stock", 4, 100, 5, 5},
		{"zero delta", 2, 0, 10, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Cart{Items: []Item{testItem(7, tt.start, tt.stock, "10.00")}}
			require.NoError(t, c.applyDelta(7, tt.delta))
			assert.Equal(t, tt.want, c.Items[0].Quantity)
		})
	}
}

func TestCart_ApplyDeltaUnknownVariant(t *testing.T) {
	var c Cart
	assert.ErrorIs(t, c.applyDelta(7, 1), ErrItemNotFound)
}

func TestCart_Remove(t *testing.T) {
	c := Cart{Items: []Item{testItem(7, 2, 10, "10.00")}}

	require.NoError(t, c.remove(7))
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.TotalItems())

	assert.ErrorIs(t, c.remove(7), ErrItemNotFound)
}

func TestCart_ToggleSelect(t *testing.T) {
	c := Cart{Items: []Item{testItem(7, 1, 10, "10.00")}}

	require.NoError(t, c.toggleSelect(7))
	assert.False(t, c.Items[0].Selected)
	require.NoError(t, c.toggleSelect(7))
	assert.True(t, c.Items[0].Selected)

	assert.ErrorIs(t, c.toggleSelect(8), ErrItemNotFound)
}

func TestCart_ToggleSelectAll(t *testing.T) {
	c := Cart{Items: []Item{
		testItem(7, 1, 10, "10.00"),
		testItem(8, 1, 10, "20.00"),
	}}
	c.Items[1].Selected = false

	// Mixed selection: select everything first.
	c.toggleSelectAll()
	assert.True(t, c.Items[0].Selected)
	assert.True(t, c.Items[1].Selected)

	// All selected: deselect everything.
	c.toggleSelectAll()
	assert.False(t, c.Items[0].Selected)
	assert.False(t, c.Items[1].Selected)
}

func TestCart_Totals(t *testing.T) {
	c := Cart{Items: []Item{
		testItem(7, 2, 10, "10.50"),
		testItem(8, 1, 10, "5.00"),
		testItem(9, 3, 10, "1.00"),
	}}
	c.Items[2].Selected = false

	// TotalItems counts everything, SelectedSubtotal only selected lines.
	assert.Equal(t, 6, c.TotalItems())
	assert.True(t, c.SelectedSubtotal().Equal(decimal.RequireFromString("26.00")),
		"got %s", c.SelectedSubtotal())
}

func TestCart_TotalsOnValueCopy(t *testing.T) {
	c := Cart{Items: []Item{testItem(7, 2, 10, "10.50")}}

	// Totals are pure reads, callable on an rvalue such as a Snapshot return.
	assert.Equal(t, 2, c.Clone().TotalItems())
	assert.True(t, c.Clone().SelectedSubtotal().Equal(decimal.RequireFromString("21.00")))
}

func TestCart_CloneIsDeep(t *testing.T) {
	c := Cart{Items: []Item{testItem(7, 1, 10, "10.00")}, Mode: ModeGuest}

	clone := c.Clone()
	clone.Items[0].Quantity = 99

	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestNewItem_SnapshotsVariant(t *testing.T) {
	p := &catalog.Product{
		ID:   1,
		Slug: "spartan-backpack",
		Name: "Spartan Backpack",
	}
	v := &catalog.Variant{
		ID:       7,
		Color:    catalog.Color{ID: 1, Name: "Red"},
		Size:     catalog.Size{ID: 2, Name: "Small"},
		Material: catalog.Material{ID: 3, Name: "Leather"},
		Price:    decimal.RequireFromString("129.90"),
		Stock:    5,
		Weight:   decimal.RequireFromString("0.80"),
		SKU:      "SB-RED-S-L",
		Images:   []catalog.VariantImage{{ID: 11, Path: "products/sb-1.jpg"}},
	}

	item := NewItem(p, v, 2)

	assert.EqualValues(t, 7, item.VariantID)
	assert.EqualValues(t, 1, item.ProductID)
	assert.Equal(t, "Red / Small / Leather", item.VariantLabel)
	assert.Equal(t, "products/sb-1.jpg", item.Image)
	assert.Equal(t, "SB-RED-S-L", item.SKU)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.Selected)
}
