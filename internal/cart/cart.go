// Package cart is the single source of truth for storefront cart state.
//
// A cart is either guest (persisted only in the service-local guest store)
// or synced (mirroring the server-side cart of an authenticated customer).
// The Synchronizer owns all transitions between the two and is the only
// component allowed to call the backend cart endpoints.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/madebycan/storefront-api/internal/catalog"
	"github.com/madebycan/storefront-api/internal/voucher"
)

// Mode tells which store backs the cart.
type Mode string

const (
	// ModeGuest carts live only in the local guest store.
	ModeGuest Mode = "guest"
	// ModeSynced carts mirror the backend cart of an authenticated customer.
	ModeSynced Mode = "synced"
)

var (
	// ErrItemNotFound is returned when a mutation targets a variant that is
	// not in the cart.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity is returned when an item is added with a
	// non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrOutOfStock is returned when an item is added for a variant with no
	// stock.
	ErrOutOfStock = errors.New("variant is out of stock")
)

// Item is one cart line. Display fields, price, stock and weight are
// snapshots taken at add-time; the variant ID is the identity: one Item per
// distinct variant. The JSON tags double as the guest-store serialization
// format.
type Item struct {
	VariantID    int64           `json:"variant_id"`
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	VariantLabel string          `json:"variant_label"`
	Image        string          `json:"image"`
	Slug         string          `json:"slug"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Weight       decimal.Decimal `json:"weight"`
	Quantity     int             `json:"quantity"`
	Selected     bool            `json:"selected"`
}

// NewItem builds a cart line from a resolved variant, snapshotting the
// display and pricing fields the storefront needs.
func NewItem(p *catalog.Product, v *catalog.Variant, qty int) Item {
	image := ""
	if img := v.FirstImage(); img != nil {
		image = img.Path
	}
	return Item{
		VariantID:    v.ID,
		ProductID:    p.ID,
		Name:         p.Name,
		VariantLabel: v.Label(),
		Image:        image,
		Slug:         p.Slug,
		SKU:          v.SKU,
		Price:        v.Price,
		Stock:        v.Stock,
		Weight:       v.Weight,
		Quantity:     qty,
		Selected:     true,
	}
}

// Cart is an ordered collection of items plus the mode flag. A voucher is
// only ever present on synced carts.
type Cart struct {
	Items   []Item
	Mode    Mode
	Voucher *voucher.Applied
}

// TotalItems sums quantities across all items, selected or not. Recomputed
// on every call, never cached.
func (c Cart) TotalItems() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// SelectedSubtotal sums price x quantity over the selected items.
func (c Cart) SelectedSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range c.Items {
		it := &c.Items[i]
		if !it.Selected {
			continue
		}
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Clone returns a deep copy, used for optimistic-mutation snapshots.
func (c *Cart) Clone() Cart {
	out := Cart{Mode: c.Mode}
	if c.Items != nil {
		out.Items = make([]Item, len(c.Items))
		copy(out.Items, c.Items)
	}
	if c.Voucher != nil {
		v := *c.Voucher
		out.Voucher = &v
	}
	return out
}

// find returns the item with the given variant ID.
func (c *Cart) find(variantID int64) (*Item, bool) {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// add applies the idempotent-add rule: an existing line for the variant
// gets its quantity incremented (clamped to stock), otherwise the item is
// appended with Selected defaulting to true.
func (c *Cart) add(item Item) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.Stock < 1 {
		return ErrOutOfStock
	}

	if existing, ok := c.find(item.VariantID); ok {
		existing.Quantity = clampQuantity(existing.Quantity+item.Quantity, existing.Stock)
		return nil
	}

	item.Quantity = clampQuantity(item.Quantity, item.Stock)
	item.Selected = true
	c.Items = append(c.Items, item)
	return nil
}

// applyDelta adjusts an item's quantity by delta, clamped to [1, stock].
// It never removes the line; removal is an explicit operation.
func (c *Cart) applyDelta(variantID int64, delta int) error {
	item, ok := c.find(variantID)
	if !ok {
		return ErrItemNotFound
	}
	item.Quantity = clampQuantity(item.Quantity+delta, item.Stock)
	return nil
}

// remove drops the line for the given variant.
func (c *Cart) remove(variantID int64) error {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// toggleSelect flips one item's checkout-selection flag.
func (c *Cart) toggleSelect(variantID int64) error {
	item, ok := c.find(variantID)
	if !ok {
		return ErrItemNotFound
	}
	item.Selected = !item.Selected
	return nil
}

// toggleSelectAll selects every item unless all are already selected, in
// which case it deselects them.
func (c *Cart) toggleSelectAll() {
	all := true
	for i := range c.Items {
		if !c.Items[i].Selected {
			all = false
			break
		}
	}
	for i := range c.Items {
		c.Items[i].Selected = !all
	}
}

// clampQuantity bounds q to [1, stock]. Stock snapshots below 1 still clamp
// the upper bound to 1 so a line never reaches zero through a quantity op.
func clampQuantity(q, stock int) int {
	if stock >= 1 && q > stock {
		q = stock
	}
	if q < 1 {
		q = 1
	}
	return q
}
