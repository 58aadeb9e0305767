// Package catalog holds the storefront's view of the product catalog as
// delivered by the commerce backend: products with their full variant
// matrix (color, size, material), prices, stock and images.
package catalog

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a requested product does not exist
// upstream.
var ErrProductNotFound = errors.New("product not found")

// Color is a shared color attribute. The same Color value appears on every
// variant of a product that carries it.
type Color struct {
	ID   int64
	Name string
	Hex  string
}

// Size is a shared size attribute.
type Size struct {
	ID          int64
	Name        string
	Code        string
	Description string
}

// Material is a shared material attribute.
type Material struct {
	ID          int64
	Name        string
	Code        string
	Description string
}

// VariantImage is owned by exactly one variant. The first image in a
// variant's list is its default display image.
type VariantImage struct {
	ID   int64
	Path string
}

// Variant is a purchasable (color, size, material) combination of a product.
// Within one product the attribute triple is unique across variants.
type Variant struct {
	ID        int64
	ProductID int64
	Color     Color
	Size      Size
	Material  Material
	Price     decimal.Decimal
	Stock     int
	Weight    decimal.Decimal
	SKU       string
	Images    []VariantImage
}

// HasImage reports whether the image with the given ID belongs to this
// variant.
func (v *Variant) HasImage(imageID int64) bool {
	for _, img := range v.Images {
		if img.ID == imageID {
			return true
		}
	}
	return false
}

// FirstImage returns the variant's default display image, or nil when the
// variant has no images.
func (v *Variant) FirstImage() *VariantImage {
	if len(v.Images) == 0 {
		return nil
	}
	return &v.Images[0]
}

// Label renders the human-readable attribute triple, e.g. "Red / S / Leather".
func (v *Variant) Label() string {
	return v.Color.Name + " / " + v.Size.Name + " / " + v.Material.Name
}

// Product is a catalog item with its ordered variant list. Variant order is
// significant: the first variant is the storefront's default selection.
type Product struct {
	ID          int64
	Slug        string
	Name        string
	Category    string
	Description string
	Gender      string
	Variants    []Variant
}

// FindVariant returns the variant matching the attribute triple exactly.
// The composite key (color, size, material) is unique per product, so at
// most one variant can match.
func (p *Product) FindVariant(colorID, sizeID, materialID int64) (*Variant, bool) {
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.Color.ID == colorID && v.Size.ID == sizeID && v.Material.ID == materialID {
			return v, true
		}
	}
	return nil, false
}

// VariantByID returns the variant with the given ID.
func (p *Product) VariantByID(id int64) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// Validate checks the composite-key invariant: the (color, size, material)
// triple must be unique across the product's variants. Payloads violating it
// are rejected at the parse boundary.
func (p *Product) Validate() error {
	type key struct{ c, s, m int64 }
	seen := make(map[key]int64, len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		k := key{v.Color.ID, v.Size.ID, v.Material.ID}
		if prev, ok := seen[k]; ok {
			return errors.Errorf(
				"product %d: variants %d and %d share attribute triple (%d, %d, %d)",
				p.ID, prev, v.ID, k.c, k.s, k.m,
			)
		}
		seen[k] = v.ID
	}
	return nil
}
