// Package variant implements the dependent-filtering selection engine for
// product variants.
//
// A Selection tracks the current (color, size, material) picks for one
// product view. Color is the primary axis: switching it re-anchors size and
// material to a known-good variant so the selection never lands on a
// combination that does not exist. All operations are synchronous and pure;
// the package never touches the network.
package variant

import (
	"github.com/madebycan/storefront-api/internal/catalog"
)

// Selection holds the current attribute picks for a single product view.
// The zero selection (no product, nothing picked) is valid and resolves to
// no variant.
type Selection struct {
	product *catalog.Product

	colorID     int64
	sizeID      int64
	materialID  int64
	mainImageID int64
}

// New initializes a selection from the product's first variant, matching the
// storefront default. Products with no variants yield an empty selection
// that never resolves; callers render that as "unavailable", not as loading.
func New(p *catalog.Product) *Selection {
	s := &Selection{product: p}
	if p == nil || len(p.Variants) == 0 {
		return s
	}
	s.anchorTo(&p.Variants[0])
	return s
}

// Restore rebuilds a selection from a client-supplied attribute triple and
// optional image pick. The triple is untrusted: when it is not an exact row
// of the product's variant list the selection falls back to the default
// (first variant), never to an invalid combination.
func Restore(p *catalog.Product, colorID, sizeID, materialID, imageID int64) *Selection {
	if p == nil {
		return New(nil)
	}
	v, ok := p.FindVariant(colorID, sizeID, materialID)
	if !ok {
		return New(p)
	}

	s := &Selection{product: p}
	s.anchorTo(v)
	if imageID != 0 && v.HasImage(imageID) {
		s.mainImageID = imageID
	}
	return s
}

// anchorTo sets the attribute triple to the given variant's and applies the
// main-image policy for the (possibly) new variant.
func (s *Selection) anchorTo(v *catalog.Variant) {
	s.colorID = v.Color.ID
	s.sizeID = v.Size.ID
	s.materialID = v.Material.ID
	s.syncMainImage()
}

// syncMainImage resets the main image to the selected variant's first image
// unless the current pick still belongs to that variant. Images are owned by
// exactly one variant, so "still belongs" doubles as the variant-identity
// check: a manual thumbnail pick survives re-derivations that do not change
// the variant.
func (s *Selection) syncMainImage() {
	v, ok := s.resolve()
	if !ok {
		s.mainImageID = 0
		return
	}
	if s.mainImageID != 0 && v.HasImage(s.mainImageID) {
		return
	}
	if img := v.FirstImage(); img != nil {
		s.mainImageID = img.ID
	} else {
		s.mainImageID = 0
	}
}

// resolve returns the variant matching the current triple, if any.
func (s *Selection) resolve() (*catalog.Variant, bool) {
	if s.product == nil {
		return nil, false
	}
	return s.product.FindVariant(s.colorID, s.sizeID, s.materialID)
}

// SelectColor switches the primary axis. Size and material are force-
// corrected to the first variant (in product order) carrying the new color,
// so the resulting triple is always an existing variant. Unknown color IDs
// and re-picks of the current color are no-ops.
func (s *Selection) SelectColor(colorID int64) {
	if s.product == nil || colorID == s.colorID {
		return
	}
	for i := range s.product.Variants {
		v := &s.product.Variants[i]
		if v.Color.ID == colorID {
			s.anchorTo(v)
			return
		}
	}
}

// SelectSize switches the size within the current color. Material is
// corrected to the first variant matching (current color, new size); color
// is kept. No-op when the size is already selected, no color is selected,
// or no variant carries the combination.
func (s *Selection) SelectSize(sizeID int64) {
	if s.product == nil || s.colorID == 0 || sizeID == s.sizeID {
		return
	}
	for i := range s.product.Variants {
		v := &s.product.Variants[i]
		if v.Color.ID == s.colorID && v.Size.ID == sizeID {
			s.anchorTo(v)
			return
		}
	}
}

// SelectMaterial sets the material directly. Material is the last axis in
// the dependency chain, so any ID offered by View().AvailableMaterialIDs is
// valid with the current color and size; anything else is rejected to keep
// the selection total.
func (s *Selection) SelectMaterial(materialID int64) {
	if s.product == nil || materialID == s.materialID {
		return
	}
	if _, ok := s.product.FindVariant(s.colorID, s.sizeID, materialID); !ok {
		return
	}
	s.materialID = materialID
	s.syncMainImage()
}

// SelectImage records a manual thumbnail pick. Picks outside the selected
// variant's image set are ignored.
func (s *Selection) SelectImage(imageID int64) {
	v, ok := s.resolve()
	if !ok || !v.HasImage(imageID) {
		return
	}
	s.mainImageID = imageID
}

// ColorID returns the currently selected color ID (0 when unset).
func (s *Selection) ColorID() int64 { return s.colorID }

// SizeID returns the currently selected size ID (0 when unset).
func (s *Selection) SizeID() int64 { return s.sizeID }

// MaterialID returns the currently selected material ID (0 when unset).
func (s *Selection) MaterialID() int64 { return s.materialID }

// MainImageID returns the current main image ID (0 when unset).
func (s *Selection) MainImageID() int64 { return s.mainImageID }

// View is the derived, render-ready projection of a selection. It is
// recomputed from scratch on every call to Selection.View and holds no
// state of its own.
type View struct {
	// Colors, Sizes and Materials list every attribute value appearing in
	// the product, in order of first appearance. They are unfiltered: the
	// storefront always shows all chips and disables the unselectable ones.
	Colors    []catalog.Color
	Sizes     []catalog.Size
	Materials []catalog.Material

	// AvailableSizeIDs are the sizes selectable given the current color.
	AvailableSizeIDs []int64
	// AvailableMaterialIDs are the materials selectable given the current
	// color and size.
	AvailableMaterialIDs []int64

	// Variant is the exactly-matching variant, or nil when the selection is
	// incomplete or the product has no variants.
	Variant *catalog.Variant

	// MainImage is the image to display, or nil.
	MainImage *catalog.VariantImage
}

// SizeAvailable reports whether the given size is selectable with the
// current color.
func (v *View) SizeAvailable(sizeID int64) bool {
	for _, id := range v.AvailableSizeIDs {
		if id == sizeID {
			return true
		}
	}
	return false
}

// MaterialAvailable reports whether the given material is selectable with
// the current color and size.
func (v *View) MaterialAvailable(materialID int64) bool {
	for _, id := range v.AvailableMaterialIDs {
		if id == materialID {
			return true
		}
	}
	return false
}

// View derives the render-ready projection of the current selection. It is
// a pure function of (product, colorID, sizeID, materialID, mainImageID).
func (s *Selection) View() View {
	var view View
	if s.product == nil {
		return view
	}

	seenColor := make(map[int64]bool)
	seenSize := make(map[int64]bool)
	seenMaterial := make(map[int64]bool)
	seenAvailSize := make(map[int64]bool)
	seenAvailMaterial := make(map[int64]bool)

	for i := range s.product.Variants {
		v := &s.product.Variants[i]

		if !seenColor[v.Color.ID] {
			seenColor[v.Color.ID] = true
			view.Colors = append(view.Colors, v.Color)
		}
		if !seenSize[v.Size.ID] {
			seenSize[v.Size.ID] = true
			view.Sizes = append(view.Sizes, v.Size)
		}
		if !seenMaterial[v.Material.ID] {
			seenMaterial[v.Material.ID] = true
			view.Materials = append(view.Materials, v.Material)
		}

		if v.Color.ID != s.colorID {
			continue
		}
		if !seenAvailSize[v.Size.ID] {
			seenAvailSize[v.Size.ID] = true
			view.AvailableSizeIDs = append(view.AvailableSizeIDs, v.Size.ID)
		}
		if v.Size.ID != s.sizeID {
			continue
		}
		if !seenAvailMaterial[v.Material.ID] {
			seenAvailMaterial[v.Material.ID] = true
			view.AvailableMaterialIDs = append(view.AvailableMaterialIDs, v.Material.ID)
		}
	}

	if v, ok := s.resolve(); ok {
		view.Variant = v
		for i := range v.Images {
			if v.Images[i].ID == s.mainImageID {
				view.MainImage = &v.Images[i]
				break
			}
		}
	}

	return view
}
