package variant

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madebycan/storefront-api/internal/catalog"
)

// --- Helpers ---

var (
	red  = catalog.Color{ID: 1, Name: "Red", Hex: "#c0392b"}
	blue = catalog.Color{ID: 2, Name: "Blue", Hex: "#2980b9"}

	sizeS = catalog.Size{ID: 10, Name: "Small", Code: "S"}
	sizeM = catalog.Size{ID: 11, Name: "Medium", Code: "M"}

	leather = catalog.Material{ID: 20, Name: "Leather", Code: "LTH"}
	canvas  = catalog.Material{ID: 21, Name: "Canvas", Code: "CNV"}
)

func newVariant(id int64, c catalog.Color, s catalog.Size, m catalog.Material, imageIDs ...int64) catalog.Variant {
	images := make([]catalog.VariantImage, len(imageIDs))
	for i, imgID := range imageIDs {
		images[i] = catalog.VariantImage{ID: imgID, Path: "products/img.jpg"}
	}
	return catalog.Variant{
		ID:       id,
		Color:    c,
		Size:     s,
		Material: m,
		Price:    decimal.RequireFromString("129.90"),
		Stock:    5,
		Images:   images,
	}
}

// spartanBackpack mirrors the canonical storefront example:
// {(Red,S,Leather,v1), (Red,M,Leather,v2), (Blue,S,Canvas,v3)}.
func spartanBackpack() *catalog.Product {
	return &catalog.Product{
		ID:   1,
		Slug: "spartan-backpack",
		Name: "Spartan Backpack",
		Variants: []catalog.Variant{
			newVariant(1, red, sizeS, leather, 101, 102),
			newVariant(2, red, sizeM, leather, 103),
			newVariant(3, blue, sizeS, canvas, 104),
		},
	}
}

// requireResolvesToRow asserts the selection triple is literally one row of
// the product's variant list.
func requireResolvesToRow(t *testing.T, p *catalog.Product, s *Selection) *catalog.Variant {
	t.Helper()
	v, ok := p.FindVariant(s.ColorID(), s.SizeID(), s.MaterialID())
	require.True(t, ok, "selection (%d, %d, %d) is not a variant row", s.ColorID(), s.SizeID(), s.MaterialID())
	return v
}

// --- Tests ---

func TestNew_DefaultsToFirstVariant(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	v := requireResolvesToRow(t, p, s)
	assert.EqualValues(t, 1, v.ID)
	assert.EqualValues(t, 101, s.MainImageID())
}

func TestNew_NoVariants(t *testing.T) {
	s := New(&catalog.Product{ID: 9, Slug: "empty"})

	view := s.View()
	assert.Nil(t, view.Variant)
	assert.Nil(t, view.MainImage)
	assert.Empty(t, view.Colors)
}

func TestNew_NilProduct(t *testing.T) {
	s := New(nil)

	view := s.View()
	assert.Nil(t, view.Variant)
	s.SelectColor(1)
	s.SelectSize(10)
	s.SelectMaterial(20)
	assert.Nil(t, s.View().Variant)
}

func TestSelectColor_NoDeadEnd(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	// Blue only exists as (Blue, S, Canvas): size and material must be
	// corrected together, never left at (Blue, M, Leather).
	s.SelectColor(blue.ID)

	v := requireResolvesToRow(t, p, s)
	assert.EqualValues(t, 3, v.ID)
	assert.Equal(t, sizeS.ID, s.SizeID())
	assert.Equal(t, canvas.ID, s.MaterialID())
}

func TestSelectColor_SameColorIsNoop(t *testing.T) {
	p := spartanBackpack()
	s := New(p)
	s.SelectSize(sizeM.ID)

	before := *s
	s.SelectColor(red.ID)
	assert.Equal(t, before, *s)
}

func TestSelectColor_UnknownColorIsNoop(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	s.SelectColor(999)
	v := requireResolvesToRow(t, p, s)
	assert.EqualValues(t, 1, v.ID)
}

func TestSelectSize_CorrectsMaterial(t *testing.T) {
	p := &catalog.Product{
		ID: 2,
		Variants: []catalog.Variant{
			newVariant(1, red, sizeS, leather, 101),
			newVariant(2, red, sizeM, canvas, 102),
		},
	}
	s := New(p)

	// (Red, M) only exists in canvas; material follows the size switch.
	s.SelectSize(sizeM.ID)

	v := requireResolvesToRow(t, p, s)
	assert.EqualValues(t, 2, v.ID)
	assert.Equal(t, canvas.ID, s.MaterialID())
}

func TestSelectSize_UnavailableForColorIsNoop(t *testing.T) {
	p := spartanBackpack()
	s := New(p)
	s.SelectColor(blue.ID)

	// Blue has no Medium variant.
	s.SelectSize(sizeM.ID)

	v := requireResolvesToRow(t, p, s)
	assert.EqualValues(t, 3, v.ID)
}

func TestSelectMaterial_RejectsInvalidCombination(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	// (Red, S, Canvas) is not a variant row; the pick must be rejected
	// rather than producing a nonexistent combination.
	s.SelectMaterial(canvas.ID)

	v := requireResolvesToRow(t, p, s)
	assert.EqualValues(t, 1, v.ID)
	assert.Equal(t, leather.ID, s.MaterialID())
}

func TestView_Derivations(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	view := s.View()
	require.NotNil(t, view.Variant)

	// All chips are shown regardless of the current selection.
	assert.Equal(t, []catalog.Color{red, blue}, view.Colors)
	assert.Equal(t, []catalog.Size{sizeS, sizeM}, view.Sizes)
	assert.Equal(t, []catalog.Material{leather, canvas}, view.Materials)

	// Red is selected: both sizes available, only leather within (Red, S).
	assert.Equal(t, []int64{sizeS.ID, sizeM.ID}, view.AvailableSizeIDs)
	assert.Equal(t, []int64{leather.ID}, view.AvailableMaterialIDs)
	assert.True(t, view.SizeAvailable(sizeM.ID))
	assert.False(t, view.MaterialAvailable(canvas.ID))

	s.SelectColor(blue.ID)
	view = s.View()
	assert.Equal(t, []int64{sizeS.ID}, view.AvailableSizeIDs)
	assert.Equal(t, []int64{canvas.ID}, view.AvailableMaterialIDs)
}

func TestSelection_TotalityOverPickSequences(t *testing.T) {
	p := spartanBackpack()

	// Exercise every pick in every axis order; after each step the triple
	// must be an existing variant row.
	colorIDs := []int64{red.ID, blue.ID, 999}
	sizeIDs := []int64{sizeS.ID, sizeM.ID, 999}
	materialIDs := []int64{leather.ID, canvas.ID, 999}

	for _, c := range colorIDs {
		for _, sz := range sizeIDs {
			for _, m := range materialIDs {
				s := New(p)
				s.SelectColor(c)
				requireResolvesToRow(t, p, s)
				s.SelectSize(sz)
				requireResolvesToRow(t, p, s)
				s.SelectMaterial(m)
				requireResolvesToRow(t, p, s)
			}
		}
	}
}

func TestSelection_Determinism(t *testing.T) {
	p := spartanBackpack()

	run := func() *Selection {
		s := New(p)
		s.SelectColor(blue.ID)
		s.SelectColor(red.ID)
		s.SelectSize(sizeM.ID)
		return s
	}

	first := run()
	for range 10 {
		assert.Equal(t, *first, *run())
	}
}

func TestMainImage_ResetOnVariantChange(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	s.SelectColor(blue.ID)
	assert.EqualValues(t, 104, s.MainImageID())
}

func TestMainImage_ManualPickPreserved(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	// Pick the second thumbnail of v1, then re-select attributes that keep
	// the variant unchanged: the manual pick survives.
	s.SelectImage(102)
	s.SelectColor(red.ID)
	s.SelectSize(sizeS.ID)
	assert.EqualValues(t, 102, s.MainImageID())

	// Changing the variant discards it.
	s.SelectSize(sizeM.ID)
	assert.EqualValues(t, 103, s.MainImageID())
}

func TestSelectImage_ForeignImageIgnored(t *testing.T) {
	p := spartanBackpack()
	s := New(p)

	// Image 104 belongs to v3, not to the selected v1.
	s.SelectImage(104)
	assert.EqualValues(t, 101, s.MainImageID())
}

func TestRestore(t *testing.T) {
	p := spartanBackpack()

	tests := []struct {
		name              string
		colorID, sizeID   int64
		materialID, image int64
		wantVariant       int64
		wantImage         int64
	}{
		{
			name:    "exact row restores as-is",
			colorID: blue.ID, sizeID: sizeS.ID, materialID: canvas.ID,
			wantVariant: 3, wantImage: 104,
		},
		{
			name:    "manual image pick kept when owned by the variant",
			colorID: red.ID, sizeID: sizeS.ID, materialID: leather.ID, image: 102,
			wantVariant: 1, wantImage: 102,
		},
		{
			name:    "foreign image pick dropped",
			colorID: red.ID, sizeID: sizeS.ID, materialID: leather.ID, image: 104,
			wantVariant: 1, wantImage: 101,
		},
		{
			name:    "nonexistent triple falls back to default",
			colorID: blue.ID, sizeID: sizeM.ID, materialID: leather.ID,
			wantVariant: 1, wantImage: 101,
		},
		{
			name:        "zero triple falls back to default",
			wantVariant: 1, wantImage: 101,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Restore(p, tt.colorID, tt.sizeID, tt.materialID, tt.image)
			v := requireResolvesToRow(t, p, s)
			assert.Equal(t, tt.wantVariant, v.ID)
			assert.Equal(t, tt.wantImage, s.MainImageID())
		})
	}
}
