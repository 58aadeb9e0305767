package httpapi

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/madebycan/storefront-api/internal/cart"
	"github.com/madebycan/storefront-api/internal/catalog"
	"github.com/madebycan/storefront-api/internal/variant"
)

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeErrorBody(w http.ResponseWriter, status int, message string) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, e)
}

func writeCart(w http.ResponseWriter, status int, c cart.Cart) {
	e := &jx.Encoder{}
	encodeCart(e, c)
	writeJSON(w, status, e)
}

func encodeCart(e *jx.Encoder, c cart.Cart) {
	e.ObjStart()
	e.FieldStart("mode")
	e.Str(string(c.Mode))
	e.FieldStart("total_items")
	e.Int(c.TotalItems())
	e.FieldStart("selected_subtotal")
	e.Str(c.SelectedSubtotal().String())
	e.FieldStart("items")
	e.ArrStart()
	for i := range c.Items {
		encodeCartItem(e, &c.Items[i])
	}
	e.ArrEnd()
	if c.Voucher != nil {
		e.FieldStart("voucher")
		e.ObjStart()
		e.FieldStart("code")
		e.Str(c.Voucher.Code)
		e.FieldStart("amount")
		e.Str(c.Voucher.Amount.String())
		e.FieldStart("active")
		e.Bool(c.Voucher.Active(time.Now()))
		e.ObjEnd()
	}
	e.ObjEnd()
}

func encodeCartItem(e *jx.Encoder, it *cart.Item) {
	e.ObjStart()
	e.FieldStart("variant_id")
	e.Int64(it.VariantID)
	e.FieldStart("product_id")
	e.Int64(it.ProductID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("variant_label")
	e.Str(it.VariantLabel)
	e.FieldStart("image")
	e.Str(it.Image)
	e.FieldStart("slug")
	e.Str(it.Slug)
	e.FieldStart("sku")
	e.Str(it.SKU)
	e.FieldStart("price")
	e.Str(it.Price.String())
	e.FieldStart("stock")
	e.Int(it.Stock)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("selected")
	e.Bool(it.Selected)
	e.ObjEnd()
}

func writeProduct(w http.ResponseWriter, p *catalog.Product, view variant.View, sel *variant.Selection) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("slug")
	e.Str(p.Slug)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("selection")
	encodeSelection(e, view, sel)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e)
}

func writeSelection(w http.ResponseWriter, view variant.View, sel *variant.Selection) {
	e := &jx.Encoder{}
	encodeSelection(e, view, sel)
	writeJSON(w, http.StatusOK, e)
}

// encodeSelection renders the resolver state the storefront needs to draw
// the attribute chips: every value with its enabled flag, the resolved
// variant and the main image.
func encodeSelection(e *jx.Encoder, view variant.View, sel *variant.Selection) {
	e.ObjStart()

	e.FieldStart("color_id")
	e.Int64(sel.ColorID())
	e.FieldStart("size_id")
	e.Int64(sel.SizeID())
	e.FieldStart("material_id")
	e.Int64(sel.MaterialID())

	e.FieldStart("colors")
	e.ArrStart()
	for _, c := range view.Colors {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(c.ID)
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("hex")
		e.Str(c.Hex)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("sizes")
	e.ArrStart()
	for _, s := range view.Sizes {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(s.ID)
		e.FieldStart("name")
		e.Str(s.Name)
		e.FieldStart("available")
		e.Bool(view.SizeAvailable(s.ID))
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("materials")
	e.ArrStart()
	for _, m := range view.Materials {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(m.ID)
		e.FieldStart("name")
		e.Str(m.Name)
		e.FieldStart("available")
		e.Bool(view.MaterialAvailable(m.ID))
		e.ObjEnd()
	}
	e.ArrEnd()

	if view.Variant != nil {
		e.FieldStart("variant")
		v := view.Variant
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(v.ID)
		e.FieldStart("sku")
		e.Str(v.SKU)
		e.FieldStart("price")
		e.Str(v.Price.String())
		e.FieldStart("stock")
		e.Int(v.Stock)
		e.FieldStart("images")
		e.ArrStart()
		for _, img := range v.Images {
			e.ObjStart()
			e.FieldStart("id")
			e.Int64(img.ID)
			e.FieldStart("path")
			e.Str(img.Path)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	} else {
		e.FieldStart("variant")
		e.Null()
	}

	if view.MainImage != nil {
		e.FieldStart("main_image")
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(view.MainImage.ID)
		e.FieldStart("path")
		e.Str(view.MainImage.Path)
		e.ObjEnd()
	} else {
		e.FieldStart("main_image")
		e.Null()
	}

	e.ObjEnd()
}
