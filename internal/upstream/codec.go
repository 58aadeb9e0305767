package upstream

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/madebycan/storefront-api/internal/cart"
	"github.com/madebycan/storefront-api/internal/catalog"
	"github.com/madebycan/storefront-api/internal/voucher"
)

// The backend speaks plain JSON-over-HTTP. Decoders below are strict about
// the fields they know (a type mismatch fails the whole payload) and skip
// unknown keys so additive backend changes don't break the storefront.

// decodeDecimal accepts both JSON numbers and string-encoded numbers, which
// is how the backend serializes its DECIMAL columns.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for decimal value", d.Next())
	}
}

// decodeOptTime parses a nullable RFC 3339 timestamp.
func decodeOptTime(d *jx.Decoder) (*time.Time, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errors.Wrap(err, "parse timestamp")
	}
	return &ts, nil
}

func decodeProduct(data []byte) (*catalog.Product, error) {
	var p catalog.Product
	d := jx.DecodeBytes(data)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "slug":
			p.Slug, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "gender":
			p.Gender, err = d.Str()
		case "variants":
			err = d.Arr(func(d *jx.Decoder) error {
				v, verr := decodeVariant(d)
				if verr != nil {
					return verr
				}
				p.Variants = append(p.Variants, v)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, &DecodeError{Entity: "product", Err: err}
	}
	if p.ID == 0 || p.Slug == "" {
		return nil, &DecodeError{Entity: "product", Err: errors.New("missing id or slug")}
	}
	if err := p.Validate(); err != nil {
		return nil, &DecodeError{Entity: "product", Err: err}
	}
	return &p, nil
}

func decodeVariant(d *jx.Decoder) (catalog.Variant, error) {
	var v catalog.Variant
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			v.ID, err = d.Int64()
		case "product_id":
			v.ProductID, err = d.Int64()
		case "price":
			v.Price, err = decodeDecimal(d)
		case "stock":
			v.Stock, err = d.Int()
		case "weight":
			v.Weight, err = decodeDecimal(d)
		case "sku":
			v.SKU, err = d.Str()
		case "color":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "id":
					v.Color.ID, err = d.Int64()
				case "name":
					v.Color.Name, err = d.Str()
				case "hex_code":
					v.Color.Hex, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		case "size":
			v.Size, err = decodeAttribute(d)
		case "material":
			m, merr := decodeAttribute(d)
			v.Material = catalog.Material(m)
			err = merr
		case "images":
			err = d.Arr(func(d *jx.Decoder) error {
				var img catalog.VariantImage
				ierr := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "id":
						img.ID, err = d.Int64()
					case "path":
						img.Path, err = d.Str()
					default:
						err = d.Skip()
					}
					return err
				})
				if ierr != nil {
					return ierr
				}
				v.Images = append(v.Images, img)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return v, err
	}
	if v.ID == 0 {
		return v, errors.New("variant missing id")
	}
	return v, nil
}

// decodeAttribute handles the size/material shape; both carry the same
// (id, name, code, description) fields.
func decodeAttribute(d *jx.Decoder) (catalog.Size, error) {
	var a catalog.Size
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			a.ID, err = d.Int64()
		case "name":
			a.Name, err = d.Str()
		case "code":
			a.Code, err = d.Str()
		case "description":
			a.Description, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return a, err
}

func decodeCart(data []byte) (*cart.Cart, error) {
	var c cart.Cart
	d := jx.DecodeBytes(data)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeCartItem(d)
				if err != nil {
					return err
				}
				c.Items = append(c.Items, item)
				return nil
			})
		case "voucher":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := decodeVoucher(d)
			if err != nil {
				return err
			}
			c.Voucher = v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, &DecodeError{Entity: "cart", Err: err}
	}
	return &c, nil
}

func decodeCartItem(d *jx.Decoder) (cart.Item, error) {
	var it cart.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "variant_id":
			it.VariantID, err = d.Int64()
		case "product_id":
			it.ProductID, err = d.Int64()
		case "name":
			it.Name, err = d.Str()
		case "variant_label":
			it.VariantLabel, err = d.Str()
		case "image":
			it.Image, err = d.Str()
		case "slug":
			it.Slug, err = d.Str()
		case "sku":
			it.SKU, err = d.Str()
		case "price":
			it.Price, err = decodeDecimal(d)
		case "stock":
			it.Stock, err = d.Int()
		case "weight":
			it.Weight, err = decodeDecimal(d)
		case "quantity":
			it.Quantity, err = d.Int()
		case "selected":
			it.Selected, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return it, err
	}
	if it.VariantID == 0 {
		return it, errors.New("cart item missing variant_id")
	}
	return it, nil
}

func decodeVoucher(d *jx.Decoder) (*voucher.Applied, error) {
	var v voucher.Applied
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			v.Code, err = d.Str()
		case "discount":
			v.Amount, err = decodeDecimal(d)
		case "valid_from":
			v.ValidFrom, err = decodeOptTime(d)
		case "valid_until":
			v.ValidUntil, err = decodeOptTime(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeMessage best-effort extracts the backend's error message from a
// non-2xx body.
func decodeMessage(data []byte) string {
	var msg string
	d := jx.DecodeBytes(data)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key == "message" || key == "error" {
			s, err := d.Str()
			if err != nil {
				return err
			}
			if msg == "" {
				msg = s
			}
			return nil
		}
		return d.Skip()
	})
	return msg
}

// --- Request encoding ---

func encodeCartItem(e *jx.Encoder, it cart.Item) {
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
	e.FieldStart("weight")
	e.Str(it.Weight.String())
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("selected")
	e.Bool(it.Selected)
	e.ObjEnd()
}

func encodeMergeRequest(items []cart.Item) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range items {
		encodeCartItem(&e, it)
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

func encodeAddItemRequest(it cart.Item) []byte {
	var e jx.Encoder
	encodeCartItem(&e, it)
	return e.Bytes()
}

func encodeUpdateItemRequest(quantity int, selected bool) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("quantity")
	e.Int(quantity)
	e.FieldStart("selected")
	e.Bool(selected)
	e.ObjEnd()
	return e.Bytes()
}

func encodeSelectAllRequest(selected bool) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("selected")
	e.Bool(selected)
	e.ObjEnd()
	return e.Bytes()
}

func encodeVoucherRequest(code string) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Str(code)
	e.ObjEnd()
	return e.Bytes()
}
