package httpapi

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Request bodies are small; this bound exists so a misbehaving client
// cannot make the gateway buffer arbitrary amounts.
const maxRequestBody = 1 << 20

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
}

type selectionRequest struct {
	ColorID    int64
	SizeID     int64
	MaterialID int64
	ImageID    int64

	// Select names the single attribute pick this request applies, one of
	// "color", "size", "material", "image", or "" for a plain restore.
	Select string
	Value  int64
}

func decodeSelectionRequest(data []byte) (selectionRequest, error) {
	var req selectionRequest
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "color_id":
			req.ColorID, err = d.Int64()
		case "size_id":
			req.SizeID, err = d.Int64()
		case "material_id":
			req.MaterialID, err = d.Int64()
		case "image_id":
			req.ImageID, err = d.Int64()
		case "select":
			req.Select, err = d.Str()
		case "value":
			req.Value, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return req, errors.Wrap(err, "decode selection request")
	}

	switch req.Select {
	case "", "color", "size", "material", "image":
	default:
		return req, errors.Errorf("unknown selection attribute %q", req.Select)
	}
	return req, nil
}

type addItemRequest struct {
	Slug      string
	VariantID int64
	Quantity  int
}

func decodeAddItemRequest(data []byte) (addItemRequest, error) {
	var req addItemRequest
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "slug":
			req.Slug, err = d.Str()
		case "variant_id":
			req.VariantID, err = d.Int64()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return req, errors.Wrap(err, "decode add item request")
	}
	if req.Slug == "" {
		return req, errors.New("slug required")
	}
	if req.VariantID <= 0 {
		return req, errors.New("variant_id required")
	}
	return req, nil
}

func decodeDeltaRequest(data []byte) (int, error) {
	var delta int
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "delta":
			delta, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return 0, errors.Wrap(err, "decode quantity request")
	}
	if delta == 0 {
		return 0, errors.New("delta must be non-zero")
	}
	return delta, nil
}

func decodeVoucherRequest(data []byte) (string, error) {
	var code string
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			code, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return "", errors.Wrap(err, "decode voucher request")
	}
	if code == "" {
		return "", errors.New("code required")
	}
	return code, nil
}
