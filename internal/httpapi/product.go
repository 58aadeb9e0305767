package httpapi

import (
	"net/http"

	"github.com/madebycan/storefront-api/internal/variant"
)

// GetProduct returns the product with its default selection: the first
// variant anchors the initial color, size, material and main image.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	p, err := h.products.GetProduct(r.Context(), slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sel := variant.New(p)
	writeProduct(w, p, sel.View(), sel)
}

// ResolveSelection replays the client's current selection against the
// product's variant matrix and applies one attribute pick on top. The
// resolver corrects dependent attributes so the response never points at a
// nonexistent variant.
func (h *Handler) ResolveSelection(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	body, err := readBody(r)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "unreadable body")
		return
	}
	req, err := decodeSelectionRequest(body)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.GetProduct(r.Context(), slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The incoming triple is untrusted: a stale tab can reference variants
	// that no longer exist. Restore falls back to the default selection.
	sel := variant.Restore(p, req.ColorID, req.SizeID, req.MaterialID, req.ImageID)

	switch req.Select {
	case "color":
		sel.SelectColor(req.Value)
	case "size":
		sel.SelectSize(req.Value)
	case "material":
		sel.SelectMaterial(req.Value)
	case "image":
		sel.SelectImage(req.Value)
	}

	writeSelection(w, sel.View(), sel)
}
