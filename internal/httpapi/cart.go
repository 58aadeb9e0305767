package httpapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/madebycan/storefront-api/internal/cart"
	"github.com/madebycan/storefront-api/internal/session"
)

func variantIDPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("variantID"), 10, 64)
	return id, err == nil && id > 0
}

// GetCart returns the session's cart. For an authenticated customer who
// still carries a guest cart cookie this is where the one-time merge runs.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, s.Snapshot())
}

// AddItem adds a variant to the cart. The item snapshot is built server
// side from a fresh product fetch; the client only names the variant.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "unreadable body")
		return
	}
	req, err := decodeAddItemRequest(body)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.products.GetProduct(r.Context(), req.Slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v, ok := p.VariantByID(req.VariantID)
	if !ok {
		writeErrorBody(w, http.StatusNotFound, "variant not found")
		return
	}

	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	c, err := s.AddItem(r.Context(), cart.NewItem(p, v, qty))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

// UpdateItem applies a quantity delta to a cart line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	variantID, ok := variantIDPath(r)
	if !ok {
		writeErrorBody(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "unreadable body")
		return
	}
	delta, err := decodeDeltaRequest(body)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := s.UpdateQuantity(r.Context(), variantID, delta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	variantID, ok := variantIDPath(r)
	if !ok {
		writeErrorBody(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := s.RemoveItem(r.Context(), variantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

// ToggleSelect flips a cart line's checkout selection flag.
func (h *Handler) ToggleSelect(w http.ResponseWriter, r *http.Request) {
	variantID, ok := variantIDPath(r)
	if !ok {
		writeErrorBody(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := s.ToggleSelect(r.Context(), variantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

// ToggleSelectAll selects every line, or deselects every line when all are
// already selected.
func (h *Handler) ToggleSelectAll(w http.ResponseWriter, r *http.Request) {
	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := s.ToggleSelectAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

// ApplyVoucher attaches a voucher to a synced cart. The local precheck
// rejects codes that are definitely invalid without a backend round trip;
// codes that pass it still get authoritative validation upstream.
func (h *Handler) ApplyVoucher(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "unreadable body")
		return
	}
	code, err := decodeVoucherRequest(body)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.vouchers.Check(r.Context(), code); err != nil {
		h.writeError(w, r, err)
		return
	}

	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := s.ApplyVoucher(r.Context(), code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, c)
}

// Logout drops the authenticated session's synchronizer, rotates the guest
// cookie and hands back a fresh empty guest cart. The customer's server
// cart is untouched and reappears on next login.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	guestToken := session.GuestToken(r)

	if _, ok := session.IdentityFrom(r.Context()); ok {
		key := sessionKey(r, guestToken)
		s := h.carts.Session(key, guestToken)

		newToken := uuid.NewString()
		s.Logout(r.Context(), newToken)
		h.carts.Drop(key)

		session.SetGuestCookie(w, newToken)
		writeCart(w, http.StatusOK, s.Snapshot())
		return
	}

	// Guests have no authenticated state to drop; keep their cart as is.
	s, err := h.sync(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, s.Snapshot())
}
