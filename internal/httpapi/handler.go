// Package httpapi exposes the storefront session gateway over HTTP: the
// product selection endpoints backed by the variant resolver and the cart
// endpoints backed by the per-session synchronizer.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/madebycan/storefront-api/internal/cart"
	"github.com/madebycan/storefront-api/internal/catalog"
	"github.com/madebycan/storefront-api/internal/session"
	"github.com/madebycan/storefront-api/internal/upstream"
	"github.com/madebycan/storefront-api/internal/voucher"
)

// ProductSource fetches products from the commerce backend.
type ProductSource interface {
	GetProduct(ctx context.Context, slug string) (*catalog.Product, error)
}

// Handler serves the storefront API. Business logic lives in the injected
// domain packages; the handler does request decoding, session routing and
// error mapping.
type Handler struct {
	carts    *cart.Manager
	products ProductSource
	vouchers *voucher.Prechecker
	lg       *zap.Logger
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(carts *cart.Manager, products ProductSource, vouchers *voucher.Prechecker, lg *zap.Logger) *Handler {
	return &Handler{
		carts:    carts,
		products: products,
		vouchers: vouchers,
		lg:       lg,
	}
}

// Routes registers the API routes on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products/{slug}", h.GetProduct)
	mux.HandleFunc("POST /api/products/{slug}/selection", h.ResolveSelection)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddItem)
	mux.HandleFunc("PATCH /api/cart/items/{variantID}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{variantID}", h.RemoveItem)
	mux.HandleFunc("POST /api/cart/items/{variantID}/select", h.ToggleSelect)
	mux.HandleFunc("POST /api/cart/select-all", h.ToggleSelectAll)
	mux.HandleFunc("POST /api/cart/voucher", h.ApplyVoucher)

	mux.HandleFunc("POST /api/session/logout", h.Logout)

	return mux
}

// sessionKey derives the cart session key for the request: the user ID for
// authenticated customers, the guest cookie token otherwise.
func sessionKey(r *http.Request, guestToken string) string {
	if id, ok := session.IdentityFrom(r.Context()); ok {
		return fmt.Sprintf("user:%d", id.UserID)
	}
	return "guest:" + guestToken
}

// sync returns the request's initialized synchronizer. Guests get their
// persisted cart loaded; authenticated customers additionally get the
// one-time merge/fetch transition into synced mode. A merge failure is not
// fatal here: the guest cart stays usable and a later request retries.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) (*cart.Synchronizer, error) {
	ctx := r.Context()
	guestToken := session.EnsureGuestToken(w, r)

	s := h.carts.Session(sessionKey(r, guestToken), guestToken)
	if err := s.InitGuest(ctx); err != nil {
		return nil, err
	}

	if _, ok := session.IdentityFrom(ctx); ok {
		if err := s.Sync(ctx); err != nil && !errors.Is(err, cart.ErrSyncInProgress) {
			h.lg.Warn("cart sync failed, serving guest cart",
				zap.Error(err))
		}
	}
	return s, nil
}

// writeError maps domain errors onto HTTP status codes and writes the
// error body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *upstream.StatusError

	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		writeErrorBody(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrSyncInProgress),
		errors.Is(err, cart.ErrVoucherRequiresAccount):
		writeErrorBody(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, voucher.ErrInvalidCode):
		writeErrorBody(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, upstream.ErrNoSession):
		writeErrorBody(w, http.StatusUnauthorized, "authentication required")
	case errors.As(err, &se):
		if se.Code >= 400 && se.Code < 500 {
			writeErrorBody(w, se.Code, se.Message)
			return
		}
		h.lg.Error("backend request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeErrorBody(w, http.StatusBadGateway, "backend unavailable")
	default:
		h.lg.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeErrorBody(w, http.StatusInternalServerError, "internal error")
	}
}
