// Package voucher holds voucher state for synced carts and a local
// precheck in front of the authoritative backend validation.
package voucher

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCode is returned when a voucher code is malformed or not
	// part of the known code corpus.
	ErrInvalidCode = errors.New("invalid voucher code")
	// ErrExpired is returned when a voucher is outside its validity window.
	ErrExpired = errors.New("voucher expired")
)

// Applied is a voucher attached to a synced cart. The discount amount is
// computed by the backend; the client never recomputes it. Guest carts
// carry no voucher state.
type Applied struct {
	Code       string
	Amount     decimal.Decimal
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

// Active reports whether the voucher is inside its validity window at the
// given instant. Open-ended windows are treated as always valid on that
// side.
func (a *Applied) Active(now time.Time) bool {
	if a.ValidFrom != nil && now.Before(*a.ValidFrom) {
		return false
	}
	if a.ValidUntil != nil && now.After(*a.ValidUntil) {
		return false
	}
	return true
}
