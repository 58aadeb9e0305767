package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/madebycan/storefront-api/internal/cart"
)

const (
	loadGuestCartSQL = `SELECT items FROM guest_carts WHERE token = $1`

	saveGuestCartSQL = `INSERT INTO guest_carts (token, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`

	clearGuestCartSQL = `DELETE FROM guest_carts WHERE token = $1`
)

var _ cart.GuestStore = (*GuestCartRepository)(nil)

// GuestCartRepository implements cart.GuestStore backed by PostgreSQL. Each
// guest cart is one row keyed by the guest cookie token, with the item list
// serialized into a JSONB column.
type GuestCartRepository struct {
	pool *pgxpool.Pool
}

// NewGuestCartRepository returns a GuestCartRepository that uses the given
// pool.
func NewGuestCartRepository(pool *pgxpool.Pool) *GuestCartRepository {
	return &GuestCartRepository{pool: pool}
}

// Load returns the stored items for the token. Unknown tokens yield an
// empty cart.
func (r *GuestCartRepository) Load(ctx context.Context, token string) ([]cart.Item, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, loadGuestCartSQL, token).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading guest cart %q: %w", token, err)
	}

	var items []cart.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling guest cart %q: %w", token, err)
	}
	return items, nil
}

// Save upserts the token's cart row with the full item list.
func (r *GuestCartRepository) Save(ctx context.Context, token string, items []cart.Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling guest cart %q: %w", token, err)
	}

	if _, err := r.pool.Exec(ctx, saveGuestCartSQL, token, raw); err != nil {
		return fmt.Errorf("saving guest cart %q: %w", token, err)
	}
	return nil
}

// Clear drops the token's cart row. Clearing an unknown token is not an
// error.
func (r *GuestCartRepository) Clear(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, clearGuestCartSQL, token); err != nil {
		return fmt.Errorf("clearing guest cart %q: %w", token, err)
	}
	return nil
}

// DeleteStale removes guest carts untouched for the given interval, and
// returns how many were dropped. Run periodically so abandoned carts don't
// accumulate forever.
func (r *GuestCartRepository) DeleteStale(ctx context.Context, interval string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM guest_carts WHERE updated_at < now() - $1::interval`, interval)
	if err != nil {
		return 0, fmt.Errorf("deleting stale guest carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
