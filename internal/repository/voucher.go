package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/madebycan/storefront-api/internal/voucher"
)

const (
	listVoucherCodesSQL = `SELECT code FROM voucher_codes`

	voucherCodeExistsSQL = `SELECT EXISTS(SELECT 1 FROM voucher_codes WHERE code = $1)`

	insertVoucherCodeSQL = `INSERT INTO voucher_codes (code) VALUES ($1) ON CONFLICT DO NOTHING`
)

var _ voucher.CodeRepository = (*VoucherCodeRepository)(nil)

// VoucherCodeRepository stores the ingested voucher code corpus that backs
// the precheck bloom filter.
type VoucherCodeRepository struct {
	pool *pgxpool.Pool
}

// NewVoucherCodeRepository returns a VoucherCodeRepository using the given
// pool.
func NewVoucherCodeRepository(pool *pgxpool.Pool) *VoucherCodeRepository {
	return &VoucherCodeRepository{pool: pool}
}

// ListCodes streams every known code to fn. Used once at startup to warm
// the bloom filter.
func (r *VoucherCodeRepository) ListCodes(ctx context.Context, fn func(code string) error) error {
	rows, err := r.pool.Query(ctx, listVoucherCodesSQL)
	if err != nil {
		return fmt.Errorf("listing voucher codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return fmt.Errorf("scanning voucher code: %w", err)
		}
		if err := fn(code); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating voucher codes: %w", err)
	}
	return nil
}

// Exists reports whether the exact code is part of the corpus.
func (r *VoucherCodeRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, voucherCodeExistsSQL, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking voucher code: %w", err)
	}
	return exists, nil
}

// InsertBatch writes a batch of codes, skipping duplicates. Returns the
// number of rows actually inserted.
func (r *VoucherCodeRepository) InsertBatch(ctx context.Context, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, code := range codes {
		batch.Queue(insertVoucherCodeSQL, code)
	}

	res := r.pool.SendBatch(ctx, batch)
	defer res.Close()

	var inserted int64
	for range codes {
		tag, err := res.Exec()
		if err != nil {
			return inserted, fmt.Errorf("inserting voucher codes: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
