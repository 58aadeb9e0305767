package voucher

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

// Voucher code format constraints, shared with the ingest tool.
const (
	MinCodeLen = 8
	MaxCodeLen = 10
)

const (
	bloomFPR = 0.001

	// precheckCapacity sizes the serving bloom filter. The ingested
	// corpus after consensus filtering is far below this; oversizing
	// only costs memory, undersizing raises the false positive rate.
	precheckCapacity = 1_000_000
)

// CodeRepository provides access to the ingested voucher code corpus.
// ListCodes streams the corpus through fn so it is never materialized; the
// dumps it is ingested from run to hundreds of millions of lines.
type CodeRepository interface {
	ListCodes(ctx context.Context, fn func(code string) error) error
	Exists(ctx context.Context, code string) (bool, error)
}

// Prechecker rejects obviously invalid voucher codes before the backend is
// asked to apply them. A bloom filter built from the ingested corpus
// answers the common miss case without touching storage; filter hits are
// confirmed against the repository because of false positives. The backend
// stays authoritative for everything the precheck lets through.
type Prechecker struct {
	filter *bloom.BloomFilter
	repo   CodeRepository
}

// NewPrechecker builds a Prechecker, loading every known code into the
// bloom filter. An empty corpus yields a prechecker that rejects all codes.
func NewPrechecker(ctx context.Context, repo CodeRepository) (*Prechecker, error) {
	filter := bloom.NewWithEstimates(precheckCapacity, bloomFPR)
	err := repo.ListCodes(ctx, func(code string) error {
		filter.AddString(code)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list voucher codes")
	}

	return &Prechecker{filter: filter, repo: repo}, nil
}

// Check returns nil when the code may be valid and should be sent upstream,
// or ErrInvalidCode when it is definitely not.
func (p *Prechecker) Check(ctx context.Context, code string) error {
	if !ValidFormat(code) {
		return ErrInvalidCode
	}
	if !p.filter.TestString(code) {
		return ErrInvalidCode
	}

	ok, err := p.repo.Exists(ctx, code)
	if err != nil {
		return errors.Wrap(err, "confirm voucher code")
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// ValidFormat reports whether the code matches the voucher code shape:
// 8-10 uppercase letters or digits.
func ValidFormat(code string) bool {
	if len(code) < MinCodeLen || len(code) > MaxCodeLen {
		return false
	}
	for i := range len(code) {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
