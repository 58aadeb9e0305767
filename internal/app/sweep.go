package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// staleDeleter is the slice of the guest cart repository the sweep needs.
type staleDeleter interface {
	DeleteStale(ctx context.Context, interval string) (int64, error)
}

// startGuestCartSweep launches a background goroutine that purges guest
// carts untouched for longer than retention, once per sweep interval. The
// goroutine stops when ctx is cancelled.
func startGuestCartSweep(ctx context.Context, lg *zap.Logger, store staleDeleter, every, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepGuestCarts(ctx, lg, store, retention)
			}
		}
	}()
}

func sweepGuestCarts(ctx context.Context, lg *zap.Logger, store staleDeleter, retention time.Duration) {
	deleted, err := store.DeleteStale(ctx, pgInterval(retention))
	if err != nil {
		lg.Warn("Guest cart sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		lg.Info("Purged stale guest carts", zap.Int64("deleted", deleted))
	}
}

// pgInterval renders a duration as a PostgreSQL interval literal.
func pgInterval(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}
