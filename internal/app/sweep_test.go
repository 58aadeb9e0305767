package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type fakeStaleDeleter struct {
	mu        sync.Mutex
	calls     []string
	deleted   int64
	deleteErr error
}

func (f *fakeStaleDeleter) DeleteStale(_ context.Context, interval string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, interval)
	return f.deleted, f.deleteErr
}

func (f *fakeStaleDeleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSweepGuestCarts_PassesRetentionInterval(t *testing.T) {
	store := &fakeStaleDeleter{deleted: 3}
	sweepGuestCarts(context.Background(), zaptest.NewLogger(t), store, 30*24*time.Hour)

	assert.Equal(t, []string{"2592000 seconds"}, store.calls)
}

func TestSweepGuestCarts_ErrorDoesNotPanic(t *testing.T) {
	store := &fakeStaleDeleter{deleteErr: errors.New("db down")}
	sweepGuestCarts(context.Background(), zaptest.NewLogger(t), store, time.Hour)

	assert.Len(t, store.calls, 1)
}

func TestStartGuestCartSweep_TicksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeStaleDeleter{}
	startGuestCartSweep(ctx, zaptest.NewLogger(t), store, 5*time.Millisecond, time.Hour)

	assert.Eventually(t, func() bool {
		return store.callCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestPgInterval(t *testing.T) {
	assert.Equal(t, "3600 seconds", pgInterval(time.Hour))
	assert.Equal(t, "90 seconds", pgInterval(90*time.Second))
}
