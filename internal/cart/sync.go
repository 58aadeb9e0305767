package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// State is the synchronizer's lifecycle state.
type State int

const (
	// StateUninitialized means no cart has been loaded yet.
	StateUninitialized State = iota
	// StateGuest means the cart is backed by the local guest store.
	StateGuest
	// StateSyncing means the one-time merge/fetch against the backend is in
	// flight. Mutations are rejected until it resolves.
	StateSyncing
	// StateSynced means the cart mirrors the backend cart.
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateSyncing:
		return "syncing"
	case StateSynced:
		return "synced"
	default:
		return "uninitialized"
	}
}

var (
	// ErrSyncInProgress is returned while the merge/fetch transition is in
	// flight; the caller retries once it has resolved.
	ErrSyncInProgress = errors.New("cart sync in progress")
	// ErrNotInitialized is returned when a mutation arrives before the cart
	// has been initialized.
	ErrNotInitialized = errors.New("cart not initialized")
	// ErrVoucherRequiresAccount is returned when a voucher is applied to a
	// guest cart; voucher state only exists on synced carts.
	ErrVoucherRequiresAccount = errors.New("voucher requires an account")
)

// GuestStore durably persists guest carts between visits, keyed by the
// guest's cart token.
type GuestStore interface {
	// Load returns the stored items for the token. Unknown tokens yield an
	// empty cart, not an error.
	Load(ctx context.Context, token string) ([]Item, error)
	Save(ctx context.Context, token string, items []Item) error
	Clear(ctx context.Context, token string) error
}

// Upstream is the authenticated slice of the commerce backend the
// synchronizer talks to. Every call returns the full server cart, which
// replaces local state: the backend is authoritative for quantities, price
// revalidation and stock clamping.
type Upstream interface {
	FetchCart(ctx context.Context) (*Cart, error)
	MergeCart(ctx context.Context, items []Item) (*Cart, error)
	AddItem(ctx context.Context, item Item) (*Cart, error)
	UpdateItem(ctx context.Context, variantID int64, quantity int, selected bool) (*Cart, error)
	RemoveItem(ctx context.Context, variantID int64) (*Cart, error)
	SetSelectAll(ctx context.Context, selected bool) (*Cart, error)
	ApplyVoucher(ctx context.Context, code string) (*Cart, error)
}

// Synchronizer is the sole writer of one session's cart. It abstracts over
// guest versus synced storage so callers never branch on the mode, applies
// synced-mode mutations optimistically with snapshot rollback, and runs the
// guest-to-server merge exactly once per login transition.
//
// The mutex is held across store and upstream calls: mutations within one
// session are strictly serialized, which also implements the state-machine
// gate that keeps mutations from racing ahead of the merge.
type Synchronizer struct {
	store    GuestStore
	upstream Upstream
	lg       *zap.Logger

	mu         sync.Mutex
	state      State
	cart       Cart
	guestToken string
}

// NewSynchronizer creates an uninitialized synchronizer for one session.
// The guest token identifies the session's cart in the guest store; it may
// be empty for an authenticated session that never had a guest cart.
func NewSynchronizer(store GuestStore, upstream Upstream, guestToken string, lg *zap.Logger) *Synchronizer {
	return &Synchronizer{
		store:      store,
		upstream:   upstream,
		guestToken: guestToken,
		lg:         lg,
	}
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a deep copy of the current cart.
func (s *Synchronizer) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// InitGuest loads the persisted guest cart (or starts empty) and enters
// guest mode. It is a no-op once the synchronizer is initialized.
func (s *Synchronizer) InitGuest(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return nil
	}

	items, err := s.store.Load(ctx, s.guestToken)
	if err != nil {
		return errors.Wrap(err, "load guest cart")
	}
	s.cart = Cart{Items: items, Mode: ModeGuest}
	s.state = StateGuest
	return nil
}

// Sync runs the one-time transition into synced mode: a non-empty guest
// cart is merged into the server cart, an empty one is skipped in favor of
// a plain fetch. On success the local cart is replaced wholesale with the
// server's result and the guest storage is cleared so a stale guest cart
// cannot re-merge on a later login.
//
// On failure the guest cart is kept as the fallback state and the guest
// storage is left intact, so a later call can retry the merge. Sync is
// idempotent once synced and suppresses duplicate triggers while in flight.
func (s *Synchronizer) Sync(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateSynced:
		s.mu.Unlock()
		return nil
	case StateSyncing:
		s.mu.Unlock()
		return ErrSyncInProgress
	}

	var items []Item
	if s.state == StateGuest {
		items = s.cart.Clone().Items
	} else {
		loaded, err := s.store.Load(ctx, s.guestToken)
		if err != nil {
			s.mu.Unlock()
			return errors.Wrap(err, "load guest cart")
		}
		items = loaded
	}

	s.state = StateSyncing
	s.mu.Unlock()

	var (
		server *Cart
		err    error
	)
	if len(items) == 0 {
		server, err = s.upstream.FetchCart(ctx)
	} else {
		server, err = s.upstream.MergeCart(ctx, items)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateGuest
		s.cart = Cart{Items: items, Mode: ModeGuest}
		s.lg.Warn("cart sync failed, keeping guest cart", zap.Error(err))
		return errors.Wrap(err, "sync cart")
	}

	server.Mode = ModeSynced
	s.cart = *server
	s.state = StateSynced

	if len(items) > 0 && s.guestToken != "" {
		if cerr := s.store.Clear(ctx, s.guestToken); cerr != nil {
			// The merge itself succeeded; a stale guest cart may re-merge on
			// a future login, which the server resolves again.
			s.lg.Warn("guest cart clear failed after merge", zap.Error(cerr))
		}
	}
	return nil
}

// Logout drops the server cart reference and starts a fresh, empty guest
// cart under a new token. The old guest storage is cleared. The synced
// state is never re-entered except through a new Sync.
func (s *Synchronizer) Logout(ctx context.Context, newGuestToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guestToken != "" {
		if err := s.store.Clear(ctx, s.guestToken); err != nil {
			s.lg.Warn("guest cart clear failed on logout", zap.Error(err))
		}
	}
	s.guestToken = newGuestToken
	s.cart = Cart{Mode: ModeGuest}
	s.state = StateGuest
}

// AddItem adds a line to the cart, incrementing quantity (clamped to stock)
// when the variant is already present.
func (s *Synchronizer) AddItem(ctx context.Context, item Item) (Cart, error) {
	return s.mutate(ctx,
		func(c *Cart) error { return c.add(item) },
		func(ctx context.Context) (*Cart, error) { return s.upstream.AddItem(ctx, item) },
	)
}

// UpdateQuantity adjusts a line's quantity by delta, clamped to [1, stock].
// Synced mode persists the resulting quantity, not the delta, so retries
// are idempotent.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, variantID int64, delta int) (Cart, error) {
	return s.mutate(ctx,
		func(c *Cart) error { return c.applyDelta(variantID, delta) },
		func(ctx context.Context) (*Cart, error) {
			item, ok := s.cart.find(variantID)
			if !ok {
				return nil, ErrItemNotFound
			}
			return s.upstream.UpdateItem(ctx, variantID, item.Quantity, item.Selected)
		},
	)
}

// RemoveItem drops a line entirely.
func (s *Synchronizer) RemoveItem(ctx context.Context, variantID int64) (Cart, error) {
	return s.mutate(ctx,
		func(c *Cart) error { return c.remove(variantID) },
		func(ctx context.Context) (*Cart, error) { return s.upstream.RemoveItem(ctx, variantID) },
	)
}

// ToggleSelect flips one line's checkout-selection flag.
func (s *Synchronizer) ToggleSelect(ctx context.Context, variantID int64) (Cart, error) {
	return s.mutate(ctx,
		func(c *Cart) error { return c.toggleSelect(variantID) },
		func(ctx context.Context) (*Cart, error) {
			item, ok := s.cart.find(variantID)
			if !ok {
				return nil, ErrItemNotFound
			}
			return s.upstream.UpdateItem(ctx, variantID, item.Quantity, item.Selected)
		},
	)
}

// ToggleSelectAll selects every line, or deselects all when everything is
// already selected.
func (s *Synchronizer) ToggleSelectAll(ctx context.Context) (Cart, error) {
	return s.mutate(ctx,
		func(c *Cart) error {
			c.toggleSelectAll()
			return nil
		},
		func(ctx context.Context) (*Cart, error) {
			selected := len(s.cart.Items) > 0 && s.cart.Items[0].Selected
			return s.upstream.SetSelectAll(ctx, selected)
		},
	)
}

// ApplyVoucher asks the backend to attach a voucher to the synced cart.
// There is no optimistic local change: the discount amount only exists in
// the server's response.
func (s *Synchronizer) ApplyVoucher(ctx context.Context, code string) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUninitialized:
		return Cart{}, ErrNotInitialized
	case StateSyncing:
		return Cart{}, ErrSyncInProgress
	case StateGuest:
		return Cart{}, ErrVoucherRequiresAccount
	}

	server, err := s.upstream.ApplyVoucher(ctx, code)
	if err != nil {
		return Cart{}, errors.Wrap(err, "apply voucher")
	}
	server.Mode = ModeSynced
	s.cart = *server
	return s.cart.Clone(), nil
}

// mutate applies a mutation to the current cart. Guest mode persists the
// whole cart to the guest store; synced mode plays the mutation against the
// backend and adopts the returned server cart. Either way a failed persist
// rolls the local cart back to its pre-mutation snapshot so no divergent
// state is left committed.
func (s *Synchronizer) mutate(
	ctx context.Context,
	local func(*Cart) error,
	remote func(ctx context.Context) (*Cart, error),
) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUninitialized:
		return Cart{}, ErrNotInitialized
	case StateSyncing:
		return Cart{}, ErrSyncInProgress
	}

	prev := s.cart.Clone()
	if err := local(&s.cart); err != nil {
		return Cart{}, err
	}

	if s.state == StateGuest {
		if err := s.store.Save(ctx, s.guestToken, s.cart.Items); err != nil {
			s.cart = prev
			s.lg.Warn("guest cart persist failed, rolled back", zap.Error(err))
			return Cart{}, errors.Wrap(err, "persist guest cart")
		}
		return s.cart.Clone(), nil
	}

	server, err := remote(ctx)
	if err != nil {
		s.cart = prev
		s.lg.Warn("cart mutation rejected upstream, rolled back", zap.Error(err))
		return Cart{}, errors.Wrap(err, "persist cart upstream")
	}
	server.Mode = ModeSynced
	s.cart = *server
	return s.cart.Clone(), nil
}
