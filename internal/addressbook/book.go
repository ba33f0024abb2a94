// Package addressbook manages the shopper's stored delivery addresses.
package addressbook

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/geo"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
)

// DefaultMaxAddresses is how many addresses an account may keep unless
// configured otherwise.
const DefaultMaxAddresses = 2

type Client interface {
	ListAddresses(ctx context.Context) ([]domain.Address, error)
	CreateAddress(ctx context.Context, in api.AddressRequest) (domain.Address, error)
	UpdateAddress(ctx context.Context, id uuid.UUID, in api.AddressRequest) (domain.Address, error)
	DeleteAddress(ctx context.Context, id uuid.UUID) error
}

// Book caches the server's address list. Every mutation is followed by a
// reload; nothing is edited in place.
type Book struct {
	client   Client
	max      int
	log      *slog.Logger
	validate *validator.Validate

	mu        sync.Mutex
	addresses []domain.Address
	loaded    bool
}

// New returns a Book limited to maxAddresses; values < 1 mean
// DefaultMaxAddresses.
func New(client Client, maxAddresses int, log *slog.Logger) *Book {
	if maxAddresses < 1 {
		maxAddresses = DefaultMaxAddresses
	}
	return &Book{
		client:   client,
		max:      maxAddresses,
		log:      logger.OrDiscard(log),
		validate: validator.New(),
	}
}

func (b *Book) Max() int {
	return b.max
}

// List fetches the stored addresses and caches them.
func (b *Book) List(ctx context.Context) ([]domain.Address, error) {
	addresses, err := b.client.ListAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	b.mu.Lock()
	b.addresses = addresses
	b.loaded = true
	b.mu.Unlock()
	return slices.Clone(addresses), nil
}

// Addresses returns the cached list without a request.
func (b *Book) Addresses() []domain.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.addresses)
}

func (b *Book) Find(id uuid.UUID) (domain.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := slices.IndexFunc(b.addresses, func(a domain.Address) bool { return a.ID == id })
	if idx < 0 {
		return domain.Address{}, false
	}
	return b.addresses[idx], true
}

// CanAdd reports whether the cached list still has room.
func (b *Book) CanAdd() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.addresses) < b.max
}

// Create stores a new address. When the list is already full it fails with
// ErrLimitReached without calling the create endpoint.
func (b *Book) Create(ctx context.Context, draft Draft) (domain.Address, error) {
	if err := b.check(draft); err != nil {
		return domain.Address{}, err
	}

	b.mu.Lock()
	loaded := b.loaded
	b.mu.Unlock()
	if !loaded {
		if _, err := b.List(ctx); err != nil {
			return domain.Address{}, err
		}
	}
	if !b.CanAdd() {
		return domain.Address{}, fmt.Errorf("%w: you can only have up to %d addresses", ErrLimitReached, b.max)
	}

	addr, err := b.client.CreateAddress(ctx, draft.request())
	if err != nil {
		return domain.Address{}, fmt.Errorf("create address: %w", err)
	}
	b.reload(ctx)
	return addr, nil
}

func (b *Book) Update(ctx context.Context, id uuid.UUID, draft Draft) (domain.Address, error) {
	if err := b.check(draft); err != nil {
		return domain.Address{}, err
	}
	addr, err := b.client.UpdateAddress(ctx, id, draft.request())
	if err != nil {
		return domain.Address{}, fmt.Errorf("update address: %w", err)
	}
	b.reload(ctx)
	return addr, nil
}

func (b *Book) Delete(ctx context.Context, id uuid.UUID) error {
	if err := b.client.DeleteAddress(ctx, id); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	b.reload(ctx)
	return nil
}

// Edit re-enters the resolver with a stored address so the cascade holds for
// edits exactly as it does for new addresses.
func (b *Book) Edit(ctx context.Context, resolver *geo.Resolver, id uuid.UUID) (domain.Address, geo.Selection, error) {
	addr, ok := b.Find(id)
	if !ok {
		return domain.Address{}, resolver.Selection(), ErrAddressNotFound
	}
	sel, err := resolver.Load(ctx, addr)
	return addr, sel, err
}

func (b *Book) check(draft Draft) error {
	if err := b.validate.Struct(draft); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	return nil
}

// reload refreshes the cache after a mutation. The mutation already
// succeeded, so a failed reload is only logged.
func (b *Book) reload(ctx context.Context) {
	if _, err := b.List(ctx); err != nil {
		b.log.Warn("address reload failed", logger.Traced(ctx), logger.Err(err))
	}
}
