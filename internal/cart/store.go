// Package cart keeps a local copy of the server-side cart and serializes
// mutations per item.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
)

type Client interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddCartItem(ctx context.Context, in api.AddItemRequest) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, in api.UpdateItemRequest) (*domain.Cart, error)
	RemoveCartItem(ctx context.Context, itemID uuid.UUID) (*domain.Cart, error)
}

// Store is the client's view of the cart. The server owns the cart: no
// method edits the local copy directly, it only changes through Refresh.
type Store struct {
	client Client
	log    *slog.Logger
	now    func() time.Time
	sfg    singleflight.Group

	mu       sync.RWMutex
	cart     *domain.Cart
	inFlight map[uuid.UUID]struct{}

	// seq numbers every GET when it is sent; applied is the seq of the
	// response s.cart came from. An older response never replaces a newer one.
	seq     uint64
	applied uint64
}

func NewStore(client Client, log *slog.Logger) *Store {
	return &Store{
		client:   client,
		log:      logger.OrDiscard(log),
		now:      time.Now,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Refresh replaces the local copy with the server's cart. Concurrent calls
// share one request, so it must not be used to observe a mutation: a joined
// request may have been sent before the mutation landed. Mutations use reload.
func (s *Store) Refresh(ctx context.Context) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do("cart", func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("refresh cart: %w", err)
	}
	return v.(*domain.Cart).Clone(), nil
}

// reload always sends its own GET.
func (s *Store) reload(ctx context.Context) error {
	if _, err := s.fetch(ctx); err != nil {
		return fmt.Errorf("refresh cart: %w", err)
	}
	return nil
}

func (s *Store) fetch(ctx context.Context) (*domain.Cart, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	cart, err := s.client.GetCart(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.applied {
		s.cart = cart
		s.applied = seq
	} else {
		s.log.Debug("discarding stale cart", logger.Traced(ctx), slog.Uint64("seq", seq), slog.Uint64("applied", s.applied))
	}
	return cart, nil
}

// SetQuantity changes an item's quantity. Negative quantities are rejected
// without a request, 0 removes the item and anything above the known stock
// is clamped to it.
func (s *Store) SetQuantity(ctx context.Context, itemID, productID uuid.UUID, quantity int) error {
	switch {
	case quantity < 0:
		return ErrInvalidQuantity
	case quantity == 0:
		return s.RemoveItem(ctx, itemID)
	}

	if !s.acquire(itemID) {
		return ErrMutationInFlight
	}
	defer s.release(itemID)

	if item, ok := s.item(itemID); ok {
		clamped := item.ClampQuantity(quantity)
		if clamped == 0 {
			s.log.Info("item sold out, removing", logger.Traced(ctx), slog.String("item_id", itemID.String()))
			return s.remove(ctx, itemID)
		}
		if clamped != quantity {
			s.log.Debug("quantity clamped to stock", logger.Traced(ctx),
				slog.String("item_id", itemID.String()), slog.Int("requested", quantity), slog.Int("stock", clamped))
		}
		quantity = clamped
	}

	_, err := s.client.UpdateCartItem(ctx, api.UpdateItemRequest{
		ItemID:    itemID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return s.reload(ctx)
}

// RemoveItem deletes an item. It shares the per-item guard with
// SetQuantity.
func (s *Store) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	if !s.acquire(itemID) {
		return ErrMutationInFlight
	}
	defer s.release(itemID)
	return s.remove(ctx, itemID)
}

func (s *Store) remove(ctx context.Context, itemID uuid.UUID) error {
	if _, err := s.client.RemoveCartItem(ctx, itemID); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return s.reload(ctx)
}

// AddItem puts quantity units of a product in the cart. Without a session it
// fails with api.ErrUnauthenticated and nothing is sent; callers should send
// the user to log in rather than retry.
func (s *Store) AddItem(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	_, err := s.client.AddCartItem(ctx, api.AddItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) || errors.Is(err, api.ErrAuthExpired) {
			return err
		}
		return fmt.Errorf("add item: %w", err)
	}
	return s.reload(ctx)
}

// AddProduct is AddItem with the product's stock known, so an excessive
// quantity is rejected before the request. Units already in the cart count.
func (s *Store) AddProduct(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if inCart := s.quantityOf(product.ID); inCart+quantity > product.Stock {
		return fmt.Errorf("%w: %d available", ErrStockExceeded, product.Stock-inCart)
	}
	return s.AddItem(ctx, product.ID, quantity)
}

// Snapshot returns a copy of the last refreshed cart, or nil before the
// first Refresh.
func (s *Store) Snapshot() *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Capture freezes the current cart with per-line subtotals.
func (s *Store) Capture() domain.CartSnapshot {
	return domain.NewCartSnapshot(s.Snapshot(), s.now())
}

func (s *Store) Subtotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Total()
}

// InFlight reports whether a mutation for itemID is outstanding.
func (s *Store) InFlight(itemID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inFlight[itemID]
	return ok
}

func (s *Store) acquire(itemID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[itemID]; busy {
		return false
	}
	s.inFlight[itemID] = struct{}{}
	return true
}

func (s *Store) release(itemID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, itemID)
}

func (s *Store) item(itemID uuid.UUID) (domain.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Item(itemID)
}

func (s *Store) quantityOf(productID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart == nil {
		return 0
	}
	total := 0
	for _, item := range s.cart.Items {
		if item.ProductID == productID {
			total += item.Quantity
		}
	}
	return total
}
