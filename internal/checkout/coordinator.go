// Package checkout turns a cart, a delivery address and a payment method into
// a confirmed order.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
)

type CartSource interface {
	Refresh(ctx context.Context) (*domain.Cart, error)
	Snapshot() *domain.Cart
	Capture() domain.CartSnapshot
}

type AddressSource interface {
	List(ctx context.Context) ([]domain.Address, error)
}

type Client interface {
	Profile(ctx context.Context) (domain.Profile, error)
	ConfirmOrder(ctx context.Context, in api.ConfirmOrderRequest) (domain.Order, error)
}

// EntryResult holds the outcome of each fetch made by Enter. A failed fetch
// does not fail the others.
type EntryResult struct {
	CartErr      error
	AddressesErr error
	ProfileErr   error
}

// Summary is the read-only confirmation view.
type Summary struct {
	State         State
	Profile       *domain.Profile
	Address       *domain.Address
	PaymentMethod domain.PaymentMethod
	Cart          domain.CartSnapshot
	Order         *domain.Order
}

type Coordinator struct {
	cart      CartSource
	addresses AddressSource
	client    Client
	log       *slog.Logger
	now       func() time.Time

	mu          sync.Mutex
	state       State
	entry       EntryResult
	profile     *domain.Profile
	addressList []domain.Address
	addressID   uuid.UUID
	method      domain.PaymentMethod
	order       *domain.Order
	confirmed   domain.CartSnapshot
}

func NewCoordinator(cart CartSource, addresses AddressSource, client Client, log *slog.Logger) *Coordinator {
	return &Coordinator{
		cart:      cart,
		addresses: addresses,
		client:    client,
		log:       logger.OrDiscard(log),
		now:       time.Now,
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enter loads the cart, the address list and the profile concurrently and
// waits for all three. The first address is preselected when nothing is.
func (c *Coordinator) Enter(ctx context.Context) (EntryResult, error) {
	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		return EntryResult{}, ErrSubmitInProgress
	}
	c.state = Loading
	c.order = nil
	c.mu.Unlock()

	var (
		result    EntryResult
		addresses []domain.Address
		profile   domain.Profile
		g         errgroup.Group
	)
	g.Go(func() error {
		_, result.CartErr = c.cart.Refresh(ctx)
		return wrapFetch("cart", result.CartErr)
	})
	g.Go(func() error {
		addresses, result.AddressesErr = c.addresses.List(ctx)
		return wrapFetch("addresses", result.AddressesErr)
	})
	g.Go(func() error {
		profile, result.ProfileErr = c.client.Profile(ctx)
		return wrapFetch("profile", result.ProfileErr)
	})
	// No shared context: a failure cancels nothing. Wait returns the first
	// error, result keeps all of them.
	if err := g.Wait(); err != nil {
		c.log.Warn("checkout entry incomplete", logger.Traced(ctx), logger.Err(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = result
	if result.ProfileErr == nil {
		c.profile = &profile
	}
	if result.AddressesErr == nil {
		c.addressList = addresses
		if !c.hasAddress(c.addressID) {
			c.addressID = uuid.Nil
			if len(addresses) > 0 {
				c.addressID = addresses[0].ID
			}
		}
	}
	c.state = Ready
	return result, nil
}

func (c *Coordinator) Addresses() []domain.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.addressList)
}

func (c *Coordinator) SelectAddress(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrSubmitInProgress
	}
	if !c.hasAddress(id) {
		return ErrUnknownAddress
	}
	c.addressID = id
	return nil
}

func (c *Coordinator) SelectPaymentMethod(m domain.PaymentMethod) error {
	if !m.Valid() {
		return ErrUnknownPaymentMethod
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrSubmitInProgress
	}
	c.method = m
	return nil
}

// Submit places the order. Preconditions are checked locally first; while a
// submission runs, further calls fail with ErrSubmitInProgress.
func (c *Coordinator) Submit(ctx context.Context) (domain.Order, error) {
	c.mu.Lock()
	switch {
	case c.state == Submitting:
		c.mu.Unlock()
		return domain.Order{}, ErrSubmitInProgress
	case !c.state.CanSubmit():
		c.mu.Unlock()
		return domain.Order{}, ErrNotReady
	}

	cart := c.cart.Snapshot()
	var err error
	switch {
	case cart.IsEmpty():
		err = ErrCartEmpty
	case c.addressID == uuid.Nil:
		err = ErrAddressRequired
	case c.method == "":
		err = ErrPaymentMethodRequired
	}
	if err != nil {
		c.mu.Unlock()
		return domain.Order{}, err
	}

	req := api.ConfirmOrderRequest{
		AddressID:     c.addressID,
		CartID:        cart.ID,
		PaymentMethod: c.method,
	}
	snapshot := domain.NewCartSnapshot(cart, c.now())
	c.state = Submitting
	c.mu.Unlock()

	order, err := c.client.ConfirmOrder(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Ready
		c.log.Warn("order confirmation failed", logger.Traced(ctx),
			slog.String("cart_id", req.CartID.String()), logger.Err(err))
		return domain.Order{}, &SubmitError{Message: api.UserMessage(err, GenericFailureMessage), Err: err}
	}

	c.log.Info("order confirmed", logger.Traced(ctx),
		slog.String("order_id", order.ID.String()), slog.String("tracking_id", order.TrackingID))
	c.state = Confirmed
	c.order = &order
	c.confirmed = snapshot
	c.addressID = uuid.Nil
	c.method = ""
	return order, nil
}

// Summary never changes the coordinator. Before confirmation it shows the
// live selection and cart; afterwards the order and the cart as submitted.
func (c *Coordinator) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{State: c.state, PaymentMethod: c.method}
	if c.profile != nil {
		p := *c.profile
		s.Profile = &p
	}
	if c.order != nil {
		o := *c.order
		s.Order = &o
		s.Address = &o.Address
		s.PaymentMethod = o.PaymentMethod
		s.Cart = c.confirmed
		return s
	}
	if idx := slices.IndexFunc(c.addressList, func(a domain.Address) bool { return a.ID == c.addressID }); idx >= 0 {
		a := c.addressList[idx]
		s.Address = &a
	}
	s.Cart = c.cart.Capture()
	return s
}

// Entry returns the outcome of the last Enter.
func (c *Coordinator) Entry() EntryResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

func wrapFetch(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load %s: %w", name, err)
}

func (c *Coordinator) hasAddress(id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	return slices.ContainsFunc(c.addressList, func(a domain.Address) bool { return a.ID == id })
}
