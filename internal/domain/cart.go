package domain

import "github.com/google/uuid"

type CartStatus string

const (
	// CartStatusOpen is the server's tag for a cart that still accepts items.
	CartStatusOpen CartStatus = "pending"
	// CartStatusCheckedOut marks a cart that was consumed by an order.
	CartStatusCheckedOut CartStatus = "ordered"
)

// Product is the catalog entry a cart line points at. Stock is the quantity
// the server still has available.
type Product struct {
	ID          uuid.UUID `json:"ID"`
	Name        string    `json:"Name"`
	Price       float64   `json:"Price"`
	Stock       int       `json:"Quantity"`
	Type        string    `json:"Type"`
	Description string    `json:"Description"`
}

type CartItem struct {
	ID        uuid.UUID `json:"ID"`
	ProductID uuid.UUID `json:"SnackID"`
	Quantity  int       `json:"Quantity"`
	Product   Product   `json:"Snack"`
}

// Subtotal is the line price at the product's current price.
func (i CartItem) Subtotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}

// ClampQuantity forces q into [1, stock]. A result of 0 means the line can
// not be kept at all (q < 1 or the product is sold out).
func (i CartItem) ClampQuantity(q int) int {
	if q < 1 || i.Product.Stock < 1 {
		return 0
	}
	if q > i.Product.Stock {
		return i.Product.Stock
	}
	return q
}

type Cart struct {
	ID     uuid.UUID  `json:"ID"`
	Items  []CartItem `json:"Items"`
	Status CartStatus `json:"Status"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) Item(itemID uuid.UUID) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, item := range c.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Total sums quantity × price over all lines.
func (c *Cart) Total() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// Clone returns a deep copy so callers can't reach into a cached cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{ID: c.ID, Status: c.Status}
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}
