package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCart() *Cart {
	return &Cart{
		ID:     uuid.New(),
		Status: CartStatusOpen,
		Items: []CartItem{
			{ID: uuid.New(), Quantity: 2, Product: Product{Name: "Chips", Price: 25, Stock: 10}},
			{ID: uuid.New(), Quantity: 1, Product: Product{Name: "Pocky", Price: 40.5, Stock: 3}},
		},
	}
}

func TestClampQuantity(t *testing.T) {
	item := CartItem{Product: Product{Stock: 5}}

	assert.Equal(t, 0, item.ClampQuantity(0))
	assert.Equal(t, 0, item.ClampQuantity(-3))
	assert.Equal(t, 1, item.ClampQuantity(1))
	assert.Equal(t, 5, item.ClampQuantity(5))
	assert.Equal(t, 5, item.ClampQuantity(99))

	soldOut := CartItem{Product: Product{Stock: 0}}
	assert.Equal(t, 0, soldOut.ClampQuantity(1))
}

func TestCart_Total(t *testing.T) {
	cart := testCart()
	assert.InDelta(t, 90.5, cart.Total(), 0.0001)

	var nilCart *Cart
	assert.Zero(t, nilCart.Total())
	assert.True(t, nilCart.IsEmpty())
}

func TestCart_CloneIsIndependent(t *testing.T) {
	cart := testCart()
	clone := cart.Clone()

	clone.Items[0].Quantity = 7
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCart_Item(t *testing.T) {
	cart := testCart()
	item, ok := cart.Item(cart.Items[1].ID)
	require.True(t, ok)
	assert.Equal(t, "Pocky", item.Product.Name)

	_, ok = cart.Item(uuid.New())
	assert.False(t, ok)
}

func TestNewCartSnapshot(t *testing.T) {
	cart := testCart()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	snapshot := NewCartSnapshot(cart, now)

	assert.Equal(t, cart.ID, snapshot.CartID)
	require.Len(t, snapshot.Items, 2)
	assert.InDelta(t, 50, snapshot.Items[0].Subtotal, 0.0001)
	assert.InDelta(t, 90.5, snapshot.TotalAmount, 0.0001)
	assert.Equal(t, now, snapshot.CapturedAt)
}
