package domain

import (
	"time"

	"github.com/google/uuid"
)

type CartSnapshotItem struct {
	ItemID      uuid.UUID `json:"item_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Subtotal    float64   `json:"subtotal"`
}

// CartSnapshot represents the full cart state at checkout time
type CartSnapshot struct {
	CartID      uuid.UUID          `json:"cart_id"`
	Items       []CartSnapshotItem `json:"items"`
	TotalAmount float64            `json:"total_amount"`
	CapturedAt  time.Time          `json:"captured_at"`
}

func NewCartSnapshot(cart *Cart, now time.Time) CartSnapshot {
	snapshot := CartSnapshot{CapturedAt: now}
	if cart == nil {
		return snapshot
	}
	snapshot.CartID = cart.ID
	snapshot.Items = make([]CartSnapshotItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		subtotal := item.Subtotal()
		snapshot.Items = append(snapshot.Items, CartSnapshotItem{
			ItemID:      item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Product.Price,
			Subtotal:    subtotal,
		})
		snapshot.TotalAmount += subtotal
	}
	return snapshot
}
