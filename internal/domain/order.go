package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodQRCode       PaymentMethod = "qr_code"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodQRCode || m == PaymentMethodBankTransfer
}

type Payment struct {
	ID            uuid.UUID     `json:"ID"`
	OrderID       uuid.UUID     `json:"OrderID"`
	PaymentMethod PaymentMethod `json:"PaymentMethod"`
	Amount        float64       `json:"Amount"`
	CreateAt      time.Time     `json:"CreateAt"`
}

type Order struct {
	ID            uuid.UUID     `json:"ID"`
	TrackingID    string        `json:"TrackingID"`
	CartID        uuid.UUID     `json:"CartID"`
	Cart          Cart          `json:"Cart"`
	TotalPrice    float64       `json:"TotalPrice"`
	Status        OrderStatus   `json:"Status"`
	PaymentMethod PaymentMethod `json:"PaymentMethod"`
	AddressID     uuid.UUID     `json:"AddressID"`
	Address       Address       `json:"Address"`
	Payment       *Payment      `json:"Payment"`
	CreateAt      time.Time     `json:"CreateAt"`
}

// HasPayment reports whether evidence was already accepted for the order.
func (o Order) HasPayment() bool {
	return o.Payment != nil && o.Payment.ID != uuid.Nil
}

// Profile is the read-only contact info shown on the confirmation view.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
}

func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
