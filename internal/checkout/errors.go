package checkout

import "errors"

// Precondition failures, checked in this order before anything is sent.
var (
	ErrCartEmpty             = errors.New("your cart is empty, add items before checking out")
	ErrAddressRequired       = errors.New("please select a delivery address")
	ErrPaymentMethodRequired = errors.New("please select a payment method")
)

var (
	ErrSubmitInProgress     = errors.New("order submission already in progress")
	ErrNotReady             = errors.New("checkout is not ready")
	ErrUnknownAddress       = errors.New("address is not one of your saved addresses")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// GenericFailureMessage is shown when the server gave no reason.
const GenericFailureMessage = "Failed to place order. Please try again."

// SubmitError is a failed order confirmation. Message is what the user
// should see: the server's own text when it sent one.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
