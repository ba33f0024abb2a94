package orders

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

var (
	ErrUnknownStatus      = errors.New("unknown order status")
	ErrTrackingIDRequired = errors.New("please enter a tracking number")
	ErrIllegalTransition  = errors.New("illegal order status transition")
)

// TransitionError is a status change the order machine doesn't allow. It
// matches ErrIllegalTransition.
type TransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
