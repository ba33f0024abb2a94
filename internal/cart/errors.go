package cart

import "errors"

var (
	// ErrMutationInFlight is returned when an update or removal for the same
	// item is still outstanding. The request was dropped, not queued.
	ErrMutationInFlight = errors.New("an update for this item is already in progress")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrStockExceeded    = errors.New("quantity exceeds available stock")
)
