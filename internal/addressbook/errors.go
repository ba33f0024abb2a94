package addressbook

import "errors"

var (
	ErrLimitReached        = errors.New("address limit reached")
	ErrSelectionIncomplete = errors.New("please select a province, district and sub-district")
	ErrDetailRequired      = errors.New("please enter the address detail")
	ErrInvalidDraft        = errors.New("invalid address")
	ErrAddressNotFound     = errors.New("address not found")
)
