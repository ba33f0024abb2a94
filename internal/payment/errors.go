package payment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoFile           = errors.New("please select a payment proof image to upload")
	ErrUploadFailed     = errors.New("failed to upload payment proof")
	ErrAlreadyPaid      = errors.New("payment proof was already submitted for this order")
	ErrUploadNotAllowed = errors.New("payment proof can only be uploaded for pending or processing orders")
	// ErrUploadedUnverified matches *UnverifiedError.
	ErrUploadedUnverified = errors.New("failed to verify payment proof upload")
)

// UnverifiedError means the upload was accepted but the proof could not be
// read back. The artifact may exist on the server under PaymentID, so this
// must not be reported as a failed upload.
type UnverifiedError struct {
	PaymentID uuid.UUID
	Err       error
}

func (e *UnverifiedError) Error() string {
	return fmt.Sprintf("payment proof uploaded as %s but could not be verified: %v", e.PaymentID, e.Err)
}

func (e *UnverifiedError) Unwrap() error {
	return e.Err
}

func (e *UnverifiedError) Is(target error) bool {
	return target == ErrUploadedUnverified
}
