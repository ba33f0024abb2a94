package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthExpired means the server rejected the credential (401). The
	// session has already been cleared; the caller should send the user to
	// the login flow instead of retrying.
	ErrAuthExpired = errors.New("your login session has expired, please log in again")
	// ErrUnauthenticated means there was no usable credential, so no request
	// was sent.
	ErrUnauthenticated = errors.New("you need to be logged in")
	// ErrNotFound matches a *ValidationError carrying a 404.
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid request")
	// ErrBodyTooLarge means the response was longer than the client accepts.
	// Nothing of it is returned.
	ErrBodyTooLarge = errors.New("response body exceeds 10MB")
)

// ValidationError is a 4xx answer. Message is the server's text and is meant
// to be shown to the user verbatim.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected: %s", http.StatusText(e.Status))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError covers everything that deserves a retry affordance: no
// response at all, a 5xx, or the circuit breaker refusing the call.
type NetworkError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: server error %d: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: server error %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: network failure", e.Op)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable is always true; retrying is left to the user.
func (e *NetworkError) Retryable() bool {
	return true
}

// UserMessage picks the text to show for err: the server's message for
// validation failures, fallback for everything else.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrAuthExpired) || errors.Is(err, ErrUnauthenticated) {
		return err.Error()
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.Message != "" {
		return vErr.Message
	}
	return fallback
}
