package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrLineNotFound        = errors.New("cart line not found")
	ErrMenuNotFound        = errors.New("menu not found")
	ErrMenuUnavailable     = errors.New("menu is not available")
	ErrMissingOrderContext = errors.New("order context not found")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")

	ErrOrderPreparation    = errors.New("order preparation failed")
	ErrPaymentPreparation  = errors.New("payment preparation failed")
	ErrCheckoutSuperseded  = errors.New("checkout superseded by a newer request")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrVerificationTimeout = errors.New("payment verification timed out")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// APIError is a non-2xx answer from a collaborator
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Message)
}

// Permanent reports whether repeating the request cannot help
func (e *APIError) Permanent() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsPermanent reports whether err is an APIError that should not be retried
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Permanent()
}
