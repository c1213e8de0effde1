package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutState of the checkout state machine
type CheckoutState string

const (
	CheckoutIdle                  CheckoutState = "idle"
	CheckoutPreparing             CheckoutState = "preparing"
	CheckoutAwaitingPaymentIntent CheckoutState = "awaiting_payment_intent"
	CheckoutRedirecting           CheckoutState = "redirecting"
	CheckoutFailed                CheckoutState = "failed"
	CheckoutNavigated             CheckoutState = "navigated"
)

// Terminal reports whether no further transition can happen
func (s CheckoutState) Terminal() bool {
	return s == CheckoutFailed || s == CheckoutNavigated
}

// Checkout is the record of one checkout run of a scope
type Checkout struct {
	ID          string          `json:"id"`
	Scope       Scope           `json:"scope"`
	State       CheckoutState   `json:"state"`
	OrderCode   string          `json:"orderCode,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaymentID   string          `json:"paymentId,omitempty"`
	RedirectURL string          `json:"redirectUrl,omitempty"`
	Message     string          `json:"message,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
