package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus as reported by the verify endpoint
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// IsSuccess reports a terminal success value
func (s PaymentStatus) IsSuccess() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCompleted
}

func (s PaymentStatus) IsFailure() bool {
	return s == PaymentStatusFailed
}

// PaymentIntentRequest is the body of POST /pg/prepare
type PaymentIntentRequest struct {
	OrderID    string      `json:"orderId"`
	MerchantID int64       `json:"merchantId"`
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
}

// PaymentIntent is the gateway's answer to a prepare call
type PaymentIntent struct {
	PaymentID   string `json:"paymentId"`
	CallbackURL string `json:"callbackUrl"`
}

// PaymentVerification is the body returned by the verify endpoint
type PaymentVerification struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// VerificationOutcome of a background verification run
type VerificationOutcome string

const (
	VerificationRunning   VerificationOutcome = "running"
	VerificationSucceeded VerificationOutcome = "succeeded"
	VerificationFailed    VerificationOutcome = "failed"
	VerificationTimedOut  VerificationOutcome = "timed_out"
	VerificationErrored   VerificationOutcome = "error"
)

// VerificationResult is the latest known state of one order's payment
type VerificationResult struct {
	OrderCode  string              `json:"orderCode"`
	Scope      Scope               `json:"scope"`
	Outcome    VerificationOutcome `json:"outcome"`
	Status     PaymentStatus       `json:"paymentStatus,omitempty"`
	Message    string              `json:"message,omitempty"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}

// PaymentCompletion is what the completion page shows
type PaymentCompletion struct {
	OrderCode   string          `json:"orderCode"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Scope       Scope           `json:"scope"`
}
