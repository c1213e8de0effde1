package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

var errStillPending = errors.New("payment still pending")

// VerifyConfig bounds the verification polling
type VerifyConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxAttempts         uint
	MaxElapsed          time.Duration
}

func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{
		InitialInterval:     5 * time.Second,
		MaxInterval:         30 * time.Second,
		Multiplier:          1.5,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		MaxAttempts:         20,
		MaxElapsed:          3 * time.Minute,
	}
}

func (c VerifyConfig) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = c.RandomizationFactor
	return b
}

// PaymentVerifier confirms payments with the merchant service and closes the
// table's cart once the payment went through.
type PaymentVerifier struct {
	checker PaymentStatusChecker
	history *OrderHistoryService
	carts   *CartService
	config  VerifyConfig
}

func NewPaymentVerifier(checker PaymentStatusChecker, history *OrderHistoryService, carts *CartService, config VerifyConfig) *PaymentVerifier {
	defaults := DefaultVerifyConfig()
	if config.InitialInterval <= 0 {
		config.InitialInterval = defaults.InitialInterval
	}
	if config.MaxInterval < config.InitialInterval {
		config.MaxInterval = config.InitialInterval
	}
	if config.Multiplier < 1 {
		config.Multiplier = defaults.Multiplier
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	return &PaymentVerifier{
		checker: checker,
		history: history,
		carts:   carts,
		config:  config,
	}
}

// ResolveOrder picks the explicit code, falling back to the table's current order
func (pv *PaymentVerifier) ResolveOrder(ctx context.Context, scope models.Scope, orderCode string) (string, error) {
	if orderCode != "" {
		return orderCode, nil
	}
	current, err := pv.history.Current(ctx, scope)
	if err != nil {
		return "", err
	}
	return current.OrderCode, nil
}

// CheckOnce asks for the payment status a single time. Unknown values are reported as pending.
func (pv *PaymentVerifier) CheckOnce(ctx context.Context, scope models.Scope, orderCode string) (string, models.PaymentStatus, error) {
	code, err := pv.ResolveOrder(ctx, scope, orderCode)
	if err != nil {
		return "", "", err
	}
	status, err := pv.checker.VerifyPayment(ctx, code)
	if err != nil {
		return code, "", err
	}
	status = normalizeStatus(status)
	if status.IsSuccess() {
		pv.clearCart(ctx, scope, code)
	}
	return code, status, nil
}

// Await polls until the payment succeeds, fails or the retry budget runs out.
// Failure returns ErrPaymentFailed, exhaustion ErrVerificationTimeout.
func (pv *PaymentVerifier) Await(ctx context.Context, scope models.Scope, orderCode string) (*models.PaymentCompletion, error) {
	code, err := pv.ResolveOrder(ctx, scope, orderCode)
	if err != nil {
		return nil, err
	}
	_, completion, err := pv.await(ctx, scope, code)
	return completion, err
}

func (pv *PaymentVerifier) await(ctx context.Context, scope models.Scope, code string) (models.PaymentStatus, *models.PaymentCompletion, error) {
	log := utils.InfoLogger.WithFields(logrus.Fields{"scope": scope.String(), "orderCode": code})
	attempts := 0

	status, err := backoff.Retry(ctx, func() (models.PaymentStatus, error) {
		attempts++
		status, err := pv.checker.VerifyPayment(ctx, code)
		if err != nil {
			if IsPermanent(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		status = normalizeStatus(status)
		switch {
		case status.IsSuccess():
			return status, nil
		case status.IsFailure():
			return status, backoff.Permanent(ErrPaymentFailed)
		default:
			return status, errStillPending
		}
	},
		backoff.WithBackOff(pv.config.backOff()),
		backoff.WithMaxTries(pv.config.MaxAttempts),
		backoff.WithMaxElapsedTime(pv.config.MaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debugf("Payment not confirmed (%v), retrying in %s", err, next)
		}),
	)

	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentFailed):
			log.Warn("Payment failed")
			return models.PaymentStatusFailed, nil, ErrPaymentFailed
		case errors.Is(err, errStillPending):
			log.Warnf("Payment still pending after %d attempts", attempts)
			return models.PaymentStatusPending, nil, ErrVerificationTimeout
		case ctx.Err() != nil:
			return "", nil, ctx.Err()
		case IsPermanent(err):
			utils.ErrorLogger.Errorf("Verification of %s rejected: %v", code, err)
			return "", nil, err
		default:
			utils.ErrorLogger.Errorf("Verification of %s gave up after %d attempts: %v", code, attempts, err)
			return "", nil, fmt.Errorf("%w: %v", ErrVerificationTimeout, err)
		}
	}

	log.Infof("Payment confirmed with status %s after %d attempts", status, attempts)
	pv.clearCart(ctx, scope, code)
	completion, err := pv.Completion(ctx, scope, code)
	if err != nil {
		return status, nil, err
	}
	return status, completion, nil
}

// Completion builds the completion view from the current order, or from the
// code alone when the table holds no record of it.
func (pv *PaymentVerifier) Completion(ctx context.Context, scope models.Scope, orderCode string) (*models.PaymentCompletion, error) {
	current, err := pv.history.Current(ctx, scope)
	if err != nil && !errors.Is(err, ErrMissingOrderContext) {
		return nil, err
	}

	completion := &models.PaymentCompletion{OrderCode: orderCode, Scope: scope}
	if current != nil && (orderCode == "" || current.OrderCode == orderCode) {
		completion.OrderCode = current.OrderCode
		completion.TotalAmount = current.TotalAmount
	}
	if completion.OrderCode == "" {
		return nil, ErrMissingOrderContext
	}
	return completion, nil
}

// clearCart empties the table's cart the first time one of its own orders is
// confirmed paid. Later checks of the same order leave newer items alone.
func (pv *PaymentVerifier) clearCart(ctx context.Context, scope models.Scope, code string) {
	first, err := pv.history.Settle(ctx, scope, code)
	if err != nil {
		utils.ErrorLogger.Errorf("Error settling order %s of %s: %v", code, scope, err)
		return
	}
	if !first {
		utils.InfoLogger.Debugf("Order %s of %s already settled, cart kept", code, scope)
		return
	}
	if _, err := pv.carts.ClearCart(ctx, scope); err != nil {
		utils.ErrorLogger.Errorf("Error clearing cart of %s after payment %s: %v", scope, code, err)
	}
}

func normalizeStatus(status models.PaymentStatus) models.PaymentStatus {
	if status.IsSuccess() || status.IsFailure() {
		return status
	}
	return models.PaymentStatusPending
}
