package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-order/hub"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/yeremiapane/table-order/services")

// CheckoutConfig holds checkout defaults
type CheckoutConfig struct {
	PaymentMethod       string
	DefaultPaymentRoute string
}

// CheckoutService runs cart -> order preparation -> payment intent -> redirect.
// One run is active per table; a newer run supersedes an older one and every
// transition of the older one is dropped.
type CheckoutService struct {
	carts    *CartService
	orders   OrderPreparer
	payments PaymentIntentRequester
	history  *OrderHistoryService
	events   hub.Publisher
	config   CheckoutConfig
	now      func() time.Time

	mutex  sync.Mutex
	active map[models.Scope]*models.Checkout
}

func NewCheckoutService(carts *CartService, orders OrderPreparer, payments PaymentIntentRequester, history *OrderHistoryService, events hub.Publisher, config CheckoutConfig) *CheckoutService {
	if events == nil {
		events = hub.Nop{}
	}
	if config.DefaultPaymentRoute == "" {
		config.DefaultPaymentRoute = "/payment"
	}
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		payments: payments,
		history:  history,
		events:   events,
		config:   config,
		now:      time.Now,
		active:   make(map[models.Scope]*models.Checkout),
	}
}

// Checkout runs one checkout for the table. On failure the returned record
// carries the failed state and the error wraps ErrOrderPreparation or
// ErrPaymentPreparation. An empty cart fails with ErrEmptyCart before any call.
func (s *CheckoutService) Checkout(ctx context.Context, scope models.Scope, paymentMethod string) (*models.Checkout, error) {
	ctx, span := tracer.Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("restaurant.id", scope.RestaurantID),
		attribute.Int64("table.id", scope.TableID),
	)

	record, err := s.run(ctx, scope, paymentMethod)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if record != nil {
		span.SetAttributes(
			attribute.String("checkout.id", record.ID),
			attribute.String("checkout.state", string(record.State)),
		)
	}
	return record, err
}

func (s *CheckoutService) run(ctx context.Context, scope models.Scope, paymentMethod string) (*models.Checkout, error) {
	cart, err := s.carts.Cart(ctx, scope)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if paymentMethod == "" {
		paymentMethod = s.config.PaymentMethod
	}

	co := s.start(scope)
	log := utils.InfoLogger.WithFields(logrus.Fields{"scope": scope.String(), "checkout": co.ID})

	if !s.transition(co, models.CheckoutPreparing, nil) {
		return nil, ErrCheckoutSuperseded
	}
	prepared, err := s.orders.PrepareOrder(ctx, prepareRequest(scope, cart, paymentMethod))
	if err != nil {
		return s.fail(co, fmt.Errorf("%w: %v", ErrOrderPreparation, err))
	}
	if !s.isActive(co) {
		log.Warnf("Dropping late order %s of superseded checkout", prepared.OrderCode)
		return nil, ErrCheckoutSuperseded
	}

	current := models.CurrentOrder{OrderCode: prepared.OrderCode, TotalAmount: prepared.TotalAmount}
	if err := s.history.SaveCurrent(ctx, scope, current); err != nil {
		utils.ErrorLogger.Errorf("Error saving current order %s of %s: %v", prepared.OrderCode, scope, err)
	}
	if err := s.history.Record(ctx, scope, prepared.OrderCode); err != nil {
		utils.ErrorLogger.Errorf("Error recording order %s of %s: %v", prepared.OrderCode, scope, err)
	}
	log.Infof("Order %s prepared, total %s", prepared.OrderCode, prepared.TotalAmount)

	if !s.transition(co, models.CheckoutAwaitingPaymentIntent, func(c *models.Checkout) {
		c.OrderCode = prepared.OrderCode
		c.TotalAmount = prepared.TotalAmount
	}) {
		return nil, ErrCheckoutSuperseded
	}

	intent, err := s.payments.PreparePayment(ctx, models.PaymentIntentRequest{
		OrderID:    prepared.OrderCode,
		MerchantID: scope.RestaurantID,
		Amount:     AmountNumber(prepared.TotalAmount),
		Currency:   s.payments.Currency(),
	})
	if err != nil {
		// the order stays prepared on the merchant side
		return s.fail(co, fmt.Errorf("%w: %v", ErrPaymentPreparation, err))
	}

	redirectURL := s.redirectURL(intent.CallbackURL, prepared.OrderCode, scope, intent.PaymentID)
	if intent.CallbackURL == "" {
		log.Warnf("Payment intent for %s has no callback url, using %s", prepared.OrderCode, s.config.DefaultPaymentRoute)
	}
	if !s.transition(co, models.CheckoutRedirecting, func(c *models.Checkout) {
		c.PaymentID = intent.PaymentID
		c.RedirectURL = redirectURL
	}) {
		return nil, ErrCheckoutSuperseded
	}
	if !s.transition(co, models.CheckoutNavigated, nil) {
		return nil, ErrCheckoutSuperseded
	}

	log.Infof("Checkout navigated to %s", redirectURL)
	return s.snapshot(co), nil
}

// Status returns the latest checkout of the table
func (s *CheckoutService) Status(scope models.Scope) (*models.Checkout, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	co, ok := s.active[scope]
	if !ok {
		return nil, false
	}
	c := *co
	return &c, true
}

func (s *CheckoutService) start(scope models.Scope) *models.Checkout {
	now := s.now()
	co := &models.Checkout{
		ID:        uuid.NewString(),
		Scope:     scope,
		State:     models.CheckoutIdle,
		StartedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	if prev, ok := s.active[scope]; ok && !prev.State.Terminal() {
		utils.InfoLogger.Infof("Checkout %s of %s superseded by %s", prev.ID, scope, co.ID)
	}
	s.active[scope] = co
	s.mutex.Unlock()
	return co
}

func (s *CheckoutService) isActive(co *models.Checkout) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.active[co.Scope] == co
}

// transition moves co to next if it is still the active run of its table
func (s *CheckoutService) transition(co *models.Checkout, next models.CheckoutState, apply func(*models.Checkout)) bool {
	s.mutex.Lock()
	if s.active[co.Scope] != co {
		s.mutex.Unlock()
		return false
	}
	co.State = next
	if apply != nil {
		apply(co)
	}
	co.UpdatedAt = s.now()
	snapshot := *co
	s.mutex.Unlock()

	s.events.Publish(co.Scope.String(), hub.EventCheckoutState, snapshot)
	return true
}

func (s *CheckoutService) fail(co *models.Checkout, err error) (*models.Checkout, error) {
	msg := ErrOrderPreparation.Error()
	if errors.Is(err, ErrPaymentPreparation) {
		msg = ErrPaymentPreparation.Error()
	}
	if !s.transition(co, models.CheckoutFailed, func(c *models.Checkout) { c.Message = msg }) {
		return nil, ErrCheckoutSuperseded
	}
	utils.ErrorLogger.Errorf("Checkout %s of %s failed: %v", co.ID, co.Scope, err)
	return s.snapshot(co), err
}

func (s *CheckoutService) snapshot(co *models.Checkout) *models.Checkout {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	c := *co
	return &c
}

// redirectURL -> {callbackUrl}/{orderCode}?restaurantId=&tableId=&paymentId=
func (s *CheckoutService) redirectURL(callbackURL, orderCode string, scope models.Scope, paymentID string) string {
	base := callbackURL
	if base == "" {
		base = s.config.DefaultPaymentRoute
	}
	return fmt.Sprintf("%s/%s?restaurantId=%d&tableId=%d&paymentId=%s",
		strings.TrimRight(base, "/"),
		url.PathEscape(orderCode),
		scope.RestaurantID,
		scope.TableID,
		url.QueryEscape(paymentID),
	)
}

func prepareRequest(scope models.Scope, cart models.Cart, paymentMethod string) models.PrepareOrderRequest {
	menus := make([]models.PrepareOrderMenu, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids := item.SelectedOptionIDs
		if ids == nil {
			ids = make([]int64, 0)
		}
		menus = append(menus, models.PrepareOrderMenu{
			MenuID:    item.MenuID,
			Quantity:  item.Quantity,
			OptionIDs: ids,
		})
	}
	return models.PrepareOrderRequest{
		TableID:       scope.TableID,
		MerchantID:    scope.RestaurantID,
		Menus:         menus,
		PaymentMethod: paymentMethod,
	}
}
