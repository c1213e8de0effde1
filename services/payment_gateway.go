package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order/models"
)

// PaymentIntentRequester opens a payment session at the gateway
type PaymentIntentRequester interface {
	PreparePayment(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error)
	Currency() string
}

// PaymentGatewayConfig holds the gateway endpoint and its credentials
type PaymentGatewayConfig struct {
	BaseURL  string
	Username string
	Password string
	Currency string
}

// PaymentGatewayClient handles payment gateway API interactions
type PaymentGatewayClient struct {
	config     *PaymentGatewayConfig
	httpClient *http.Client
}

var _ PaymentIntentRequester = (*PaymentGatewayClient)(nil)

func NewPaymentGatewayClient(config *PaymentGatewayConfig, httpClient *http.Client) *PaymentGatewayClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PaymentGatewayClient{config: config, httpClient: httpClient}
}

// ValidateConfig validates the gateway configuration
func (pg *PaymentGatewayClient) ValidateConfig() error {
	if pg.config.BaseURL == "" {
		return fmt.Errorf("PG_BASE_URL is not set")
	}
	if pg.config.Username == "" {
		return fmt.Errorf("PG_USERNAME is not set")
	}
	if pg.config.Password == "" {
		return fmt.Errorf("PG_PASSWORD is not set")
	}
	if pg.config.Currency == "" {
		return fmt.Errorf("PAYMENT_CURRENCY is not set")
	}
	return nil
}

func (pg *PaymentGatewayClient) Currency() string {
	return pg.config.Currency
}

// PreparePayment -> POST /pg/prepare with basic auth
func (pg *PaymentGatewayClient) PreparePayment(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	if req.Currency == "" {
		req.Currency = pg.config.Currency
	}

	var intent models.PaymentIntent
	endpoint := strings.TrimRight(pg.config.BaseURL, "/") + "/pg/prepare"
	err := doJSON(ctx, pg.httpClient, http.MethodPost, endpoint, req, &intent, func(r *http.Request) {
		r.SetBasicAuth(pg.config.Username, pg.config.Password)
	})
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// AmountNumber renders a decimal as a JSON number
func AmountNumber(amount decimal.Decimal) json.Number {
	return json.Number(amount.String())
}
