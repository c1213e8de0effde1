package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/yeremiapane/table-order/models"
)

// CatalogSource serves menus and restaurant info
type CatalogSource interface {
	ListMenus(ctx context.Context, merchantID int64) ([]models.MenuItem, error)
	Overview(ctx context.Context, merchantID int64) (*models.MerchantOverview, error)
}

// OrderPreparer turns a cart into a server-side order
type OrderPreparer interface {
	PrepareOrder(ctx context.Context, req models.PrepareOrderRequest) (*models.PreparedOrder, error)
}

// PaymentStatusChecker asks for the payment state of an order
type PaymentStatusChecker interface {
	VerifyPayment(ctx context.Context, orderCode string) (models.PaymentStatus, error)
}

// OrderFetcher loads a placed order
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderCode string) (*models.OrderDetail, error)
}

// MerchantClient talks to the merchant order service
type MerchantClient struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ CatalogSource        = (*MerchantClient)(nil)
	_ OrderPreparer        = (*MerchantClient)(nil)
	_ PaymentStatusChecker = (*MerchantClient)(nil)
	_ OrderFetcher         = (*MerchantClient)(nil)
)

func NewMerchantClient(baseURL string, httpClient *http.Client) *MerchantClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MerchantClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListMenus -> GET /merchant/menus/{merchantId}/list
func (mc *MerchantClient) ListMenus(ctx context.Context, merchantID int64) ([]models.MenuItem, error) {
	var menus []models.MenuItem
	endpoint := fmt.Sprintf("%s/merchant/menus/%d/list", mc.baseURL, merchantID)
	if err := doJSON(ctx, mc.httpClient, http.MethodGet, endpoint, nil, &menus, nil); err != nil {
		return nil, fmt.Errorf("list menus of merchant %d: %w", merchantID, err)
	}
	return menus, nil
}

// Overview -> GET /merchant/{merchantId}/overview
func (mc *MerchantClient) Overview(ctx context.Context, merchantID int64) (*models.MerchantOverview, error) {
	var overview models.MerchantOverview
	endpoint := fmt.Sprintf("%s/merchant/%d/overview", mc.baseURL, merchantID)
	if err := doJSON(ctx, mc.httpClient, http.MethodGet, endpoint, nil, &overview, nil); err != nil {
		return nil, fmt.Errorf("overview of merchant %d: %w", merchantID, err)
	}
	return &overview, nil
}

// PrepareOrder -> POST /orders/prepare
func (mc *MerchantClient) PrepareOrder(ctx context.Context, req models.PrepareOrderRequest) (*models.PreparedOrder, error) {
	var prepared models.PreparedOrder
	if err := doJSON(ctx, mc.httpClient, http.MethodPost, mc.baseURL+"/orders/prepare", req, &prepared, nil); err != nil {
		return nil, err
	}
	if prepared.OrderCode == "" {
		return nil, fmt.Errorf("order service answered without an order code")
	}
	return &prepared, nil
}

// VerifyPayment -> POST /orders/code/{orderCode}/verify
func (mc *MerchantClient) VerifyPayment(ctx context.Context, orderCode string) (models.PaymentStatus, error) {
	var verification models.PaymentVerification
	endpoint := fmt.Sprintf("%s/orders/code/%s/verify", mc.baseURL, url.PathEscape(orderCode))
	if err := doJSON(ctx, mc.httpClient, http.MethodPost, endpoint, nil, &verification, nil); err != nil {
		return "", err
	}
	return verification.PaymentStatus, nil
}

// GetOrder -> GET /orders/code/{orderCode}
func (mc *MerchantClient) GetOrder(ctx context.Context, orderCode string) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	endpoint := fmt.Sprintf("%s/orders/code/%s", mc.baseURL, url.PathEscape(orderCode))
	if err := doJSON(ctx, mc.httpClient, http.MethodGet, endpoint, nil, &detail, nil); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderCode, err)
	}
	if detail.OrderCode == "" {
		detail.OrderCode = orderCode
	}
	return &detail, nil
}
