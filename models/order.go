package models

import (
	"github.com/shopspring/decimal"
)

// CurrentOrder is the reference kept per scope right after an order is prepared,
// so the payment pages can recover it without URL parameters.
type CurrentOrder struct {
	OrderCode   string          `json:"orderCode"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type PrepareOrderMenu struct {
	MenuID    int64   `json:"menuId"`
	Quantity  int     `json:"quantity"`
	OptionIDs []int64 `json:"optionIds"`
}

// PrepareOrderRequest is the body of POST /orders/prepare
type PrepareOrderRequest struct {
	TableID       int64              `json:"tableId"`
	MerchantID    int64              `json:"merchantId"`
	Menus         []PrepareOrderMenu `json:"menus"`
	PaymentMethod string             `json:"paymentMethod"`
}

// PreparedOrder is what the merchant service confirms
type PreparedOrder struct {
	OrderCode   string          `json:"orderCode"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type OrderDetailOption struct {
	OptionName  string          `json:"optionName"`
	OptionPrice decimal.Decimal `json:"optionPrice"`
}

type OrderDetailMenu struct {
	MenuID    int64               `json:"menuId"`
	MenuName  string              `json:"menuName"`
	Quantity  int                 `json:"quantity"`
	UnitPrice decimal.Decimal     `json:"unitPrice"`
	Options   []OrderDetailOption `json:"options"`
}

// OrderDetail is returned by GET /orders/code/{orderCode}
type OrderDetail struct {
	OrderCode   string            `json:"orderCode"`
	Status      string            `json:"status,omitempty"`
	CreatedAt   Timestamp         `json:"createdAt"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Menus       []OrderDetailMenu `json:"menus"`
}

// LineTotal of a detail row including its options
func (m OrderDetailMenu) LineTotal() decimal.Decimal {
	unit := m.UnitPrice
	for _, opt := range m.Options {
		unit = unit.Add(opt.OptionPrice)
	}
	return unit.Mul(decimal.NewFromInt(int64(m.Quantity)))
}

// OrderHistoryEntry is one past order of a table, labelled for display
type OrderHistoryEntry struct {
	Label       string            `json:"label"`
	OrderCode   string            `json:"orderCode"`
	CreatedAt   Timestamp         `json:"createdAt"`
	TotalItems  int               `json:"totalItems"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Menus       []OrderDetailMenu `json:"menus"`
}
