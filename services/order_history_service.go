package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

const historyLabelLayout = "2006-01-02 15:04"

// OrderHistoryService keeps the current order and the codes of past orders of a table
type OrderHistoryService struct {
	store  database.Store
	orders OrderFetcher
	mutex  sync.Mutex // guards settlement
}

func NewOrderHistoryService(store database.Store, orders OrderFetcher) *OrderHistoryService {
	return &OrderHistoryService{store: store, orders: orders}
}

// SaveCurrent stores the order the table is paying for
func (hs *OrderHistoryService) SaveCurrent(ctx context.Context, scope models.Scope, current models.CurrentOrder) error {
	return database.SetJSON(ctx, hs.store, scope.CurrentOrderKey(), current)
}

// Current returns the stored current order or ErrMissingOrderContext
func (hs *OrderHistoryService) Current(ctx context.Context, scope models.Scope) (*models.CurrentOrder, error) {
	var current models.CurrentOrder
	found, err := database.GetJSON(ctx, hs.store, scope.CurrentOrderKey(), &current)
	if err != nil && found {
		utils.ErrorLogger.Errorf("Malformed current order of %s: %v", scope, err)
		return nil, ErrMissingOrderContext
	}
	if err != nil {
		return nil, err
	}
	if !found || current.OrderCode == "" {
		return nil, ErrMissingOrderContext
	}
	return &current, nil
}

// Record appends an order code to the table's history
func (hs *OrderHistoryService) Record(ctx context.Context, scope models.Scope, orderCode string) error {
	codes, err := hs.Codes(ctx, scope)
	if err != nil {
		return err
	}
	for _, code := range codes {
		if code == orderCode {
			return nil
		}
	}
	return database.SetJSON(ctx, hs.store, scope.OrderHistoryKey(), append(codes, orderCode))
}

// Settle marks a paid order of the table. It reports true only the first time
// an order the table placed itself (its current order or a recorded one) is settled.
func (hs *OrderHistoryService) Settle(ctx context.Context, scope models.Scope, orderCode string) (bool, error) {
	hs.mutex.Lock()
	defer hs.mutex.Unlock()

	owned, err := hs.owns(ctx, scope, orderCode)
	if err != nil || !owned {
		return false, err
	}

	settled := make([]string, 0)
	found, err := database.GetJSON(ctx, hs.store, scope.SettledKey(), &settled)
	if err != nil && found {
		utils.ErrorLogger.Errorf("Malformed settled orders of %s: %v", scope, err)
		settled = make([]string, 0)
	} else if err != nil {
		return false, err
	}
	for _, code := range settled {
		if code == orderCode {
			return false, nil
		}
	}
	if err := database.SetJSON(ctx, hs.store, scope.SettledKey(), append(settled, orderCode)); err != nil {
		return false, err
	}
	return true, nil
}

func (hs *OrderHistoryService) owns(ctx context.Context, scope models.Scope, orderCode string) (bool, error) {
	current, err := hs.Current(ctx, scope)
	if err == nil && current.OrderCode == orderCode {
		return true, nil
	}
	if err != nil && !errors.Is(err, ErrMissingOrderContext) {
		return false, err
	}
	codes, err := hs.Codes(ctx, scope)
	if err != nil {
		return false, err
	}
	for _, code := range codes {
		if code == orderCode {
			return true, nil
		}
	}
	return false, nil
}

// Codes lists recorded order codes, oldest first
func (hs *OrderHistoryService) Codes(ctx context.Context, scope models.Scope) ([]string, error) {
	codes := make([]string, 0)
	found, err := database.GetJSON(ctx, hs.store, scope.OrderHistoryKey(), &codes)
	if err != nil && found {
		utils.ErrorLogger.Errorf("Malformed order history of %s: %v", scope, err)
		return make([]string, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// History loads the detail of every recorded order, newest first.
// Orders that cannot be fetched are skipped.
func (hs *OrderHistoryService) History(ctx context.Context, scope models.Scope) ([]models.OrderHistoryEntry, error) {
	codes, err := hs.Codes(ctx, scope)
	if err != nil {
		return nil, err
	}

	entries := make([]models.OrderHistoryEntry, 0, len(codes))
	for _, code := range codes {
		detail, err := hs.orders.GetOrder(ctx, code)
		if err != nil {
			utils.ErrorLogger.Errorf("Skipping order %s of %s: %v", code, scope, err)
			continue
		}

		entry := models.OrderHistoryEntry{
			Label:       detail.CreatedAt.Format(historyLabelLayout),
			OrderCode:   detail.OrderCode,
			CreatedAt:   detail.CreatedAt,
			TotalAmount: detail.TotalAmount,
			Menus:       detail.Menus,
		}
		sumFromLines := entry.TotalAmount.IsZero()
		for _, menu := range detail.Menus {
			entry.TotalItems += menu.Quantity
			if sumFromLines {
				entry.TotalAmount = entry.TotalAmount.Add(menu.LineTotal())
			}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt.Time)
	})
	return entries, nil
}
