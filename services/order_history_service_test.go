package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
)

type mockOrderFetcher struct {
	mock.Mock
}

func (m *mockOrderFetcher) GetOrder(ctx context.Context, orderCode string) (*models.OrderDetail, error) {
	args := m.Called(ctx, orderCode)
	if detail, ok := args.Get(0).(*models.OrderDetail); ok {
		return detail, args.Error(1)
	}
	return nil, args.Error(1)
}

func at(hour, minute int) models.Timestamp {
	return models.Timestamp{Time: time.Date(2025, 5, 1, hour, minute, 0, 0, time.UTC)}
}

func TestCurrentOrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	history := NewOrderHistoryService(database.NewMemoryStore(), nil)

	_, err := history.Current(ctx, testScope)
	assert.ErrorIs(t, err, ErrMissingOrderContext)

	require.NoError(t, history.SaveCurrent(ctx, testScope, models.CurrentOrder{OrderCode: "ORD-1", TotalAmount: price(12000)}))
	current, err := history.Current(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", current.OrderCode)
	assert.True(t, current.TotalAmount.Equal(price(12000)))

	other := models.Scope{RestaurantID: 3, TableID: 6}
	_, err = history.Current(ctx, other)
	assert.ErrorIs(t, err, ErrMissingOrderContext)
}

func TestCurrentOrderMalformed(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	require.NoError(t, store.Set(ctx, testScope.CurrentOrderKey(), "{not json"))

	_, err := NewOrderHistoryService(store, nil).Current(ctx, testScope)
	assert.ErrorIs(t, err, ErrMissingOrderContext)
}

func TestRecordDeduplicates(t *testing.T) {
	ctx := context.Background()
	history := NewOrderHistoryService(database.NewMemoryStore(), nil)

	for _, code := range []string{"A", "B", "A"} {
		require.NoError(t, history.Record(ctx, testScope, code))
	}
	codes, err := history.Codes(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, codes)
}

func TestCodesMalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	require.NoError(t, store.Set(ctx, testScope.OrderHistoryKey(), "oops"))

	codes, err := NewOrderHistoryService(store, nil).Codes(ctx, testScope)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestHistoryNewestFirstAndSkipsFailures(t *testing.T) {
	ctx := context.Background()
	fetcher := new(mockOrderFetcher)
	history := NewOrderHistoryService(database.NewMemoryStore(), fetcher)
	for _, code := range []string{"OLD", "GONE", "NEW"} {
		require.NoError(t, history.Record(ctx, testScope, code))
	}

	fetcher.On("GetOrder", mock.Anything, "OLD").Return(&models.OrderDetail{
		OrderCode:   "OLD",
		CreatedAt:   at(11, 5),
		TotalAmount: price(8900),
		Menus: []models.OrderDetailMenu{
			{MenuID: 1, MenuName: "Bibimbap", Quantity: 1, UnitPrice: price(8900)},
		},
	}, nil)
	fetcher.On("GetOrder", mock.Anything, "GONE").Return(nil, &APIError{StatusCode: 404, Message: "order not found"})
	fetcher.On("GetOrder", mock.Anything, "NEW").Return(&models.OrderDetail{
		OrderCode: "NEW",
		CreatedAt: at(12, 30),
		Menus: []models.OrderDetailMenu{
			{MenuID: 1, MenuName: "Bibimbap", Quantity: 2, UnitPrice: price(8900),
				Options: []models.OrderDetailOption{{OptionName: "Large", OptionPrice: price(1500)}}},
			{MenuID: 3, MenuName: "Mandu", Quantity: 1, UnitPrice: price(3500)},
		},
	}, nil)

	entries, err := history.History(ctx, testScope)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "NEW", entries[0].OrderCode)
	assert.Equal(t, "2025-05-01 12:30", entries[0].Label)
	assert.Equal(t, 3, entries[0].TotalItems)
	assert.True(t, entries[0].TotalAmount.Equal(price(24300)), "summed from lines: %s", entries[0].TotalAmount)

	assert.Equal(t, "OLD", entries[1].OrderCode)
	assert.Equal(t, "2025-05-01 11:05", entries[1].Label)
	assert.True(t, entries[1].TotalAmount.Equal(price(8900)))
	fetcher.AssertExpectations(t)
}

func TestHistoryStoreError(t *testing.T) {
	store := &failingStore{MemoryStore: database.NewMemoryStore(), failKey: testScope.OrderHistoryKey()}
	_, err := NewOrderHistoryService(store, new(mockOrderFetcher)).History(context.Background(), testScope)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingOrderContext))
}

func TestSettleOnlyOwnOrdersOnce(t *testing.T) {
	ctx := context.Background()
	history := NewOrderHistoryService(database.NewMemoryStore(), nil)
	require.NoError(t, history.SaveCurrent(ctx, testScope, models.CurrentOrder{OrderCode: "ORD-2", TotalAmount: price(5000)}))
	require.NoError(t, history.Record(ctx, testScope, "ORD-1"))

	tests := []struct {
		code string
		want bool
	}{
		{"ORD-2", true},
		{"ORD-2", false},
		{"ORD-1", true},
		{"ORD-1", false},
		{"ORD-9", false},
	}
	for _, tt := range tests {
		first, err := history.Settle(ctx, testScope, tt.code)
		require.NoError(t, err)
		assert.Equal(t, tt.want, first, tt.code)
	}

	other := models.Scope{RestaurantID: 3, TableID: 6}
	first, err := history.Settle(ctx, other, "ORD-2")
	require.NoError(t, err)
	assert.False(t, first, "orders of another table are not settled here")
}
