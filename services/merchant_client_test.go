package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
)

func newMerchantServer(t *testing.T, routes map[string]http.HandlerFunc) *MerchantClient {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewMerchantClient(server.URL+"/", server.Client())
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestMerchantClient_ListMenus(t *testing.T) {
	mc := newMerchantServer(t, map[string]http.HandlerFunc{
		"/merchant/menus/3/list": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			writeBody(w, http.StatusOK, `{"data": [{
				"menuId": 1, "name": "Bibimbap", "category": "Rice", "price": 8900,
				"isAvailable": true,
				"optionGroups": [{"groupId": 10, "groupName": "Size", "displaySequence": 1, "isDefault": true,
					"options": [{"optionId": 100, "optionName": "Regular", "optionPrice": 0},
					            {"optionId": 101, "optionName": "Large", "optionPrice": 1500}]}]
			}]}`)
		},
	})

	menus, err := mc.ListMenus(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.Equal(t, "Bibimbap", menus[0].Name)
	assert.True(t, menus[0].Price.Equal(decimal.NewFromInt(8900)))
	require.Len(t, menus[0].OptionGroups, 1)
	assert.True(t, menus[0].OptionGroups[0].Required())
	assert.True(t, menus[0].OptionGroups[0].Options[1].OptionPrice.Equal(decimal.NewFromInt(1500)))
}

func TestMerchantClient_Overview(t *testing.T) {
	mc := newMerchantServer(t, map[string]http.HandlerFunc{
		"/merchant/3/overview": func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, `{"merchantId": 3, "merchantName": "Seoul Kitchen", "merchantImgUrl": "https://img/3.png"}`)
		},
	})

	overview, err := mc.Overview(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, &models.MerchantOverview{MerchantID: 3, MerchantName: "Seoul Kitchen", MerchantImgURL: "https://img/3.png"}, overview)
}

func TestMerchantClient_PrepareOrder(t *testing.T) {
	var body models.PrepareOrderRequest
	mc := newMerchantServer(t, map[string]http.HandlerFunc{
		"/orders/prepare": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeBody(w, http.StatusOK, `{"data": {"orderCode": "ORD-77", "totalAmount": 21300}}`)
		},
	})

	prepared, err := mc.PrepareOrder(context.Background(), models.PrepareOrderRequest{
		TableID:       5,
		MerchantID:    3,
		Menus:         []models.PrepareOrderMenu{{MenuID: 1, Quantity: 2, OptionIDs: []int64{100}}},
		PaymentMethod: "CARD",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-77", prepared.OrderCode)
	assert.True(t, prepared.TotalAmount.Equal(decimal.NewFromInt(21300)))
	assert.Equal(t, int64(5), body.TableID)
	assert.Equal(t, []int64{100}, body.Menus[0].OptionIDs)
}

func TestMerchantClient_PrepareOrderWithoutCode(t *testing.T) {
	mc := newMerchantServer(t, map[string]http.HandlerFunc{
		"/orders/prepare": func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, `{"data": {}}`)
		},
	})

	_, err := mc.PrepareOrder(context.Background(), models.PrepareOrderRequest{})
	assert.Error(t, err)
}

func TestMerchantClient_VerifyPayment(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   string
		mockStatusCode int
		wantStatus     models.PaymentStatus
		wantErr        bool
		wantPermanent  bool
	}{
		{
			name:           "succeeded",
			mockResponse:   `{"data": {"paymentStatus": "SUCCEEDED"}}`,
			mockStatusCode: http.StatusOK,
			wantStatus:     models.PaymentStatusSucceeded,
		},
		{
			name:           "pending",
			mockResponse:   `{"data": {"paymentStatus": "PENDING"}}`,
			mockStatusCode: http.StatusOK,
			wantStatus:     models.PaymentStatusPending,
		},
		{
			name:           "unknown order",
			mockResponse:   `{"message": "order not found"}`,
			mockStatusCode: http.StatusNotFound,
			wantErr:        true,
			wantPermanent:  true,
		},
		{
			name:           "server error",
			mockResponse:   `oops`,
			mockStatusCode: http.StatusBadGateway,
			wantErr:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := newMerchantServer(t, map[string]http.HandlerFunc{
				"/orders/code/ORD-1/verify": func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, http.MethodPost, r.Method)
					writeBody(w, tt.mockStatusCode, tt.mockResponse)
				},
			})

			status, err := mc.VerifyPayment(context.Background(), "ORD-1")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantPermanent, IsPermanent(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestMerchantClient_GetOrder(t *testing.T) {
	mc := newMerchantServer(t, map[string]http.HandlerFunc{
		"/orders/code/ORD-9": func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, `{"data": {
				"createdAt": "2025-05-01T12:30:00",
				"totalAmount": 10400,
				"menus": [{"menuId": 3, "menuName": "Tteokbokki", "quantity": 2, "unitPrice": 4500,
					"options": [{"optionName": "Cheese", "optionPrice": 700}]}]
			}}`)
		},
	})

	detail, err := mc.GetOrder(context.Background(), "ORD-9")
	require.NoError(t, err)
	assert.Equal(t, "ORD-9", detail.OrderCode)
	assert.Equal(t, 2025, detail.CreatedAt.Year())
	assert.Equal(t, 30, detail.CreatedAt.Minute())
	require.Len(t, detail.Menus, 1)
	assert.True(t, detail.Menus[0].LineTotal().Equal(decimal.NewFromInt(10400)))
}

func TestMerchantClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	mc := NewMerchantClient(server.URL, server.Client())
	server.Close()

	_, err := mc.ListMenus(context.Background(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.False(t, IsPermanent(err))
}
