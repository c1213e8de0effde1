package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/config"
	"github.com/yeremiapane/table-order/hub"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/router"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func TestMain(m *testing.M) {
	utils.InitLogger("error")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndIntegration menguji flow utama:
// 1. Tambah menu ke keranjang
// 2. Checkout -> redirect ke payment gateway
// 3. Verifikasi pembayaran sampai sukses
// 4. Halaman selesai + riwayat order
func TestEndToEndIntegration(t *testing.T) {
	upstream := newUpstream(t)
	handler, watcher := setupServer(t, upstream.URL)
	server := httptest.NewServer(handler)
	defer server.Close()

	base := server.URL + "/restaurants/3/tables/5"

	// 1. Tambah menu
	resp := call(t, http.MethodPost, base+"/cart/items", `{"menuId": 1, "quantity": 2}`, http.StatusOK)
	cart := resp["data"].(map[string]interface{})
	assert.Equal(t, "17800", cart["totalAmount"])

	// 2. Checkout
	resp = call(t, http.MethodPost, base+"/checkout", `{"paymentMethod": "CARD"}`, http.StatusOK)
	record := resp["data"].(map[string]interface{})
	assert.Equal(t, "navigated", record["state"])
	assert.Equal(t, "/payment/ORD-1?restaurantId=3&tableId=5&paymentId=pay-1", record["redirectUrl"])

	// 3. Verifikasi
	call(t, http.MethodPost, base+"/payments/verify", "", http.StatusAccepted)
	result, err := watcher.Wait(context.Background(), models.Scope{RestaurantID: 3, TableID: 5}, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", string(result.Outcome))

	resp = call(t, http.MethodGet, base+"/cart", "", http.StatusOK)
	assert.Empty(t, resp["data"].(map[string]interface{})["items"])

	// 4. Completion + history
	resp = call(t, http.MethodGet, base+"/payments/complete?orderCode=ORD-1", "", http.StatusOK)
	assert.Equal(t, "17800", resp["data"].(map[string]interface{})["totalAmount"])

	resp = call(t, http.MethodGet, base+"/orders", "", http.StatusOK)
	assert.Len(t, resp["data"], 1)
}

func TestCORSPreflightThroughServer(t *testing.T) {
	upstream := newUpstream(t)
	handler, _ := setupServer(t, upstream.URL)

	req := httptest.NewRequest(http.MethodOptions, "/restaurants/3/tables/5/cart/items/abc", nil)
	req.Header.Set("Origin", "https://order.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://order.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

// setupServer wires the service the way main does, on a sqlite store
func setupServer(t *testing.T, upstreamURL string) (http.Handler, *services.PaymentWatcher) {
	t.Helper()
	cfg := config.Default()
	cfg.MerchantAPIBaseURL = upstreamURL
	cfg.PGBaseURL = upstreamURL
	cfg.PGUsername = "shop"
	cfg.PGPassword = "secret"
	cfg.StoreDriver = "sqlite"
	cfg.StoreDSN = filepath.Join(t.TempDir(), "table-order.db")
	cfg.CORSAllowedOrigins = []string{"https://order.example.com"}
	cfg.VerifyInitialInterval = time.Millisecond
	cfg.VerifyMaxInterval = 5 * time.Millisecond
	require.NoError(t, cfg.Validate())

	store, closeStore, err := config.InitStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { closeStore() })

	httpClient := services.NewHTTPClient(cfg.HTTPClientTimeout)
	merchant := services.NewMerchantClient(cfg.MerchantAPIBaseURL, httpClient)
	gateway := services.NewPaymentGatewayClient(cfg.PaymentGateway(), httpClient)

	events := hub.New()
	menus := services.NewMenuService(merchant, cfg.MenuCacheTTL)
	carts := services.NewCartService(store, events, cfg.CartInactivityWindow)
	history := services.NewOrderHistoryService(store, merchant)
	verifier := services.NewPaymentVerifier(merchant, history, carts, cfg.Verify())
	watcher := services.NewPaymentWatcher(verifier, events)
	t.Cleanup(watcher.StopAll)

	r := router.SetupRouter(router.Dependencies{
		Menus:          menus,
		Carts:          carts,
		Checkout:       services.NewCheckoutService(carts, merchant, gateway, history, events, cfg.Checkout()),
		History:        history,
		Verifier:       verifier,
		Watcher:        watcher,
		Reviews:        services.NewReviewService(store, nil),
		QRCodes:        services.NewQRCodeService(cfg.PublicBaseURL),
		Hub:            events,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return middlewares.NewCORS(cfg.CORSAllowedOrigins).Handler(otelhttp.NewHandler(r, "table-order")), watcher
}

// newUpstream fakes the merchant service and the payment gateway. The second
// verify call reports the payment as completed.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	var mutex sync.Mutex
	verifyCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/merchant/menus/3/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data": [{"menuId": 1, "name": "Bulgogi", "category": "Main", "price": 8900, "isAvailable": true}]}`)
	})
	mux.HandleFunc("/orders/prepare", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data": {"orderCode": "ORD-1", "totalAmount": 17800}}`)
	})
	mux.HandleFunc("/pg/prepare", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data": {"paymentId": "pay-1"}}`)
	})
	mux.HandleFunc("/orders/code/ORD-1/verify", func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		verifyCalls++
		status := "PENDING"
		if verifyCalls >= 2 {
			status = "COMPLETED"
		}
		mutex.Unlock()
		writeJSON(w, fmt.Sprintf(`{"data": {"paymentStatus": %q}}`, status))
	})
	mux.HandleFunc("/orders/code/ORD-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data": {"orderCode": "ORD-1", "createdAt": "2025-05-01 12:30:00",
			"menus": [{"menuId": 1, "menuName": "Bulgogi", "quantity": 2, "unitPrice": 8900}]}}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func call(t *testing.T, method, url, body string, wantStatus int) map[string]interface{} {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, wantStatus, res.StatusCode, "%s %s", method, strings.TrimPrefix(url, "http://"))

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	return resp
}
