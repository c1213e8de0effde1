package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/config"
	"github.com/yeremiapane/table-order/hub"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/router"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		utils.ErrorLogger.Fatalf("Invalid config: %v", err)
	}

	// Set gin mode
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := config.InitTracing(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to init tracing: %v", err)
	}

	ctx := context.Background()
	store, closeStore, err := config.InitStore(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to open store: %v", err)
	}

	httpClient := services.NewHTTPClient(cfg.HTTPClientTimeout)
	merchant := services.NewMerchantClient(cfg.MerchantAPIBaseURL, httpClient)
	gateway := services.NewPaymentGatewayClient(cfg.PaymentGateway(), httpClient)

	events := hub.New()
	menus := services.NewMenuService(merchant, cfg.MenuCacheTTL)
	carts := services.NewCartService(store, events, cfg.CartInactivityWindow)
	history := services.NewOrderHistoryService(store, merchant)
	checkout := services.NewCheckoutService(carts, merchant, gateway, history, events, cfg.Checkout())
	verifier := services.NewPaymentVerifier(merchant, history, carts, cfg.Verify())
	watcher := services.NewPaymentWatcher(verifier, events)

	var reviewPublisher services.ReviewPublisher = services.NopReviewPublisher{}
	var kafkaPublisher *services.KafkaReviewPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = services.NewKafkaReviewPublisher(cfg.KafkaBrokers, cfg.ReviewTopic)
		reviewPublisher = kafkaPublisher
		utils.InfoLogger.Infof("Publishing reviews to kafka topic %s", cfg.ReviewTopic)
	}
	reviews := services.NewReviewService(store, reviewPublisher)
	qrCodes := services.NewQRCodeService(cfg.PublicBaseURL)

	// Sweeper untuk keranjang yang tidak aktif
	sweeper := services.NewScopeSweeper(carts, cfg.SweepInterval)
	sweeper.Start()

	r := router.SetupRouter(router.Dependencies{
		Menus:          menus,
		Carts:          carts,
		Checkout:       checkout,
		History:        history,
		Verifier:       verifier,
		Watcher:        watcher,
		Reviews:        reviews,
		QRCodes:        qrCodes,
		Hub:            events,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middlewares.NewCORS(cfg.CORSAllowedOrigins).Handler(otelhttp.NewHandler(r, "table-order")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server forced to shutdown: %v", err)
	}
	watcher.StopAll()
	sweeper.Stop()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			utils.ErrorLogger.Printf("Error closing kafka writer: %v", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Error shutting down tracer: %v", err)
	}
	if err := closeStore(); err != nil {
		utils.ErrorLogger.Printf("Error closing store: %v", err)
	}
	utils.InfoLogger.Println("Server exited")
}
