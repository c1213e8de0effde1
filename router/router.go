package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/controllers"
	"github.com/yeremiapane/table-order/hub"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/services"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Menus    *services.MenuService
	Carts    *services.CartService
	Checkout *services.CheckoutService
	History  *services.OrderHistoryService
	Verifier *services.PaymentVerifier
	Watcher  *services.PaymentWatcher
	Reviews  *services.ReviewService
	QRCodes  *services.QRCodeService
	Hub      *hub.Hub

	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.LoggerMiddleware())
	if deps.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst).RateLimit())
	}

	// Inisialisasi controller
	menuCtrl := controllers.NewMenuController(deps.Menus)
	cartCtrl := controllers.NewCartController(deps.Carts, deps.Menus)
	checkoutCtrl := controllers.NewCheckoutController(deps.Checkout)
	orderCtrl := controllers.NewOrderController(deps.History)
	paymentCtrl := controllers.NewPaymentController(deps.Verifier, deps.Watcher)
	reviewCtrl := controllers.NewReviewController(deps.Reviews)
	tableCtrl := controllers.NewTableController(deps.QRCodes)
	eventCtrl := controllers.NewEventController(deps.Hub, deps.AllowedOrigins)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// -- MERCHANT --
	r.GET("/restaurants/:restaurant_id/overview", menuCtrl.GetOverview)
	r.GET("/restaurants/:restaurant_id/menus", menuCtrl.GetCatalog)

	// Metrik verifikasi pembayaran
	r.GET("/payments/metrics", paymentCtrl.GetPaymentMetrics)

	// Event real-time per meja
	r.GET("/ws/restaurants/:restaurant_id/tables/:table_id", middlewares.ScopeRequired(), eventCtrl.TableEvents)

	// ----------------------------------------------------------------
	//                      TABLE ROUTES
	// ----------------------------------------------------------------
	table := r.Group("/restaurants/:restaurant_id/tables/:table_id")
	table.Use(middlewares.ScopeRequired())
	{
		table.GET("/qrcode", tableCtrl.GetTableQRCode)

		table.GET("/cart", cartCtrl.GetCart)
		table.DELETE("/cart", cartCtrl.ClearCart)
		table.POST("/cart/items", cartCtrl.AddItem)
		table.PATCH("/cart/items/:line_key", cartCtrl.UpdateQuantity)
		table.DELETE("/cart/items/:line_key", cartCtrl.RemoveItem)

		table.GET("/orders", orderCtrl.GetOrderHistory)
		table.GET("/orders/current", orderCtrl.GetCurrentOrder)

		table.POST("/reviews", reviewCtrl.SubmitReview)
		table.GET("/reviews", reviewCtrl.GetReviewed)
	}

	// Checkout dan pembayaran memanggil merchant service, jadi dibatasi lebih ketat
	payment := table.Group("")
	payment.Use(middlewares.PaymentSecurityHeaders(), middlewares.LogPaymentRequest())
	if deps.RateLimitRPS > 0 {
		payment.Use(middlewares.PaymentRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst))
	}
	{
		payment.POST("/checkout", checkoutCtrl.StartCheckout)
		payment.GET("/checkout", checkoutCtrl.GetCheckout)
		payment.POST("/payments/verify", paymentCtrl.StartVerification)
		payment.GET("/payments/status", paymentCtrl.GetPaymentStatus)
		payment.GET("/payments/complete", paymentCtrl.GetCompletion)
	}

	return r
}
