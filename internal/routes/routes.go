package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"orane_back_end/internal/handlers/order"
	"orane_back_end/internal/handlers/user"
	"orane_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Webhook Stripe : signature vérifiée dans le handler, pas de JWT
	r.POST("/api/webhooks/stripe", order.StripeWebhook)

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Panier (authentifié)
	cart := api.Group("/cart")
	cart.Use(middleware.AuthRequired(), middleware.CartRateLimit())
	{
		cart.GET("", user.GetCart)
		cart.POST("/add", user.AddToCart)
		cart.PUT("/:productId", user.UpdateCartQuantity)
		cart.DELETE("/:productId", user.RemoveFromCart)
		cart.DELETE("", user.ClearCart)
	}

	// WebSockets temps réel
	ws := api.Group("/ws")
	ws.Use(middleware.AuthRequired())
	{
		ws.GET("/cart", user.CartWebSocket)
		ws.GET("/orders", user.OrderWebSocket)
	}

	// Commandes (authentifié)
	ordersGroup := api.Group("/orders")
	ordersGroup.Use(middleware.AuthRequired())
	{
		ordersGroup.POST("/checkout", middleware.CheckoutRateLimit(), order.Checkout)
		ordersGroup.GET("", order.GetMyOrders)
		ordersGroup.GET("/:id", order.GetOrderByID)
		ordersGroup.GET("/:id/payment-instructions", order.GetPaymentInstructions)
		ordersGroup.POST("/:id/proof", order.UploadPaymentProof)
		ordersGroup.POST("/:id/pay", order.CreateCardPayment)
		ordersGroup.POST("/:id/cancel", order.CancelOrder)
		ordersGroup.POST("/:id/refund-request", order.RequestRefund)
		ordersGroup.POST("/:id/invoice", order.SendInvoice)
	}

	// Remboursements (authentifié)
	api.GET("/refunds", middleware.AuthRequired(), order.GetMyRefunds)

	// Livraison et coupons (authentifié)
	api.GET("/shipping/options", order.GetShippingOptions)
	api.GET("/coupons/validate", middleware.AuthRequired(), order.ValidateCouponDetailed)

	// Administration
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.GET("/orders/search", order.SearchOrders)
		admin.GET("/orders/:id", order.AdminGetOrder)
		admin.POST("/orders/:id/verify-payment", order.VerifyPayment)
		admin.POST("/orders/:id/reject-payment", order.RejectPayment)
		admin.POST("/orders/:id/cancel", order.AdminCancelOrder)
		admin.POST("/orders/:id/processing", order.StartProcessing)
		admin.POST("/orders/:id/ship", order.ShipOrder)
		admin.POST("/orders/:id/delivered", order.MarkDelivered)

		admin.GET("/refunds", order.GetAllRefunds)
		admin.POST("/refunds/:id/process", order.ProcessRefund)

		admin.POST("/coupons", order.CreateCoupon)
		admin.GET("/coupons", order.GetAllCoupons)
		admin.PUT("/coupons/:code", order.UpdateCoupon)
		admin.DELETE("/coupons/:code", order.DeleteCoupon)

		admin.GET("/dashboard/stats", order.GetDashboardStats)
	}
}
