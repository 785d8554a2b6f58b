package routes

import (
	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
)

// RegisterRoutes monte les routes publiques puis le groupe protégé par gate.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, gate gin.HandlerFunc) {
	r.GET("/", handlers.Home)

	// Users
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)

	// Session
	r.POST("/jwt-token", h.IssueToken)
	r.GET("/remove-token", h.ClearToken)

	// Stripe
	r.POST("/webhook", h.StripeWebhook)

	protected := r.Group("/")
	protected.Use(gate)
	{
		// Carts
		protected.GET("/carts", h.ListCarts)
		protected.POST("/carts", h.AddToCart)
		protected.DELETE("/carts/:uid/:productId", h.RemoveFromCart)

		// Payments
		protected.GET("/payment-history", h.PaymentHistory)
		protected.POST("/create-payment-intent", h.CreatePaymentIntent)
		protected.POST("/payments", h.RecordPayment)

		// Products
		protected.POST("/product", h.CreateProduct)
		protected.GET("/products", h.ListProducts)
		protected.GET("/brand/:brand", h.ProductsByBrand)
		protected.GET("/search", h.SearchProducts)
		protected.PUT("/update-product/:productId", middleware.AuditPriceChanges(h.Store), h.UpdateProduct)
		protected.POST("/product/:productId/photo", h.UploadProductPhoto)
		protected.GET("/:productId", h.ProductByID)
	}
}
