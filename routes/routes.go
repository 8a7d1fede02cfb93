package routes

import (
	"bookstore/auth"
	"bookstore/controllers"
	"bookstore/logging"
	"bookstore/middleware"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Handlers struct {
	Info     *controllers.InfoController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Auth     *controllers.AuthController
}

// NewRouter builds the engine with the shared middleware chain and every route mounted.
func NewRouter(h Handlers, authSvc *auth.Service, logger *log.Logger, origins []string) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(middleware.RequestID(), logging.Middleware(logger), middleware.Recovery(), middleware.CORS(origins))

	RegisterRoutes(r, h, authSvc)
	return r
}

func RegisterRoutes(r *gin.Engine, h Handlers, authSvc *auth.Service) {
	r.GET("/", h.Info.Index)
	r.GET("/health", h.Info.Health)

	api := r.Group("/api")
	{
		api.GET("/products", h.Products.GetProductsPublic)

		api.GET("/cart", h.Cart.GetCart)
		api.POST("/cart", h.Cart.AddToCart)
		api.DELETE("/cart/:productId", h.Cart.RemoveFromCart)
		api.POST("/clear-cart", h.Cart.ClearCart)

		api.POST("/create-checkout-session", h.Checkout.CreateCheckoutSession)
		api.GET("/check-payment-status/:sessionId", h.Checkout.CheckPaymentStatus)

		api.POST("/admin/login", h.Auth.Login)

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(authSvc), middleware.AdminMiddleware())
		{
			admin.POST("/logout", h.Auth.Logout)

			admin.GET("/products", h.Products.GetProductsAdmin)
			admin.GET("/products/:id", h.Products.GetProductAdmin)
			admin.POST("/products", h.Products.CreateProduct)
			admin.PUT("/products/:id", h.Products.UpdateProduct)
			admin.DELETE("/products/:id", h.Products.DeleteProduct)
		}
	}
}
