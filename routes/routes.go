package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/config"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/controllers"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/logger"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/middleware"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/services"
)

// Register wires all HTTP routes onto the router.
func Register(
	r *gin.Engine,
	cfg config.Config,
	carts *services.CartService,
	staging *services.StagingService,
	products services.ProductService,
	stripeSvc *services.StripeService,
	log *zap.Logger,
) {
	r.Use(logger.RequestLogger())
	r.Use(cors.Default())
	r.Use(middleware.RateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cartController := controllers.NewCartController(carts, staging, products, log)
	checkoutController := controllers.NewCheckoutController(carts, staging, products, stripeSvc, log)
	productController := controllers.NewProductController(products, log)

	identified := r.Group("/")
	identified.Use(middleware.ResolveIdentity(cfg.JWTSecret))
	{
		cart := identified.Group("/cart")
		{
			cart.GET("", cartController.GetCart)
			cart.POST("/items", cartController.AddItem)
			cart.PATCH("/items", cartController.UpdateItem)
			cart.DELETE("/items", cartController.RemoveItem)
		}

		checkout := identified.Group("/checkout")
		{
			checkout.POST("/stage", checkoutController.Stage)
			checkout.POST("/buy-now", checkoutController.BuyNow)
			checkout.GET("/staged", checkoutController.Staged)
		}

		identified.GET("/products", productController.GetProducts)
		identified.GET("/products/:id", productController.GetProduct)
	}

	if stripeSvc != nil {
		webhookController := controllers.NewWebhookController(staging, stripeSvc, log)
		r.POST("/webhooks/stripe", webhookController.StripeWebhook)
	}
}
