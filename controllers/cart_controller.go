package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/middleware"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/models"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/services"
)

type CartController struct {
	Carts    *services.CartService
	Staging  *services.StagingService
	Products services.ProductService
	Logger   *zap.Logger
}

func NewCartController(carts *services.CartService, staging *services.StagingService, products services.ProductService, logger *zap.Logger) *CartController {
	return &CartController{
		Carts:    carts,
		Staging:  staging,
		Products: products,
		Logger:   logger,
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type updateItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

type itemKeyRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (r itemKeyRequest) key() models.ItemKey {
	return models.ItemKey{ProductID: r.ProductID, Size: r.Size, Color: r.Color}.Normalize()
}

// GetCart resolves any checkout left in flight, then returns the cart with
// its derived totals.
func (cc *CartController) GetCart(c *gin.Context) {
	identity := middleware.Identity(c)
	ctx := c.Request.Context()

	outcome, err := cc.Staging.ReconcileOnLoad(ctx, identity)
	if err != nil {
		cc.Logger.Error("reconcile on load failed",
			zap.String("user_id", identity), zap.Error(err))
		apperrors.Respond(c, err)
		return
	}

	cart := cc.Carts.Load(ctx, identity)
	c.JSON(http.StatusOK, gin.H{
		"user_id":   cart.UserID,
		"items":     cart.Items,
		"totals":    cc.Carts.ComputeTotal(cart.Items),
		"reconcile": outcome,
	})
}

// AddItem merges a product into the cart. Price, name and image come from
// the catalog, never from the client.
func (cc *CartController) AddItem(c *gin.Context) {
	identity := middleware.Identity(c)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrInvalidPayload, err))
		return
	}

	ctx := c.Request.Context()
	product, err := cc.Products.GetProduct(ctx, req.ProductID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	item := models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Size:      req.Size,
		Color:     req.Color,
		ImageRef:  product.ImageURL,
	}

	cart, err := cc.Carts.AddItem(ctx, identity, item, req.Quantity)
	if err != nil {
		// The in-memory cart is still valid; the client may retry the write.
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  cart.Items,
		"totals": cc.Carts.ComputeTotal(cart.Items),
	})
}

// UpdateItem sets a line's quantity; zero or negative removes the line.
func (cc *CartController) UpdateItem(c *gin.Context) {
	identity := middleware.Identity(c)

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrInvalidPayload, err))
		return
	}

	key := models.ItemKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
	cart, err := cc.Carts.UpdateQuantity(c.Request.Context(), identity, key, *req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  cart.Items,
		"totals": cc.Carts.ComputeTotal(cart.Items),
	})
}

// RemoveItem deletes a line from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	identity := middleware.Identity(c)

	var req itemKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrInvalidPayload, err))
		return
	}

	cart, err := cc.Carts.RemoveItem(c.Request.Context(), identity, req.key())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  cart.Items,
		"totals": cc.Carts.ComputeTotal(cart.Items),
	})
}
