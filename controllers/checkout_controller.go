package controllers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/middleware"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/models"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/services"
)

type CheckoutController struct {
	Carts    *services.CartService
	Staging  *services.StagingService
	Products services.ProductService
	Stripe   *services.StripeService // nil when no payment provider is configured
	Logger   *zap.Logger
}

func NewCheckoutController(carts *services.CartService, staging *services.StagingService, products services.ProductService, stripeSvc *services.StripeService, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{
		Carts:    carts,
		Staging:  staging,
		Products: products,
		Stripe:   stripeSvc,
		Logger:   logger,
	}
}

type stageRequest struct {
	Items []itemKeyRequest `json:"items" binding:"required"`
}

type buyNowRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// Stage snapshots the selected cart lines for checkout and opens a payment
// for their total. The cart itself is left untouched until the payment
// webhook confirms the order.
func (cc *CheckoutController) Stage(c *gin.Context) {
	identity := middleware.Identity(c)

	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Wrap(apperrors.ErrInvalidPayload, err))
		return
	}

	selection := make([]models.ItemKey, 0, len(req.Items))
	for _, it := range req.Items {
		selection = append(selection, it.key())
	}

	ctx := c.Request.Context()
	staged, err := cc.Staging.StageForCheckout(ctx, identity, selection)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	cc.respondStaged(c, identity, staged)
}

// BuyNow stages a single product with quantity one, bypassing cart
// selection. The rest of the cart is backed up and untouched.
func (cc *CheckoutController) BuyNow(c *gin.Context) {
	identity := middleware.Identity(c)

	var req buyNowRequest
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

	staged, err := cc.Staging.StageSingleItem(ctx, identity, item)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	cc.respondStaged(c, identity, staged)
}

// Staged returns the lines of the in-flight checkout, if any.
func (cc *CheckoutController) Staged(c *gin.Context) {
	identity := middleware.Identity(c)

	staged, err := cc.Staging.StagedItems(c.Request.Context(), identity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if staged == nil {
		c.JSON(http.StatusOK, gin.H{"items": []models.CartItem{}, "staged": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  staged,
		"staged": true,
		"totals": cc.Carts.ComputeTotal(staged),
	})
}

func (cc *CheckoutController) respondStaged(c *gin.Context, identity string, staged []models.CartItem) {
	totals := cc.Carts.ComputeTotal(staged)
	resp := gin.H{
		"items":  staged,
		"totals": totals,
	}

	if cc.Stripe != nil {
		pi, err := cc.Stripe.CreatePaymentIntent(amountInCents(totals.Total), "usd", identity)
		if err != nil {
			cc.Logger.Error("failed to create payment intent",
				zap.String("user_id", identity), zap.Error(err))
			apperrors.Respond(c, apperrors.Wrap(apperrors.ErrPaymentFailed, err))
			return
		}
		resp["payment"] = gin.H{
			"payment_intent_id": pi.ID,
			"client_secret":     pi.ClientSecret,
		}
	}

	c.JSON(http.StatusOK, resp)
}

func amountInCents(total float64) int64 {
	return int64(math.Round(total * 100))
}
