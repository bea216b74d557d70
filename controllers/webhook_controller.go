package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/services"
)

type WebhookController struct {
	Staging *services.StagingService
	Stripe  *services.StripeService
	Logger  *zap.Logger
}

func NewWebhookController(staging *services.StagingService, stripeSvc *services.StripeService, logger *zap.Logger) *WebhookController {
	return &WebhookController{
		Staging: staging,
		Stripe:  stripeSvc,
		Logger:  logger,
	}
}

// StripeWebhook receives payment lifecycle events. A confirmed payment sets
// the completion flag for the paying identity, which the next cart load
// consumes instead of rolling the staged checkout back.
func (wc *WebhookController) StripeWebhook(c *gin.Context) {
	event, err := wc.Stripe.ParseWebhook(c.Request)
	if err != nil {
		wc.Logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	wc.Logger.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			wc.Logger.Error("Failed to unmarshal checkout session", zap.Error(err))
			break
		}
		wc.completeForIdentity(c, sess.Metadata["user_id"], event.ID)
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			wc.Logger.Error("Failed to unmarshal payment intent", zap.Error(err))
			break
		}
		wc.completeForIdentity(c, pi.Metadata["user_id"], event.ID)
	default:
		wc.Logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (wc *WebhookController) completeForIdentity(c *gin.Context, identity, eventID string) {
	if identity == "" {
		wc.Logger.Warn("Missing user_id metadata in payment event",
			zap.String("event_id", eventID))
		return
	}

	if err := wc.Staging.MarkCheckoutComplete(c.Request.Context(), identity); err != nil {
		wc.Logger.Error("Failed to mark checkout complete",
			zap.String("user_id", identity),
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return
	}

	wc.Logger.Info("Checkout marked complete",
		zap.String("user_id", identity),
		zap.String("event_id", eventID),
	)
}
