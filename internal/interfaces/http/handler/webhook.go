package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentapp "github.com/propshare/backend/internal/application/payment"
	"github.com/propshare/backend/internal/domain/shared"
)

// Maximum webhook payload size (64KB - gateway webhooks are typically small)
const maxWebhookPayloadSize = 65536

// WebhookHandler handles payment gateway webhook endpoints.
// These endpoints are called by the gateway and do not require authentication.
type WebhookHandler struct {
	BaseHandler
	webhookService *paymentapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *paymentapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// WebhookResponse represents the response for a gateway webhook delivery
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandlePaymentWebhook receives and processes webhook events from the
// payment gateway. The raw body is needed for signature verification.
// Processing errors answer 500 so the gateway redelivers.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}

	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, WebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusUnauthorized, WebhookResponse{
			Received: false,
			Message:  "Missing Stripe-Signature header",
		})
		return
	}

	result, err := h.webhookService.Handle(c.Request.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, shared.ErrSignatureInvalid) {
			c.JSON(http.StatusUnauthorized, WebhookResponse{
				Received: false,
				Message:  "Webhook signature verification failed",
			})
			return
		}

		// A 5xx tells the gateway to redeliver once the fault clears.
		resp := WebhookResponse{
			Received: false,
			Message:  "Webhook processing failed",
		}
		if result != nil {
			resp.EventID = result.EventID
			resp.EventType = result.EventType
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Message:   result.Message,
	})
}
