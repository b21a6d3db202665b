package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentapp "github.com/propshare/backend/internal/application/payment"
)

// PaymentIntentHandler handles payment intent HTTP requests
type PaymentIntentHandler struct {
	BaseHandler
	intentService *paymentapp.IntentService
}

// NewPaymentIntentHandler creates a new PaymentIntentHandler
func NewPaymentIntentHandler(intentService *paymentapp.IntentService) *PaymentIntentHandler {
	return &PaymentIntentHandler{
		intentService: intentService,
	}
}

// CreateIntentRequest represents the request body for opening a payment intent.
// PropertyID and TokenAmount are set together for token purchases; both
// omitted means a bare charge.
type CreateIntentRequest struct {
	PropertyID      *uuid.UUID        `json:"property_id,omitempty"`
	Amount          int64             `json:"amount" binding:"required,gt=0"`
	Currency        string            `json:"currency" binding:"required,len=3"`
	PaymentMethodID string            `json:"payment_method_id" binding:"required"`
	TokenAmount     *int64            `json:"token_amount,omitempty"`
	IdempotencyKey  string            `json:"idempotency_key,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// CreateIntentResponse represents the response for a created payment intent
type CreateIntentResponse struct {
	TransactionID uuid.UUID    `json:"transaction_id"`
	ClientSecret  string       `json:"client_secret"`
	Fees          FeeBreakdown `json:"fees"`
}

// FeeBreakdown represents the fee detail in intent responses
type FeeBreakdown struct {
	PlatformFee   int64 `json:"platform_fee"`
	ProcessingFee int64 `json:"processing_fee"`
	TotalCharge   int64 `json:"total_charge"`
}

// CreateIntent opens a gateway payment intent and its pending ledger row.
func (h *PaymentIntentHandler) CreateIntent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.intentService.CreateIntent(c.Request.Context(), userID, paymentapp.CreateIntentInput{
		PropertyID:      req.PropertyID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
		TokenAmount:     req.TokenAmount,
		IdempotencyKey:  req.IdempotencyKey,
		Metadata:        req.Metadata,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, CreateIntentResponse{
		TransactionID: result.TransactionID,
		ClientSecret:  result.ClientSecret,
		Fees: FeeBreakdown{
			PlatformFee:   result.Fees.PlatformFee,
			ProcessingFee: result.Fees.ProcessingFee,
			TotalCharge:   result.Fees.TotalCharge,
		},
	})
}
