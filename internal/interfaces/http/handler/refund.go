package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentapp "github.com/propshare/backend/internal/application/payment"
)

// RefundHandler handles refund HTTP requests
type RefundHandler struct {
	BaseHandler
	refundService *paymentapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *paymentapp.RefundService) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
	}
}

// CreateRefundRequest represents the request body for a refund
type CreateRefundRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" binding:"required"`
	Amount        int64     `json:"amount" binding:"required,gt=0"`
	Reason        string    `json:"reason" binding:"required,max=500"`
}

// RefundResponse represents the response for a processed refund
type RefundResponse struct {
	RefundRequestID uuid.UUID `json:"refund_request_id"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	Status          string    `json:"status"`
	GatewayRefundID string    `json:"gateway_refund_id,omitempty"`
}

// CreateRefund requests a refund against one of the investor's transactions.
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.refundService.Refund(c.Request.Context(), userID, req.TransactionID, req.Amount, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RefundResponse{
		RefundRequestID: result.RefundRequestID,
		TransactionID:   result.TransactionID,
		Status:          result.Status,
		GatewayRefundID: result.GatewayRefundID,
	})
}
