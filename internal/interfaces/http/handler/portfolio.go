package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	portfolioapp "github.com/propshare/backend/internal/application/portfolio"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/propshare/backend/internal/interfaces/http/dto"
)

// PortfolioHandler handles investor portfolio HTTP requests
type PortfolioHandler struct {
	BaseHandler
	portfolioService *portfolioapp.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *portfolioapp.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// TransactionResponse represents one ledger entry in list responses
type TransactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	PropertyID    *uuid.UUID `json:"property_id,omitempty"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	TokenAmount   *int64     `json:"token_amount,omitempty"`
	PlatformFee   int64      `json:"platform_fee"`
	ProcessingFee int64      `json:"processing_fee"`
	TotalCharge   int64      `json:"total_charge"`
	Settled       bool       `json:"settled"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GetPortfolio returns the investor's positions across all properties.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.portfolioService.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListTransactions returns the investor's ledger entries.
func (h *PortfolioHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}

	transactions, err := h.portfolioService.ListTransactions(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, toTransactionResponse(&transactions[i]))
	}

	h.Success(c, responses)
}

func toTransactionResponse(tx *payment.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		PropertyID:    tx.PropertyID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Kind:          string(tx.Kind),
		Status:        string(tx.Status),
		TokenAmount:   tx.TokenAmount,
		PlatformFee:   tx.PlatformFee,
		ProcessingFee: tx.ProcessingFee,
		TotalCharge:   tx.TotalCharge,
		Settled:       tx.Settled,
		ProcessedAt:   tx.ProcessedAt,
		CreatedAt:     tx.CreatedAt,
	}
}
