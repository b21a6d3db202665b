package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	portfolioapp "github.com/propshare/backend/internal/application/portfolio"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/propshare/backend/internal/interfaces/http/dto"
)

// PropertyHandler handles property listing HTTP requests
type PropertyHandler struct {
	BaseHandler
	portfolioService *portfolioapp.PortfolioService
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(portfolioService *portfolioapp.PortfolioService) *PropertyHandler {
	return &PropertyHandler{
		portfolioService: portfolioService,
	}
}

// List returns the property listings available for purchase.
func (h *PropertyHandler) List(c *gin.Context) {
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

	properties, err := h.portfolioService.ListProperties(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, properties)
}

// Get returns one property listing by ID.
func (h *PropertyHandler) Get(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid property ID format")
		return
	}

	info, err := h.portfolioService.GetProperty(c.Request.Context(), propertyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}
