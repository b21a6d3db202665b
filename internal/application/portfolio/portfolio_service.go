package portfolio

import (
	"context"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PortfolioService is the read surface over properties, investor positions
// and the transaction ledger
type PortfolioService struct {
	propertyRepo    property.PropertyRepository
	shareRepo       property.ShareRepository
	transactionRepo payment.TransactionRepository
	logger          *zap.Logger
}

// NewPortfolioService creates a new PortfolioService
func NewPortfolioService(
	propertyRepo property.PropertyRepository,
	shareRepo property.ShareRepository,
	transactionRepo payment.TransactionRepository,
	logger *zap.Logger,
) *PortfolioService {
	return &PortfolioService{
		propertyRepo:    propertyRepo,
		shareRepo:       shareRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// PropertyInfo is the listing view of a property
type PropertyInfo struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	TotalTokens     int64     `json:"total_tokens"`
	AvailableTokens int64     `json:"available_tokens"`
	TokenPrice      int64     `json:"token_price"`
	Currency        string    `json:"currency"`
}

// PositionInfo is one investor position, joined with its property
type PositionInfo struct {
	PropertyID   uuid.UUID `json:"property_id"`
	PropertyName string    `json:"property_name"`
	TokensOwned  int64     `json:"tokens_owned"`
	CostBasis    int64     `json:"cost_basis"`
	TokenPrice   int64     `json:"token_price"`
	Currency     string    `json:"currency"`
}

// PortfolioResult is an investor's full position view
type PortfolioResult struct {
	Positions        []PositionInfo `json:"positions"`
	TotalTokensOwned int64          `json:"total_tokens_owned"`
	TotalCostBasis   int64          `json:"total_cost_basis"`
}

// ListProperties lists properties
func (s *PortfolioService) ListProperties(ctx context.Context, filter shared.Filter) ([]PropertyInfo, error) {
	properties, err := s.propertyRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	infos := make([]PropertyInfo, 0, len(properties))
	for _, p := range properties {
		infos = append(infos, toPropertyInfo(&p))
	}
	return infos, nil
}

// GetProperty returns one property listing
func (s *PortfolioService) GetProperty(ctx context.Context, id uuid.UUID) (*PropertyInfo, error) {
	prop, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := toPropertyInfo(prop)
	return &info, nil
}

// GetPortfolio returns the investor's positions with property details.
// Positions whose property can no longer be loaded are reported without
// the descriptive fields rather than dropped.
func (s *PortfolioService) GetPortfolio(ctx context.Context, userID uuid.UUID) (*PortfolioResult, error) {
	shares, err := s.shareRepo.FindAllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &PortfolioResult{Positions: make([]PositionInfo, 0, len(shares))}
	for _, share := range shares {
		position := PositionInfo{
			PropertyID:  share.PropertyID,
			TokensOwned: share.TokensOwned,
			CostBasis:   share.CostBasis,
		}
		prop, err := s.propertyRepo.FindByID(ctx, share.PropertyID)
		if err != nil {
			s.logger.Warn("Failed to load property for position",
				zap.String("property_id", share.PropertyID.String()),
				zap.Error(err))
		} else {
			position.PropertyName = prop.Name
			position.TokenPrice = prop.TokenPrice
			position.Currency = prop.Currency
		}
		result.Positions = append(result.Positions, position)
		result.TotalTokensOwned += share.TokensOwned
		result.TotalCostBasis += share.CostBasis
	}
	return result, nil
}

// ListTransactions lists the investor's ledger entries
func (s *PortfolioService) ListTransactions(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]payment.Transaction, error) {
	return s.transactionRepo.FindAllForUser(ctx, userID, filter)
}

func toPropertyInfo(p *property.Property) PropertyInfo {
	return PropertyInfo{
		ID:              p.ID,
		Name:            p.Name,
		TotalTokens:     p.TotalTokens,
		AvailableTokens: p.AvailableTokens,
		TokenPrice:      p.TokenPrice,
		Currency:        p.Currency,
	}
}
