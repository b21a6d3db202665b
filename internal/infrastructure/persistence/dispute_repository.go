package persistence

import (
	"context"
	"errors"

	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDisputeRepository implements DisputeRepository using GORM
type GormDisputeRepository struct {
	db *gorm.DB
}

// NewGormDisputeRepository creates a new GormDisputeRepository
func NewGormDisputeRepository(db *gorm.DB) *GormDisputeRepository {
	return &GormDisputeRepository{db: db}
}

// FindByGatewayDisputeID finds a dispute by its gateway-assigned ID
func (r *GormDisputeRepository) FindByGatewayDisputeID(ctx context.Context, gatewayDisputeID string) (*payment.Dispute, error) {
	var dispute payment.Dispute
	if err := r.db.WithContext(ctx).
		Where("gateway_dispute_id = ?", gatewayDisputeID).
		First(&dispute).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &dispute, nil
}

// Create inserts a new dispute record. A concurrent insert of the same
// gateway dispute ID surfaces as ErrAlreadyExists.
func (r *GormDisputeRepository) Create(ctx context.Context, dispute *payment.Dispute) error {
	err := r.db.WithContext(ctx).Create(dispute).Error
	if err != nil && isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Ensure GormDisputeRepository implements DisputeRepository
var _ payment.DisputeRepository = (*GormDisputeRepository)(nil)
