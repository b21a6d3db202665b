package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormShareRepository implements ShareRepository using GORM
type GormShareRepository struct {
	db *gorm.DB
}

// NewGormShareRepository creates a new GormShareRepository
func NewGormShareRepository(db *gorm.DB) *GormShareRepository {
	return &GormShareRepository{db: db}
}

// FindByUserAndProperty finds an investor's position in a property
func (r *GormShareRepository) FindByUserAndProperty(ctx context.Context, userID, propertyID uuid.UUID) (*property.Share, error) {
	var share property.Share
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &share, nil
}

// FindAllForUser lists an investor's positions
func (r *GormShareRepository) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]property.Share, error) {
	var shares []property.Share
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

// AddToPosition upserts the (user, property) position in one conflict-safe
// statement. An existing row is incremented in place, so two settlements
// landing on the same position never lose an update.
func (r *GormShareRepository) AddToPosition(ctx context.Context, userID, propertyID uuid.UUID, tokenAmount, costBasis int64) (*property.Share, error) {
	share, err := property.NewShare(userID, propertyID)
	if err != nil {
		return nil, err
	}
	share.TokensOwned = tokenAmount
	share.CostBasis = costBasis

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "property_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"tokens_owned": gorm.Expr("shares.tokens_owned + ?", tokenAmount),
				"cost_basis":   gorm.Expr("shares.cost_basis + ?", costBasis),
				"updated_at":   time.Now(),
			}),
		}).
		Create(share).Error; err != nil {
		return nil, err
	}

	return r.FindByUserAndProperty(ctx, userID, propertyID)
}

// Ensure GormShareRepository implements ShareRepository
var _ property.ShareRepository = (*GormShareRepository)(nil)
