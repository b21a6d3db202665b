package property

import (
	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// Share is an investor's accumulated position in one property. The unique
// (user_id, property_id) pair is upserted by the settlement engine in the
// same atomic operation that decrements the property's available tokens,
// so Σ tokens_owned + available_tokens == total_tokens at every point.
type Share struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shares_user_property,priority:1"`
	PropertyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shares_user_property,priority:2"`
	TokensOwned int64     `gorm:"not null;default:0"`
	// CostBasis is the sum of net amounts paid, in minor units
	CostBasis int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Share) TableName() string {
	return "shares"
}

// NewShare opens an empty position for an investor in a property
func NewShare(userID, propertyID uuid.UUID) (*Share, error) {
	if userID == uuid.Nil || propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHARE", "User ID and property ID are required")
	}
	return &Share{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		PropertyID:        propertyID,
	}, nil
}
