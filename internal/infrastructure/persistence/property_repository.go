package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPropertyRepository implements PropertyRepository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindByID finds a property by its ID
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	var p property.Property
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindAll lists properties
func (r *GormPropertyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]property.Property, error) {
	var props []property.Property
	query := r.db.WithContext(ctx).Model(&property.Property{})

	for key, value := range filter.Filters {
		switch key {
		case "currency":
			query = query.Where("currency = ?", value)
		case "has_inventory":
			if value == true {
				query = query.Where("available_tokens > 0")
			}
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, PropertySortFields, "created_at")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&props).Error; err != nil {
		return nil, err
	}
	return props, nil
}

// Create inserts a new property listing
func (r *GormPropertyRepository) Create(ctx context.Context, p *property.Property) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// DeductAvailableTokens decrements available_tokens with the inventory
// guard in the same statement. No read-modify-write: concurrent deductions
// serialize on the row and the guard rejects whichever one would oversell.
func (r *GormPropertyRepository) DeductAvailableTokens(ctx context.Context, propertyID uuid.UUID, tokenAmount int64) error {
	result := r.db.WithContext(ctx).
		Model(&property.Property{}).
		Where("id = ? AND available_tokens >= ?", propertyID, tokenAmount).
		Updates(map[string]interface{}{
			"available_tokens": gorm.Expr("available_tokens - ?", tokenAmount),
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing property from an exhausted one
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&property.Property{}).
			Where("id = ?", propertyID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrInsufficientInventory
	}
	return nil
}

// Ensure GormPropertyRepository implements PropertyRepository
var _ property.PropertyRepository = (*GormPropertyRepository)(nil)
