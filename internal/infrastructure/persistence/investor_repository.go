package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/identity"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormInvestorRepository implements InvestorRepository using GORM
type GormInvestorRepository struct {
	db *gorm.DB
}

// NewGormInvestorRepository creates a new GormInvestorRepository
func NewGormInvestorRepository(db *gorm.DB) *GormInvestorRepository {
	return &GormInvestorRepository{db: db}
}

// FindByID finds an investor by ID
func (r *GormInvestorRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Investor, error) {
	var investor identity.Investor
	if err := r.db.WithContext(ctx).First(&investor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &investor, nil
}

// FindByEmail finds an investor by email (lowercased)
func (r *GormInvestorRepository) FindByEmail(ctx context.Context, email string) (*identity.Investor, error) {
	var investor identity.Investor
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&investor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &investor, nil
}

// Create inserts a new investor account
func (r *GormInvestorRepository) Create(ctx context.Context, investor *identity.Investor) error {
	err := r.db.WithContext(ctx).Create(investor).Error
	if err != nil && isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Save updates an investor account
func (r *GormInvestorRepository) Save(ctx context.Context, investor *identity.Investor) error {
	return r.db.WithContext(ctx).Save(investor).Error
}

// isUniqueViolation reports whether err is a unique constraint violation.
// Matches both the gorm translated error and the raw postgres/sqlite text.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// Ensure GormInvestorRepository implements InvestorRepository
var _ identity.InvestorRepository = (*GormInvestorRepository)(nil)
