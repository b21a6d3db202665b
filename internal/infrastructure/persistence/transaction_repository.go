package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	var tx payment.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByIDForUser finds a transaction owned by the given user
func (r *GormTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*payment.Transaction, error) {
	var tx payment.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByGatewayIntentID finds the purchase transaction opened for a gateway intent
func (r *GormTransactionRepository) FindByGatewayIntentID(ctx context.Context, gatewayIntentID string) (*payment.Transaction, error) {
	var tx payment.Transaction
	if err := r.db.WithContext(ctx).
		Where("gateway_intent_id = ? AND kind = ?", gatewayIntentID, payment.TransactionKindPurchase).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindAllForUser lists a user's transactions
func (r *GormTransactionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]payment.Transaction, error) {
	var txs []payment.Transaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&payment.Transaction{}).
			Where("user_id = ?", userID),
		filter,
	)

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Create inserts a new transaction row
func (r *GormTransactionRepository) Create(ctx context.Context, tx *payment.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, tx *payment.Transaction) error {
	result := r.db.WithContext(ctx).
		Model(tx).
		Where("id = ? AND version = ?", tx.ID, tx.Version-1).
		Updates(map[string]interface{}{
			"status":       tx.Status,
			"settled":      tx.Settled,
			"processed_at": tx.ProcessedAt,
			"metadata":     tx.Metadata,
			"version":      tx.Version,
			"updated_at":   tx.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ClaimSettlement flips the settled marker in a single conditional update.
// The guard makes the flip first-writer-wins: redelivered webhooks racing
// over the same transaction see RowsAffected == 0 and back off.
func (r *GormTransactionRepository) ClaimSettlement(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&payment.Transaction{}).
		Where("id = ? AND settled = ? AND status = ?", id, false, payment.TransactionStatusSucceeded).
		Updates(map[string]interface{}{
			"settled":    true,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyExists
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "kind":
			query = query.Where("kind = ?", value)
		case "property_id":
			query = query.Where("property_id = ?", value)
		case "settled":
			query = query.Where("settled = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, TransactionSortFields, "created_at")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ payment.TransactionRepository = (*GormTransactionRepository)(nil)
