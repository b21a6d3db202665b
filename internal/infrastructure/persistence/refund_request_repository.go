package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRefundRequestRepository implements RefundRequestRepository using GORM
type GormRefundRequestRepository struct {
	db *gorm.DB
}

// NewGormRefundRequestRepository creates a new GormRefundRequestRepository
func NewGormRefundRequestRepository(db *gorm.DB) *GormRefundRequestRepository {
	return &GormRefundRequestRepository{db: db}
}

// FindByID finds a refund request by its ID
func (r *GormRefundRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.RefundRequest, error) {
	var req payment.RefundRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindPendingByTransactionID finds the outstanding pending request for a
// transaction. A partial unique index on (transaction_id) WHERE status =
// 'pending' guarantees at most one row matches.
func (r *GormRefundRequestRepository) FindPendingByTransactionID(ctx context.Context, transactionID uuid.UUID) (*payment.RefundRequest, error) {
	var req payment.RefundRequest
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND status = ?", transactionID, payment.RefundRequestStatusPending).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Create inserts a new refund request. The partial unique index on
// pending requests turns a concurrent duplicate into ErrAlreadyExists.
func (r *GormRefundRequestRepository) Create(ctx context.Context, req *payment.RefundRequest) error {
	err := r.db.WithContext(ctx).Create(req).Error
	if err != nil && isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormRefundRequestRepository) SaveWithLock(ctx context.Context, req *payment.RefundRequest) error {
	result := r.db.WithContext(ctx).
		Model(req).
		Where("id = ? AND version = ?", req.ID, req.Version-1).
		Updates(map[string]interface{}{
			"status":            req.Status,
			"gateway_refund_id": req.GatewayRefundID,
			"version":           req.Version,
			"updated_at":        req.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormRefundRequestRepository implements RefundRequestRepository
var _ payment.RefundRequestRepository = (*GormRefundRequestRepository)(nil)
