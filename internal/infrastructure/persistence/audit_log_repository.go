package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/audit"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements audit.LogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditLogRepository) Create(ctx context.Context, log *audit.Log) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity lists entries for one entity, newest first
func (r *GormAuditLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter shared.Filter) ([]audit.Log, error) {
	var logs []audit.Log
	query := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Ensure GormAuditLogRepository implements audit.LogRepository
var _ audit.LogRepository = (*GormAuditLogRepository)(nil)
