package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWebhookEventRepository implements WebhookEventRepository using GORM.
// The table is keyed by the gateway-assigned event ID, so an insert with
// ON CONFLICT DO NOTHING is the idempotency check and the record in one
// statement.
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// FindByID finds a webhook event by its gateway-assigned ID
func (r *GormWebhookEventRepository) FindByID(ctx context.Context, id string) (*payment.WebhookEvent, error) {
	var event payment.WebhookEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Record inserts the event if its ID is new. When the ID already exists
// the stored row is returned with created == false so the caller can
// decide whether the prior delivery finished processing.
func (r *GormWebhookEventRepository) Record(ctx context.Context, event *payment.WebhookEvent) (*payment.WebhookEvent, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return nil, false, result.Error
	}

	if result.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, event.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return event, true, nil
}

// MarkProcessed flips the event to processed after successful dispatch
func (r *GormWebhookEventRepository) MarkProcessed(ctx context.Context, id string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&payment.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormWebhookEventRepository implements WebhookEventRepository
var _ payment.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
