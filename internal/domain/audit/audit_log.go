package audit

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// Actions recorded by the pipeline
const (
	ActionSettlementCompleted = "settlement.completed"
	ActionSettlementRejected  = "settlement.rejected"
	ActionDisputeOpened       = "dispute.opened"
	ActionRefundProcessed     = "refund.processed"
	ActionRefundFailed        = "refund.failed"
)

// Detail is the structured payload of one audit entry, persisted as JSONB
type Detail map[string]any

// Value implements the driver.Valuer interface
func (d Detail) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (d *Detail) Scan(value any) error {
	if value == nil {
		*d = Detail{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("audit: cannot scan type %T into Detail", value)
	}
	return json.Unmarshal(b, d)
}

// Log is one entry in the append-only audit trail that backs the
// notification sink. Settlement outcomes, disputes and refunds are
// recorded here for human follow-up; writes are always non-fatal to the
// operation they describe.
type Log struct {
	shared.BaseEntity
	Action     string    `gorm:"size:64;not null;index"`
	EntityType string    `gorm:"size:64;not null"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Detail     Detail    `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Log) TableName() string {
	return "audit_logs"
}

// NewLog creates an audit entry
func NewLog(action, entityType string, entityID uuid.UUID, detail Detail) *Log {
	if detail == nil {
		detail = Detail{}
	}
	return &Log{
		BaseEntity: shared.NewBaseEntity(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
}

// LogRepository defines the interface for audit log persistence
type LogRepository interface {
	// Create appends an audit entry
	Create(ctx context.Context, log *Log) error

	// FindByEntity lists entries for one entity, newest first
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter shared.Filter) ([]Log, error)
}
