package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// Dispute records a charge.dispute.created notification. Disputes are
// resolved out-of-band by operators; opening one never changes the
// transaction status.
type Dispute struct {
	shared.BaseAggregateRoot
	GatewayDisputeID string     `gorm:"size:255;not null;uniqueIndex"`
	GatewayIntentID  string     `gorm:"size:255;not null;index"`
	TransactionID    *uuid.UUID `gorm:"type:uuid;index"`
	Amount           int64      `gorm:"not null"`
	Currency         string     `gorm:"size:3;not null"`
	Reason           string     `gorm:"size:255"`
	Status           string     `gorm:"size:32;not null"`
	OpenedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Dispute) TableName() string {
	return "disputes"
}

// NewDispute records an inbound dispute notification
func NewDispute(gatewayDisputeID, gatewayIntentID string, transactionID *uuid.UUID, amount int64, currency, reason, status string) (*Dispute, error) {
	if gatewayDisputeID == "" {
		return nil, shared.NewDomainError("INVALID_DISPUTE", "Gateway dispute ID cannot be empty")
	}
	if gatewayIntentID == "" {
		return nil, shared.NewDomainError("INVALID_DISPUTE", "Gateway intent ID cannot be empty")
	}

	d := &Dispute{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		GatewayDisputeID:  gatewayDisputeID,
		GatewayIntentID:   gatewayIntentID,
		TransactionID:     transactionID,
		Amount:            amount,
		Currency:          currency,
		Reason:            reason,
		Status:            status,
		OpenedAt:          time.Now(),
	}
	d.AddDomainEvent(NewDisputeOpenedEvent(d))
	return d, nil
}

// DisputeOpenedEvent is raised when the gateway notifies us of a new dispute
type DisputeOpenedEvent struct {
	shared.BaseDomainEvent
	DisputeID        uuid.UUID  `json:"dispute_id"`
	GatewayDisputeID string     `json:"gateway_dispute_id"`
	GatewayIntentID  string     `json:"gateway_intent_id"`
	TransactionID    *uuid.UUID `json:"transaction_id,omitempty"`
	Amount           int64      `json:"amount"`
	Reason           string     `json:"reason"`
}

// NewDisputeOpenedEvent creates a new DisputeOpenedEvent
func NewDisputeOpenedEvent(d *Dispute) *DisputeOpenedEvent {
	return &DisputeOpenedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeDisputeOpened, AggregateTypeDispute, d.ID),
		DisputeID:        d.ID,
		GatewayDisputeID: d.GatewayDisputeID,
		GatewayIntentID:  d.GatewayIntentID,
		TransactionID:    d.TransactionID,
		Amount:           d.Amount,
		Reason:           d.Reason,
	}
}

// EventType returns the event type name
func (e *DisputeOpenedEvent) EventType() string {
	return EventTypeDisputeOpened
}
