package property

import (
	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeProperty = "Property"
	AggregateTypeShare    = "Share"
)

// Event type constants
const (
	EventTypeSettlementCompleted = "SettlementCompleted"
	EventTypeSettlementRejected  = "SettlementRejected"
)

// SettlementCompletedEvent is raised after a succeeded purchase has been
// applied to inventory and shares. Consumed by the notification/audit sink;
// delivery failures never unwind the settlement.
type SettlementCompletedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	PropertyID    uuid.UUID `json:"property_id"`
	TokenAmount   int64     `json:"token_amount"`
	NetAmount     int64     `json:"net_amount"`
	TokensOwned   int64     `json:"tokens_owned"`
}

// NewSettlementCompletedEvent creates a new SettlementCompletedEvent
func NewSettlementCompletedEvent(transactionID, userID, propertyID uuid.UUID, tokenAmount, netAmount, tokensOwned int64) *SettlementCompletedEvent {
	return &SettlementCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementCompleted, AggregateTypeProperty, propertyID),
		TransactionID:   transactionID,
		UserID:          userID,
		PropertyID:      propertyID,
		TokenAmount:     tokenAmount,
		NetAmount:       netAmount,
		TokensOwned:     tokensOwned,
	}
}

// EventType returns the event type name
func (e *SettlementCompletedEvent) EventType() string {
	return EventTypeSettlementCompleted
}

// SettlementRejectedEvent is raised when a succeeded purchase cannot settle
// because the property ran out of tokens. The purchase stays succeeded and
// unsettled; operators reconcile (usually by refunding) out-of-band.
type SettlementRejectedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID `json:"transaction_id"`
	UserID          uuid.UUID `json:"user_id"`
	PropertyID      uuid.UUID `json:"property_id"`
	TokenAmount     int64     `json:"token_amount"`
	AvailableTokens int64     `json:"available_tokens"`
	Reason          string    `json:"reason"`
}

// NewSettlementRejectedEvent creates a new SettlementRejectedEvent
func NewSettlementRejectedEvent(transactionID, userID, propertyID uuid.UUID, tokenAmount, availableTokens int64, reason string) *SettlementRejectedEvent {
	return &SettlementRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementRejected, AggregateTypeProperty, propertyID),
		TransactionID:   transactionID,
		UserID:          userID,
		PropertyID:      propertyID,
		TokenAmount:     tokenAmount,
		AvailableTokens: availableTokens,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *SettlementRejectedEvent) EventType() string {
	return EventTypeSettlementRejected
}
