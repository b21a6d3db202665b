package payment

import (
	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeTransaction   = "Transaction"
	AggregateTypeRefundRequest = "RefundRequest"
	AggregateTypeDispute       = "Dispute"
)

// Event type constants
const (
	EventTypeTransactionOpened    = "TransactionOpened"
	EventTypeTransactionSucceeded = "TransactionSucceeded"
	EventTypeTransactionFailed    = "TransactionFailed"
	EventTypeTransactionCancelled = "TransactionCancelled"
	EventTypeTransactionRefunded  = "TransactionRefunded"
	EventTypeRefundProcessed      = "RefundProcessed"
	EventTypeRefundFailed         = "RefundFailed"
	EventTypeDisputeOpened        = "DisputeOpened"
)

// TransactionOpenedEvent is raised when an intent is created and a pending
// ledger row committed
type TransactionOpenedEvent struct {
	shared.BaseDomainEvent
	TransactionID   uuid.UUID  `json:"transaction_id"`
	UserID          uuid.UUID  `json:"user_id"`
	PropertyID      *uuid.UUID `json:"property_id,omitempty"`
	GatewayIntentID string     `json:"gateway_intent_id"`
	Amount          int64      `json:"amount"`
	TotalCharge     int64      `json:"total_charge"`
	Currency        string     `json:"currency"`
}

// NewTransactionOpenedEvent creates a new TransactionOpenedEvent
func NewTransactionOpenedEvent(t *Transaction) *TransactionOpenedEvent {
	return &TransactionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionOpened, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		UserID:          t.UserID,
		PropertyID:      t.PropertyID,
		GatewayIntentID: t.GatewayIntentID,
		Amount:          t.Amount,
		TotalCharge:     t.TotalCharge,
		Currency:        t.Currency,
	}
}

// EventType returns the event type name
func (e *TransactionOpenedEvent) EventType() string {
	return EventTypeTransactionOpened
}

// TransactionSucceededEvent is raised when the gateway confirms a charge
type TransactionSucceededEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID  `json:"transaction_id"`
	UserID        uuid.UUID  `json:"user_id"`
	PropertyID    *uuid.UUID `json:"property_id,omitempty"`
	Kind          string     `json:"kind"`
	Amount        int64      `json:"amount"`
	TokenAmount   *int64     `json:"token_amount,omitempty"`
}

// NewTransactionSucceededEvent creates a new TransactionSucceededEvent
func NewTransactionSucceededEvent(t *Transaction) *TransactionSucceededEvent {
	return &TransactionSucceededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionSucceeded, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		UserID:          t.UserID,
		PropertyID:      t.PropertyID,
		Kind:            t.Kind.String(),
		Amount:          t.Amount,
		TokenAmount:     t.TokenAmount,
	}
}

// EventType returns the event type name
func (e *TransactionSucceededEvent) EventType() string {
	return EventTypeTransactionSucceeded
}

// TransactionFailedEvent is raised when the gateway reports a failed charge
type TransactionFailedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        int64     `json:"amount"`
}

// NewTransactionFailedEvent creates a new TransactionFailedEvent
func NewTransactionFailedEvent(t *Transaction) *TransactionFailedEvent {
	return &TransactionFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionFailed, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		UserID:          t.UserID,
		Amount:          t.Amount,
	}
}

// EventType returns the event type name
func (e *TransactionFailedEvent) EventType() string {
	return EventTypeTransactionFailed
}

// TransactionCancelledEvent is raised when an intent is cancelled before capture
type TransactionCancelledEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
}

// NewTransactionCancelledEvent creates a new TransactionCancelledEvent
func NewTransactionCancelledEvent(t *Transaction) *TransactionCancelledEvent {
	return &TransactionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCancelled, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		UserID:          t.UserID,
	}
}

// EventType returns the event type name
func (e *TransactionCancelledEvent) EventType() string {
	return EventTypeTransactionCancelled
}

// TransactionRefundedEvent is raised when a succeeded purchase flips to refunded
type TransactionRefundedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        int64     `json:"amount"`
}

// NewTransactionRefundedEvent creates a new TransactionRefundedEvent
func NewTransactionRefundedEvent(t *Transaction) *TransactionRefundedEvent {
	return &TransactionRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRefunded, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		UserID:          t.UserID,
		Amount:          t.Amount,
	}
}

// EventType returns the event type name
func (e *TransactionRefundedEvent) EventType() string {
	return EventTypeTransactionRefunded
}
