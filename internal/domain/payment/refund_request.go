package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// RefundRequestStatus represents the lifecycle state of a refund attempt
type RefundRequestStatus string

const (
	// RefundRequestStatusPending means the gateway refund has not completed yet
	RefundRequestStatusPending RefundRequestStatus = "pending"
	// RefundRequestStatusProcessed means the gateway refund succeeded
	RefundRequestStatusProcessed RefundRequestStatus = "processed"
	// RefundRequestStatusFailed means the gateway refund failed
	RefundRequestStatusFailed RefundRequestStatus = "failed"
)

// IsValid returns true if the status is valid
func (s RefundRequestStatus) IsValid() bool {
	switch s {
	case RefundRequestStatusPending, RefundRequestStatusProcessed, RefundRequestStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of RefundRequestStatus
func (s RefundRequestStatus) String() string {
	return string(s)
}

// RefundRequest is one reversal attempt against a succeeded transaction.
// A transaction may have at most one pending request at a time, enforced
// both here and by a partial unique index in the store.
type RefundRequest struct {
	shared.BaseAggregateRoot
	TransactionID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	RequestedAmount int64               `gorm:"not null"`
	Reason          string              `gorm:"size:500"`
	Status          RefundRequestStatus `gorm:"size:16;not null;index"`
	GatewayRefundID string              `gorm:"size:255"`
}

// TableName returns the table name for GORM
func (RefundRequest) TableName() string {
	return "refund_requests"
}

// NewRefundRequest validates the refund preconditions against the original
// transaction and opens a pending request. No gateway call may be made
// before this succeeds.
func NewRefundRequest(original *Transaction, requestedAmount int64, reason string) (*RefundRequest, error) {
	if original == nil {
		return nil, shared.ErrNotFound
	}
	if !original.IsRefundable() {
		return nil, shared.ErrRefundNotAllowed
	}
	if requestedAmount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if requestedAmount > original.Amount {
		return nil, shared.NewDomainError("REFUND_NOT_ALLOWED", "Refund amount exceeds the original transaction amount")
	}

	return &RefundRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransactionID:     original.ID,
		RequestedAmount:   requestedAmount,
		Reason:            reason,
		Status:            RefundRequestStatusPending,
	}, nil
}

// MarkProcessed records a successful gateway refund
func (r *RefundRequest) MarkProcessed(gatewayRefundID string) error {
	if r.Status != RefundRequestStatusPending {
		return shared.ErrInvalidState
	}
	r.Status = RefundRequestStatusProcessed
	r.GatewayRefundID = gatewayRefundID
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	r.AddDomainEvent(NewRefundProcessedEvent(r))
	return nil
}

// MarkFailed records a failed gateway refund; the original transaction is untouched
func (r *RefundRequest) MarkFailed() error {
	if r.Status != RefundRequestStatusPending {
		return shared.ErrInvalidState
	}
	r.Status = RefundRequestStatusFailed
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	r.AddDomainEvent(NewRefundFailedEvent(r))
	return nil
}

// RefundProcessedEvent is raised when a gateway refund completes
type RefundProcessedEvent struct {
	shared.BaseDomainEvent
	RefundRequestID uuid.UUID `json:"refund_request_id"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	RequestedAmount int64     `json:"requested_amount"`
	GatewayRefundID string    `json:"gateway_refund_id"`
}

// NewRefundProcessedEvent creates a new RefundProcessedEvent
func NewRefundProcessedEvent(r *RefundRequest) *RefundProcessedEvent {
	return &RefundProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundProcessed, AggregateTypeRefundRequest, r.ID),
		RefundRequestID: r.ID,
		TransactionID:   r.TransactionID,
		RequestedAmount: r.RequestedAmount,
		GatewayRefundID: r.GatewayRefundID,
	}
}

// EventType returns the event type name
func (e *RefundProcessedEvent) EventType() string {
	return EventTypeRefundProcessed
}

// RefundFailedEvent is raised when a gateway refund fails
type RefundFailedEvent struct {
	shared.BaseDomainEvent
	RefundRequestID uuid.UUID `json:"refund_request_id"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	RequestedAmount int64     `json:"requested_amount"`
}

// NewRefundFailedEvent creates a new RefundFailedEvent
func NewRefundFailedEvent(r *RefundRequest) *RefundFailedEvent {
	return &RefundFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundFailed, AggregateTypeRefundRequest, r.ID),
		RefundRequestID: r.ID,
		TransactionID:   r.TransactionID,
		RequestedAmount: r.RequestedAmount,
	}
}

// EventType returns the event type name
func (e *RefundFailedEvent) EventType() string {
	return EventTypeRefundFailed
}
