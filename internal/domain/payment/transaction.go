package payment

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// TransactionKind distinguishes money flowing in from money flowing back out.
type TransactionKind string

const (
	// TransactionKindPurchase is an investor buying property tokens
	TransactionKindPurchase TransactionKind = "purchase"
	// TransactionKindRefund is the negative counterpart written when a refund succeeds
	TransactionKindRefund TransactionKind = "refund"
)

// IsValid returns true if the kind is valid
func (k TransactionKind) IsValid() bool {
	switch k {
	case TransactionKindPurchase, TransactionKindRefund:
		return true
	default:
		return false
	}
}

// String returns the string representation of TransactionKind
func (k TransactionKind) String() string {
	return string(k)
}

// TransactionStatus represents the lifecycle state of a transaction
type TransactionStatus string

const (
	// TransactionStatusPending means the gateway intent exists but is unconfirmed
	TransactionStatusPending TransactionStatus = "pending"
	// TransactionStatusSucceeded means the gateway confirmed the charge
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	// TransactionStatusFailed means the gateway reported a failed charge
	TransactionStatusFailed TransactionStatus = "failed"
	// TransactionStatusCancelled means the intent was cancelled before capture
	TransactionStatusCancelled TransactionStatus = "cancelled"
	// TransactionStatusRefunded means a succeeded charge was later refunded
	TransactionStatusRefunded TransactionStatus = "refunded"
)

// IsValid returns true if the status is valid
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSucceeded, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that admit no further transition,
// except the single succeeded→refunded edge.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusSucceeded, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusRefunded:
		return true
	default:
		return false
	}
}

// canTransitionTo encodes the status machine: pending → {succeeded, failed,
// cancelled}; succeeded → refunded. Everything else is rejected.
func (s TransactionStatus) canTransitionTo(target TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return target == TransactionStatusSucceeded ||
			target == TransactionStatusFailed ||
			target == TransactionStatusCancelled
	case TransactionStatusSucceeded:
		return target == TransactionStatusRefunded
	default:
		return false
	}
}

// Metadata is an opaque key-value bag persisted as JSONB
type Metadata map[string]string

// Value implements the driver.Valuer interface
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("payment: cannot scan type %T into Metadata", value)
	}
	return json.Unmarshal(b, m)
}

// Transaction is one attempted money movement. It is the aggregate root of
// the ledger: rows are never deleted and, once terminal, never mutated
// except the single succeeded→refunded edge.
type Transaction struct {
	shared.BaseAggregateRoot
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	PropertyID      *uuid.UUID        `gorm:"type:uuid;index"`
	GatewayIntentID string            `gorm:"size:255;not null;index:idx_transactions_gateway_intent"`
	Amount          int64             `gorm:"not null"`
	Currency        string            `gorm:"size:3;not null"`
	Kind            TransactionKind   `gorm:"size:16;not null"`
	Status          TransactionStatus `gorm:"size:16;not null;index"`
	TokenAmount     *int64            `gorm:""`
	PlatformFee     int64             `gorm:"not null;default:0"`
	ProcessingFee   int64             `gorm:"not null;default:0"`
	TotalCharge     int64             `gorm:"not null;default:0"`
	// Settled marks that the settlement engine has applied this purchase to
	// inventory and shares. Distinct from Status so settlement stays
	// idempotent even if invoked twice for the same succeeded transaction.
	Settled     bool       `gorm:"not null;default:false"`
	ProcessedAt *time.Time `gorm:""`
	Metadata    Metadata   `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// NewPurchaseTransaction opens a pending purchase row for a gateway intent
func NewPurchaseTransaction(userID uuid.UUID, propertyID *uuid.UUID, gatewayIntentID string, amount int64, currency string, tokenAmount *int64, fees FeeBreakdown, metadata Metadata) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if gatewayIntentID == "" {
		return nil, shared.NewDomainError("INVALID_INTENT", "Gateway intent ID cannot be empty")
	}
	if amount <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}
	if tokenAmount != nil && *tokenAmount <= 0 {
		return nil, shared.NewDomainError("INVALID_TOKEN_AMOUNT", "Token amount must be positive")
	}
	if metadata == nil {
		metadata = Metadata{}
	}

	tx := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		PropertyID:        propertyID,
		GatewayIntentID:   gatewayIntentID,
		Amount:            amount,
		Currency:          currency,
		Kind:              TransactionKindPurchase,
		Status:            TransactionStatusPending,
		TokenAmount:       tokenAmount,
		PlatformFee:       fees.PlatformFee,
		ProcessingFee:     fees.ProcessingFee,
		TotalCharge:       fees.TotalCharge,
		Metadata:          metadata,
	}
	tx.AddDomainEvent(NewTransactionOpenedEvent(tx))
	return tx, nil
}

// NewRefundTransaction writes the negative counterpart of a refunded purchase.
// It is born terminal: there is nothing asynchronous left to confirm.
func NewRefundTransaction(original *Transaction, refundedAmount int64, gatewayRefundID string) (*Transaction, error) {
	if original == nil {
		return nil, shared.NewDomainError("INVALID_TRANSACTION", "Original transaction is required")
	}
	if refundedAmount <= 0 || refundedAmount > original.Amount {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refunded amount must be positive and within the original amount")
	}

	now := time.Now()
	tx := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            original.UserID,
		PropertyID:        original.PropertyID,
		GatewayIntentID:   original.GatewayIntentID,
		Amount:            -refundedAmount,
		Currency:          original.Currency,
		Kind:              TransactionKindRefund,
		Status:            TransactionStatusSucceeded,
		ProcessedAt:       &now,
		Metadata: Metadata{
			"original_transaction_id": original.ID.String(),
			"gateway_refund_id":       gatewayRefundID,
		},
	}
	return tx, nil
}

// transition moves the transaction through the status machine, rejecting
// any edge the machine does not define.
func (t *Transaction) transition(target TransactionStatus) error {
	if !t.Status.canTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot transition transaction from %s to %s", t.Status, target))
	}
	now := time.Now()
	t.Status = target
	t.ProcessedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// MarkSucceeded records gateway confirmation of the charge
func (t *Transaction) MarkSucceeded() error {
	if err := t.transition(TransactionStatusSucceeded); err != nil {
		return err
	}
	t.AddDomainEvent(NewTransactionSucceededEvent(t))
	return nil
}

// MarkFailed records a failed charge
func (t *Transaction) MarkFailed() error {
	if err := t.transition(TransactionStatusFailed); err != nil {
		return err
	}
	t.AddDomainEvent(NewTransactionFailedEvent(t))
	return nil
}

// MarkCancelled records a cancelled intent
func (t *Transaction) MarkCancelled() error {
	if err := t.transition(TransactionStatusCancelled); err != nil {
		return err
	}
	t.AddDomainEvent(NewTransactionCancelledEvent(t))
	return nil
}

// MarkRefunded flips a succeeded purchase to refunded
func (t *Transaction) MarkRefunded() error {
	if err := t.transition(TransactionStatusRefunded); err != nil {
		return err
	}
	t.AddDomainEvent(NewTransactionRefundedEvent(t))
	return nil
}

// MarkSettled records that the settlement engine applied this purchase.
// The authoritative guard is the conditional update in the repository;
// this keeps the in-memory aggregate consistent with it.
func (t *Transaction) MarkSettled() error {
	if t.Status != TransactionStatusSucceeded {
		return shared.NewDomainError("INVALID_STATE", "Only succeeded transactions can be settled")
	}
	if t.Kind != TransactionKindPurchase {
		return shared.NewDomainError("INVALID_STATE", "Only purchases can be settled")
	}
	if t.Settled {
		return shared.ErrAlreadyExists
	}
	t.Settled = true
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// IsRefundable reports whether the refund processor may act on this transaction
func (t *Transaction) IsRefundable() bool {
	return t.Kind == TransactionKindPurchase && t.Status == TransactionStatusSucceeded
}

// NetAmount is the amount credited to the investor's cost basis: the base
// amount, exclusive of platform and processing fees.
func (t *Transaction) NetAmount() int64 {
	return t.Amount
}
