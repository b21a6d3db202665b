package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// TransactionRepository defines the interface for ledger transaction persistence.
// Rows are append-only: there is no Delete.
type TransactionRepository interface {
	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForUser finds a transaction owned by the given user
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Transaction, error)

	// FindByGatewayIntentID finds the purchase transaction opened for a gateway intent
	FindByGatewayIntentID(ctx context.Context, gatewayIntentID string) (*Transaction, error)

	// FindAllForUser lists a user's transactions
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Transaction, error)

	// Create inserts a new transaction row
	Create(ctx context.Context, tx *Transaction) error

	// SaveWithLock updates with optimistic locking (checks version);
	// returns shared.ErrConcurrencyConflict when the row moved underneath us
	SaveWithLock(ctx context.Context, tx *Transaction) error

	// ClaimSettlement flips the settled marker in a single conditional
	// update guarded by settled=false AND status=succeeded. Exactly one
	// caller wins even when the same succeeded webhook is processed twice;
	// losers get shared.ErrAlreadyExists.
	ClaimSettlement(ctx context.Context, id uuid.UUID) error
}

// WebhookEventRepository defines the interface for the durable webhook
// event log that backs the processor's idempotency boundary.
type WebhookEventRepository interface {
	// FindByID finds a webhook event by its gateway-assigned ID
	FindByID(ctx context.Context, id string) (*WebhookEvent, error)

	// Record inserts the event if its ID is new (ON CONFLICT DO NOTHING).
	// Returns the stored row; created is false when the ID already existed.
	Record(ctx context.Context, event *WebhookEvent) (stored *WebhookEvent, created bool, err error)

	// MarkProcessed flips the event to processed after successful dispatch
	MarkProcessed(ctx context.Context, id string) error
}

// RefundRequestRepository defines the interface for refund request persistence
type RefundRequestRepository interface {
	// FindByID finds a refund request by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*RefundRequest, error)

	// FindPendingByTransactionID finds the outstanding pending request for a
	// transaction, or nil if there is none
	FindPendingByTransactionID(ctx context.Context, transactionID uuid.UUID) (*RefundRequest, error)

	// Create inserts a new refund request
	Create(ctx context.Context, req *RefundRequest) error

	// SaveWithLock updates with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, req *RefundRequest) error
}

// DisputeRepository defines the interface for dispute record persistence
type DisputeRepository interface {
	// FindByGatewayDisputeID finds a dispute by its gateway-assigned ID
	FindByGatewayDisputeID(ctx context.Context, gatewayDisputeID string) (*Dispute, error)

	// Create inserts a new dispute record
	Create(ctx context.Context, dispute *Dispute) error
}
