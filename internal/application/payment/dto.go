package payment

import (
	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
)

// CreateIntentInput is the request to open a payment intent. PropertyID and
// TokenAmount are set together for token purchases; both nil means a bare
// charge with no settlement leg. IdempotencyKey is the optional
// client-supplied key that makes a retried call reuse the same gateway
// intent.
type CreateIntentInput struct {
	PropertyID      *uuid.UUID        `json:"property_id,omitempty"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	PaymentMethodID string            `json:"payment_method_id"`
	TokenAmount     *int64            `json:"token_amount,omitempty"`
	IdempotencyKey  string            `json:"idempotency_key,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// CreateIntentResult is returned once the gateway intent exists and its
// pending ledger row is committed
type CreateIntentResult struct {
	TransactionID uuid.UUID            `json:"transaction_id"`
	ClientSecret  string               `json:"client_secret"`
	Fees          payment.FeeBreakdown `json:"fees"`
}

// WebhookResult contains the result of processing a gateway webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// RefundResult is returned once the refund request reaches a terminal state
type RefundResult struct {
	RefundRequestID uuid.UUID `json:"refund_request_id"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	Status          string    `json:"status"`
	GatewayRefundID string    `json:"gateway_refund_id,omitempty"`
}
