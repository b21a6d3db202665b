package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Gateway Errors
// ---------------------------------------------------------------------------

var (
	// Intent creation errors
	ErrIntentInvalidUserID        = errors.New("payment: invalid user ID")
	ErrIntentInvalidAmount        = errors.New("payment: invalid intent amount")
	ErrIntentInvalidCurrency      = errors.New("payment: invalid currency")
	ErrIntentInvalidPaymentMethod = errors.New("payment: payment method ID is required")

	// Refund errors
	ErrRefundInvalidIntentID = errors.New("refund: invalid gateway intent reference")
	ErrRefundInvalidAmount   = errors.New("refund: invalid refund amount")

	// Gateway errors
	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayUnavailable     = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	ErrSignatureInvalid       = errors.New("payment: invalid webhook signature")
)

// ---------------------------------------------------------------------------
// Gateway Request/Response DTOs
// ---------------------------------------------------------------------------

// CreateIntentRequest asks the gateway to authorize a charge for the total
// (amount plus fees). IdempotencyKey makes a retried call safe after a
// timeout: the gateway deduplicates on it, so we never end up with two
// intents for one ledger row.
type CreateIntentRequest struct {
	UserID          uuid.UUID
	Amount          int64
	Currency        string
	PaymentMethodID string
	IdempotencyKey  string
	Metadata        map[string]string
}

// Validate validates the create intent request
func (r *CreateIntentRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrIntentInvalidUserID
	}
	if r.Amount <= 0 {
		return ErrIntentInvalidAmount
	}
	if len(r.Currency) != 3 {
		return ErrIntentInvalidCurrency
	}
	if r.PaymentMethodID == "" {
		return ErrIntentInvalidPaymentMethod
	}
	return nil
}

// CreateIntentResponse is the gateway's answer to a successful intent creation
type CreateIntentResponse struct {
	// GatewayIntentID is the intent identifier at the gateway
	GatewayIntentID string
	// ClientSecret is handed to the browser to confirm the payment
	ClientSecret string
	// Status is the gateway-side intent status
	Status string
}

// RefundIntentRequest asks the gateway to reverse (part of) a captured charge
type RefundIntentRequest struct {
	GatewayIntentID string
	Amount          int64
	Reason          string
	IdempotencyKey  string
}

// Validate validates the refund request
func (r *RefundIntentRequest) Validate() error {
	if r.GatewayIntentID == "" {
		return ErrRefundInvalidIntentID
	}
	if r.Amount <= 0 {
		return ErrRefundInvalidAmount
	}
	return nil
}

// RefundIntentResponse is the gateway's answer to a refund call
type RefundIntentResponse struct {
	// GatewayRefundID is the refund identifier at the gateway
	GatewayRefundID string
	// Status is the gateway-side refund status
	Status string
}

// Event is a verified, parsed inbound gateway notification. The adapter
// verifies the transport signature and lifts the gateway's payload into
// these gateway-neutral fields before any handler sees it.
type Event struct {
	// ID is the gateway-assigned, globally unique event identifier
	ID string
	// Type is the gateway event type (see WebhookEventType* constants)
	Type string
	// GatewayIntentID is the intent the event refers to, when applicable
	GatewayIntentID string
	// GatewayDisputeID is set for dispute events
	GatewayDisputeID string
	// Amount and Currency describe the disputed/charged amount when present
	Amount   int64
	Currency string
	// Reason carries the gateway's failure or dispute reason, when present
	Reason string
	// DisputeStatus is the gateway-side dispute status for dispute events
	DisputeStatus string
	// Raw is the original event payload
	Raw []byte
}

// ---------------------------------------------------------------------------
// Gateway Port Interface
// ---------------------------------------------------------------------------

// Gateway is the port to the external card processor. It is defined in the
// domain layer; the Stripe adapter lives in infrastructure. Every method is
// a remote call and honors ctx deadlines.
type Gateway interface {
	// CreateIntent creates a payment intent for the total charge
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*CreateIntentResponse, error)

	// CreateRefund reverses (part of) a captured charge
	CreateRefund(ctx context.Context, req *RefundIntentRequest) (*RefundIntentResponse, error)

	// VerifyWebhook checks the signature header against the shared secret
	// and parses the payload. Returns ErrSignatureInvalid on any
	// verification failure; no caller may act on an unverified payload.
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}
