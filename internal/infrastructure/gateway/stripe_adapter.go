package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/propshare/backend/internal/domain/payment"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeAdapter implements the payment.Gateway port against the Stripe API
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayNotConfigured, err)
	}

	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// CreateIntent creates a payment intent for the total charge. The caller's
// idempotency key is forwarded to Stripe, so a retried call after a timeout
// returns the original intent instead of opening a second one.
func (a *StripeAdapter) CreateIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.CreateIntentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a.logger.Debug("Creating Stripe payment intent",
		zap.String("user_id", req.UserID.String()),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency))

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethodID),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	params.Metadata = map[string]string{
		"user_id": req.UserID.String(),
	}
	for k, v := range req.Metadata {
		params.Metadata[k] = v
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe payment intent",
			zap.String("user_id", req.UserID.String()),
			zap.Error(err))
		return nil, mapStripeError(err)
	}

	a.logger.Info("Created Stripe payment intent",
		zap.String("user_id", req.UserID.String()),
		zap.String("intent_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return &payment.CreateIntentResponse{
		GatewayIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Status:          string(intent.Status),
	}, nil
}

// CreateRefund reverses (part of) a captured charge
func (a *StripeAdapter) CreateRefund(ctx context.Context, req *payment.RefundIntentRequest) (*payment.RefundIntentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a.logger.Debug("Creating Stripe refund",
		zap.String("intent_id", req.GatewayIntentID),
		zap.Int64("amount", req.Amount))

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.GatewayIntentID),
		Amount:        stripe.Int64(req.Amount),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	if reason := mapRefundReason(req.Reason); reason != "" {
		params.Reason = stripe.String(reason)
	}

	ref, err := refund.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe refund",
			zap.String("intent_id", req.GatewayIntentID),
			zap.Error(err))
		return nil, mapStripeError(err)
	}

	a.logger.Info("Created Stripe refund",
		zap.String("intent_id", req.GatewayIntentID),
		zap.String("refund_id", ref.ID),
		zap.String("status", string(ref.Status)))

	return &payment.RefundIntentResponse{
		GatewayRefundID: ref.ID,
		Status:          string(ref.Status),
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the webhook
// secret and lifts the payload into a gateway-neutral event. Any
// verification failure maps to ErrSignatureInvalid.
func (a *StripeAdapter) VerifyWebhook(payload []byte, signatureHeader string) (*payment.Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signatureHeader, a.config.WebhookSecret)
	if err != nil {
		a.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return nil, payment.ErrSignatureInvalid
	}

	event := &payment.Event{
		ID:   stripeEvent.ID,
		Type: string(stripeEvent.Type),
		Raw:  payload,
	}

	switch string(stripeEvent.Type) {
	case payment.WebhookEventTypeIntentSucceeded,
		payment.WebhookEventTypeIntentFailed,
		payment.WebhookEventTypeIntentCanceled:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(stripeEvent.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
		}
		event.GatewayIntentID = intent.ID
		event.Amount = intent.Amount
		event.Currency = string(intent.Currency)
		if intent.LastPaymentError != nil {
			event.Reason = string(intent.LastPaymentError.Code)
		}

	case payment.WebhookEventTypeDisputeCreated:
		var dispute stripe.Dispute
		if err := json.Unmarshal(stripeEvent.Data.Raw, &dispute); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)
		}
		event.GatewayDisputeID = dispute.ID
		event.Amount = dispute.Amount
		event.Currency = string(dispute.Currency)
		event.Reason = string(dispute.Reason)
		event.DisputeStatus = string(dispute.Status)
		if dispute.PaymentIntent != nil {
			event.GatewayIntentID = dispute.PaymentIntent.ID
		}
	}

	return event, nil
}

// mapStripeError translates Stripe API failures to domain errors. Server
// side failures surface as ErrGatewayUnavailable so callers can answer 503
// and the client can retry with the same idempotency key.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %s", payment.ErrGatewayUnavailable, stripeErr.Msg)
		}
		return fmt.Errorf("stripe: %s: %w", stripeErr.Code, err)
	}
	// Transport-level failure (timeout, connection reset)
	return fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
}

// mapRefundReason maps free-form operator reasons onto the enumerated
// values Stripe accepts; anything else is omitted.
func mapRefundReason(reason string) string {
	switch reason {
	case "duplicate", "fraudulent", "requested_by_customer":
		return reason
	default:
		return ""
	}
}

// Ensure StripeAdapter implements the gateway port
var _ payment.Gateway = (*StripeAdapter)(nil)
