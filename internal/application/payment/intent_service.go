package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/propshare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// IntentService opens payment intents. It computes the fee breakdown,
// creates the gateway intent for the total charge and commits the pending
// ledger row before returning: no client secret is ever handed out without
// a transaction backing it.
type IntentService struct {
	transactionRepo payment.TransactionRepository
	propertyRepo    property.PropertyRepository
	gateway         payment.Gateway
	feeSchedule     payment.FeeSchedule
	currencies      map[string]struct{}
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// IntentServiceConfig contains configuration for IntentService
type IntentServiceConfig struct {
	TransactionRepo     payment.TransactionRepository
	PropertyRepo        property.PropertyRepository
	Gateway             payment.Gateway
	FeeSchedule         payment.FeeSchedule
	SupportedCurrencies []string
	IdempotencyStore    shared.IdempotencyStore
	IdempotencyTTL      time.Duration
	EventPublisher      shared.EventPublisher
	Logger              *zap.Logger
}

// NewIntentService creates a new IntentService
func NewIntentService(cfg IntentServiceConfig) *IntentService {
	currencies := make(map[string]struct{}, len(cfg.SupportedCurrencies))
	for _, c := range cfg.SupportedCurrencies {
		currencies[strings.ToLower(c)] = struct{}{}
	}
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &IntentService{
		transactionRepo: cfg.TransactionRepo,
		propertyRepo:    cfg.PropertyRepo,
		gateway:         cfg.Gateway,
		feeSchedule:     cfg.FeeSchedule,
		currencies:      currencies,
		idempotency:     cfg.IdempotencyStore,
		idempotencyTTL:  ttl,
		eventPublisher:  cfg.EventPublisher,
		logger:          cfg.Logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *IntentService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateIntent validates the request, creates the gateway intent for the
// total charge and opens the pending transaction row. Gateway failure
// leaves nothing written.
func (s *IntentService) CreateIntent(ctx context.Context, userID uuid.UUID, input CreateIntentInput) (*CreateIntentResult, error) {
	currency := strings.ToLower(input.Currency)
	if err := s.validate(userID, currency, input); err != nil {
		return nil, err
	}

	if input.PropertyID != nil {
		prop, err := s.propertyRepo.FindByID(ctx, *input.PropertyID)
		if err != nil {
			return nil, err
		}
		// Advisory only: the authoritative check is the conditional
		// decrement at settlement time.
		if !prop.CanFulfill(*input.TokenAmount) {
			return nil, shared.ErrInsufficientInventory
		}
	}

	fees, err := s.feeSchedule.Calculate(input.Amount)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.CreateIntent(ctx, &payment.CreateIntentRequest{
		UserID:          userID,
		Amount:          fees.TotalCharge,
		Currency:        currency,
		PaymentMethodID: input.PaymentMethodID,
		IdempotencyKey:  s.gatewayIdempotencyKey(ctx, userID, input),
		Metadata:        s.gatewayMetadata(userID, input),
	})
	if err != nil {
		s.logger.Error("Gateway intent creation failed",
			zap.String("user_id", userID.String()),
			zap.Int64("total_charge", fees.TotalCharge),
			zap.Error(err))
		return nil, shared.ErrGatewayUnavailable
	}

	tx, err := payment.NewPurchaseTransaction(userID, input.PropertyID, resp.GatewayIntentID,
		input.Amount, currency, input.TokenAmount, fees, payment.Metadata(input.Metadata))
	if err != nil {
		return nil, err
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		// The gateway intent now exists without a ledger row; the client
		// never sees its secret, so it can only expire unconfirmed.
		s.logger.Error("Failed to persist pending transaction for gateway intent",
			zap.String("gateway_intent_id", resp.GatewayIntentID),
			zap.Error(err))
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, tx)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordIntentCreated(ctx, currency)
	}

	s.logger.Info("Payment intent created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("gateway_intent_id", resp.GatewayIntentID),
		zap.Int64("amount", input.Amount),
		zap.Int64("total_charge", fees.TotalCharge),
		zap.String("currency", currency))

	return &CreateIntentResult{
		TransactionID: tx.ID,
		ClientSecret:  resp.ClientSecret,
		Fees:          fees,
	}, nil
}

// validate applies the request-level rules; everything it rejects maps to
// a 400 at the HTTP layer.
func (s *IntentService) validate(userID uuid.UUID, currency string, input CreateIntentInput) error {
	if userID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if input.Amount <= 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	if _, ok := s.currencies[currency]; !ok {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Currency %q is not supported", input.Currency))
	}
	if input.PaymentMethodID == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Payment method ID is required")
	}
	if input.PropertyID != nil && (input.TokenAmount == nil || *input.TokenAmount < 1) {
		return shared.NewDomainError("VALIDATION_ERROR", "Token amount must be at least 1 for a property purchase")
	}
	if input.PropertyID == nil && input.TokenAmount != nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Token amount requires a property ID")
	}
	return nil
}

// gatewayIdempotencyKey returns the key attached to the gateway call. When
// the client supplied an idempotency key, a generated gateway key is
// remembered under it so a retried call reuses the same gateway intent
// instead of opening a second one.
func (s *IntentService) gatewayIdempotencyKey(ctx context.Context, userID uuid.UUID, input CreateIntentInput) string {
	key := uuid.NewString()
	if s.idempotency == nil || input.IdempotencyKey == "" {
		return key
	}
	stored, _, err := s.idempotency.Remember(ctx,
		fmt.Sprintf("payment:intent:%s:%s", userID, input.IdempotencyKey), key, s.idempotencyTTL)
	if err != nil {
		s.logger.Warn("Failed to remember gateway idempotency key, proceeding with a fresh key",
			zap.Error(err))
		return key
	}
	return stored
}

// gatewayMetadata attaches the ledger context to the gateway intent so the
// charge is traceable from the gateway dashboard.
func (s *IntentService) gatewayMetadata(userID uuid.UUID, input CreateIntentInput) map[string]string {
	metadata := map[string]string{
		"user_id":     userID.String(),
		"base_amount": fmt.Sprintf("%d", input.Amount),
	}
	if input.PropertyID != nil {
		metadata["property_id"] = input.PropertyID.String()
	}
	if input.TokenAmount != nil {
		metadata["token_amount"] = fmt.Sprintf("%d", *input.TokenAmount)
	}
	for k, v := range input.Metadata {
		if _, reserved := metadata[k]; !reserved {
			metadata[k] = v
		}
	}
	return metadata
}
