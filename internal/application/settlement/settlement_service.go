package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/propshare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SettlementService applies a succeeded purchase to inventory and investor
// positions. The settled-marker claim, the inventory decrement and the
// position upsert execute inside one database transaction, each guarded by
// a conditional WHERE clause, so the engine is safe under concurrent
// deliveries and across replicated instances without any in-process lock.
type SettlementService struct {
	scope           TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// SettlementServiceConfig contains configuration for SettlementService
type SettlementServiceConfig struct {
	TransactionScope TransactionScope
	EventPublisher   shared.EventPublisher
	Logger           *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(cfg SettlementServiceConfig) *SettlementService {
	return &SettlementService{
		scope:          cfg.TransactionScope,
		eventPublisher: cfg.EventPublisher,
		logger:         cfg.Logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *SettlementService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// settlementOutcome carries what the transactional closure learned out to
// the post-commit event and metric emission.
type settlementOutcome struct {
	userID          uuid.UUID
	propertyID      uuid.UUID
	tokenAmount     int64
	netAmount       int64
	tokensOwned     int64
	availableTokens int64
}

// Settle settles one succeeded purchase transaction. Exactly one call per
// transaction succeeds: concurrent or repeated calls lose the settled-marker
// claim and get shared.ErrAlreadyExists. When the property lacks tokens the
// whole transaction rolls back, the purchase stays succeeded and unsettled,
// and shared.ErrInsufficientInventory is returned after a rejection event
// has been emitted for manual reconciliation.
func (s *SettlementService) Settle(ctx context.Context, transactionID uuid.UUID) (*property.Share, error) {
	var share *property.Share
	outcome := &settlementOutcome{}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tx, err := repos.TransactionRepo().FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Kind != payment.TransactionKindPurchase || tx.Status != payment.TransactionStatusSucceeded {
			return shared.ErrInvalidState
		}
		if tx.PropertyID == nil || tx.TokenAmount == nil || *tx.TokenAmount <= 0 {
			return shared.ErrInvalidState
		}
		if tx.Settled {
			return shared.ErrAlreadyExists
		}

		outcome.userID = tx.UserID
		outcome.propertyID = *tx.PropertyID
		outcome.tokenAmount = *tx.TokenAmount
		outcome.netAmount = tx.NetAmount()

		// Claim first: the conditional flip makes exactly one processor
		// the settler even when the same webhook is dispatched twice.
		if err := repos.TransactionRepo().ClaimSettlement(ctx, tx.ID); err != nil {
			return err
		}

		if err := repos.PropertyRepo().DeductAvailableTokens(ctx, *tx.PropertyID, *tx.TokenAmount); err != nil {
			if err == shared.ErrInsufficientInventory {
				if prop, perr := repos.PropertyRepo().FindByID(ctx, *tx.PropertyID); perr == nil {
					outcome.availableTokens = prop.AvailableTokens
				}
			}
			return err
		}

		share, err = repos.ShareRepo().AddToPosition(ctx, tx.UserID, *tx.PropertyID, *tx.TokenAmount, tx.NetAmount())
		if err != nil {
			return err
		}
		outcome.tokensOwned = share.TokensOwned
		return nil
	})

	if err != nil {
		if err == shared.ErrInsufficientInventory {
			s.rejectSettlement(ctx, transactionID, outcome)
		}
		return nil, err
	}

	s.completeSettlement(ctx, transactionID, outcome)
	return share, nil
}

// completeSettlement emits the post-commit event and metric. Failures here
// never unwind the settlement.
func (s *SettlementService) completeSettlement(ctx context.Context, transactionID uuid.UUID, outcome *settlementOutcome) {
	s.logger.Info("Settlement completed",
		zap.String("transaction_id", transactionID.String()),
		zap.String("property_id", outcome.propertyID.String()),
		zap.Int64("token_amount", outcome.tokenAmount),
		zap.Int64("tokens_owned", outcome.tokensOwned))

	if s.eventPublisher != nil {
		event := property.NewSettlementCompletedEvent(transactionID, outcome.userID,
			outcome.propertyID, outcome.tokenAmount, outcome.netAmount, outcome.tokensOwned)
		_ = s.eventPublisher.Publish(ctx, event)
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSettlement(ctx, outcome.propertyID.String(), telemetry.SettlementOutcomeSettled)
	}
}

// rejectSettlement records an oversold purchase for manual reconciliation.
// The transaction stays succeeded and unsettled.
func (s *SettlementService) rejectSettlement(ctx context.Context, transactionID uuid.UUID, outcome *settlementOutcome) {
	s.logger.Warn("Settlement rejected: insufficient inventory",
		zap.String("transaction_id", transactionID.String()),
		zap.String("property_id", outcome.propertyID.String()),
		zap.Int64("token_amount", outcome.tokenAmount),
		zap.Int64("available_tokens", outcome.availableTokens))

	if s.eventPublisher != nil {
		event := property.NewSettlementRejectedEvent(transactionID, outcome.userID,
			outcome.propertyID, outcome.tokenAmount, outcome.availableTokens, "insufficient inventory")
		_ = s.eventPublisher.Publish(ctx, event)
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSettlement(ctx, outcome.propertyID.String(), telemetry.SettlementOutcomeRejected)
	}
}
