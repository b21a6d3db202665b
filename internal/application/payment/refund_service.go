package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/application/settlement"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/propshare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RefundService reverses succeeded purchases. The refund request is
// validated and persisted before the gateway is called, and the three
// ledger writes a successful refund needs (negative counterpart row,
// original flipped to refunded, request flipped to processed) commit in
// one database transaction. Refunds never restore property inventory;
// that is a deliberate manual operation.
type RefundService struct {
	transactionRepo payment.TransactionRepository
	refundRepo      payment.RefundRequestRepository
	gateway         payment.Gateway
	scope           settlement.TransactionScope
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// RefundServiceConfig contains configuration for RefundService
type RefundServiceConfig struct {
	TransactionRepo  payment.TransactionRepository
	RefundRepo       payment.RefundRequestRepository
	Gateway          payment.Gateway
	TransactionScope settlement.TransactionScope
	IdempotencyStore shared.IdempotencyStore
	IdempotencyTTL   time.Duration
	EventPublisher   shared.EventPublisher
	Logger           *zap.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(cfg RefundServiceConfig) *RefundService {
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &RefundService{
		transactionRepo: cfg.TransactionRepo,
		refundRepo:      cfg.RefundRepo,
		gateway:         cfg.Gateway,
		scope:           cfg.TransactionScope,
		idempotency:     cfg.IdempotencyStore,
		idempotencyTTL:  ttl,
		eventPublisher:  cfg.EventPublisher,
		logger:          cfg.Logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *RefundService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Refund reverses (part of) the caller's succeeded transaction. Gateway
// failure marks the request failed and leaves the original untouched.
func (s *RefundService) Refund(ctx context.Context, userID, transactionID uuid.UUID, requestedAmount int64, reason string) (*RefundResult, error) {
	original, err := s.transactionRepo.FindByIDForUser(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	pending, err := s.refundRepo.FindPendingByTransactionID(ctx, original.ID)
	if err != nil && err != shared.ErrNotFound {
		return nil, err
	}
	if pending != nil {
		return nil, shared.ErrRefundNotAllowed
	}

	// Validates refundability and bounds against the original. No gateway
	// call happens unless this succeeds.
	req, err := payment.NewRefundRequest(original, requestedAmount, reason)
	if err != nil {
		return nil, err
	}
	if err := s.refundRepo.Create(ctx, req); err != nil {
		if err == shared.ErrAlreadyExists {
			// Lost the race against a concurrent request; the partial
			// unique index admits one pending row per transaction.
			return nil, shared.ErrRefundNotAllowed
		}
		return nil, err
	}

	resp, err := s.gateway.CreateRefund(ctx, &payment.RefundIntentRequest{
		GatewayIntentID: original.GatewayIntentID,
		Amount:          requestedAmount,
		Reason:          reason,
		IdempotencyKey:  s.gatewayIdempotencyKey(ctx, original.ID, requestedAmount),
	})
	if err != nil {
		s.logger.Error("Gateway refund failed",
			zap.String("refund_request_id", req.ID.String()),
			zap.String("gateway_intent_id", original.GatewayIntentID),
			zap.Error(err))
		s.markFailed(ctx, req)
		return nil, shared.ErrGatewayUnavailable
	}

	err = s.scope.Execute(ctx, func(repos settlement.TransactionalRepositories) error {
		refundTx, err := payment.NewRefundTransaction(original, requestedAmount, resp.GatewayRefundID)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, refundTx); err != nil {
			return err
		}
		if err := original.MarkRefunded(); err != nil {
			return err
		}
		if err := repos.TransactionRepo().SaveWithLock(ctx, original); err != nil {
			return err
		}
		if err := req.MarkProcessed(resp.GatewayRefundID); err != nil {
			return err
		}
		return repos.RefundRepo().SaveWithLock(ctx, req)
	})
	if err != nil {
		// The gateway refund went through but the ledger did not record
		// it. The pending request row keeps it visible for reconciliation.
		s.logger.Error("Gateway refund succeeded but the ledger commit failed",
			zap.String("refund_request_id", req.ID.String()),
			zap.String("gateway_refund_id", resp.GatewayRefundID),
			zap.Error(err))
		return nil, err
	}

	publishDomainEvents(ctx, s.eventPublisher, original)
	publishDomainEvents(ctx, s.eventPublisher, req)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordRefund(ctx, original.Currency, reason)
	}

	s.logger.Info("Refund processed",
		zap.String("refund_request_id", req.ID.String()),
		zap.String("transaction_id", original.ID.String()),
		zap.String("gateway_refund_id", resp.GatewayRefundID),
		zap.Int64("amount", requestedAmount))

	return &RefundResult{
		RefundRequestID: req.ID,
		TransactionID:   original.ID,
		Status:          req.Status.String(),
		GatewayRefundID: req.GatewayRefundID,
	}, nil
}

// markFailed finalizes the request after a gateway failure. The original
// transaction stays succeeded.
func (s *RefundService) markFailed(ctx context.Context, req *payment.RefundRequest) {
	if err := req.MarkFailed(); err != nil {
		s.logger.Error("Failed to mark refund request failed",
			zap.String("refund_request_id", req.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.refundRepo.SaveWithLock(ctx, req); err != nil {
		s.logger.Error("Failed to persist failed refund request",
			zap.String("refund_request_id", req.ID.String()),
			zap.Error(err))
		return
	}
	publishDomainEvents(ctx, s.eventPublisher, req)
}

// gatewayIdempotencyKey returns the key attached to the gateway refund.
// Keyed by transaction and amount so a retried refund of the same
// transaction reuses the same gateway-side refund instead of issuing a
// second one.
func (s *RefundService) gatewayIdempotencyKey(ctx context.Context, transactionID uuid.UUID, amount int64) string {
	key := uuid.NewString()
	if s.idempotency == nil {
		return key
	}
	stored, _, err := s.idempotency.Remember(ctx,
		fmt.Sprintf("payment:refund:%s:%d", transactionID, amount), key, s.idempotencyTTL)
	if err != nil {
		s.logger.Warn("Failed to remember gateway idempotency key, proceeding with a fresh key",
			zap.Error(err))
		return key
	}
	return stored
}
