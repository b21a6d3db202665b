package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/propshare/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// archiveTimeout bounds the background payload archive write
const archiveTimeout = 10 * time.Second

// Settler applies a succeeded purchase to inventory and investor positions
type Settler interface {
	Settle(ctx context.Context, transactionID uuid.UUID) (*property.Share, error)
}

// WebhookService processes verified gateway webhook events. It is the only
// path by which a transaction leaves the pending state. Every event ID is
// recorded before dispatch and marked processed only after a successful
// dispatch, so redelivered events are acked without re-running handlers
// while a failed dispatch keeps the row unprocessed for the next delivery.
type WebhookService struct {
	gateway          payment.Gateway
	webhookEventRepo payment.WebhookEventRepository
	transactionRepo  payment.TransactionRepository
	disputeRepo      payment.DisputeRepository
	settler          Settler
	archive          PayloadArchive
	eventPublisher   shared.EventPublisher
	businessMetrics  *telemetry.BusinessMetrics
	logger           *zap.Logger
}

// WebhookServiceConfig contains configuration for WebhookService
type WebhookServiceConfig struct {
	Gateway          payment.Gateway
	WebhookEventRepo payment.WebhookEventRepository
	TransactionRepo  payment.TransactionRepository
	DisputeRepo      payment.DisputeRepository
	Settler          Settler
	Archive          PayloadArchive
	EventPublisher   shared.EventPublisher
	Logger           *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	return &WebhookService{
		gateway:          cfg.Gateway,
		webhookEventRepo: cfg.WebhookEventRepo,
		transactionRepo:  cfg.TransactionRepo,
		disputeRepo:      cfg.DisputeRepo,
		settler:          cfg.Settler,
		archive:          cfg.Archive,
		eventPublisher:   cfg.EventPublisher,
		logger:           cfg.Logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *WebhookService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Handle verifies and processes one raw webhook delivery. A nil error means
// the delivery may be acked; a non-nil error tells the HTTP layer to answer
// 5xx so the gateway redelivers. Signature failures return
// shared.ErrSignatureInvalid before anything is written.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	event, err := s.gateway.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		s.logger.Warn("Rejected webhook with invalid signature", zap.Error(err))
		return nil, shared.ErrSignatureInvalid
	}

	s.logger.Info("Processing gateway webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	s.archivePayload(ctx, event)

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
		Processed: true,
	}

	existing, err := s.webhookEventRepo.FindByID(ctx, event.ID)
	if err != nil && err != shared.ErrNotFound {
		return nil, err
	}
	if existing != nil && existing.Processed {
		result.Message = "event already processed"
		return result, nil
	}

	// Record before dispatch. A concurrent delivery of the same ID lands
	// on the same row; whichever processes first flips it, the other acks.
	stored, created, err := s.webhookEventRepo.Record(ctx, payment.NewWebhookEvent(event.ID, event.Type))
	if err != nil {
		return nil, err
	}
	if !created && stored.Processed {
		result.Message = "event already processed"
		return result, nil
	}

	var handleErr error
	switch event.Type {
	case payment.WebhookEventTypeIntentSucceeded:
		handleErr = s.handleIntentSucceeded(ctx, event)
	case payment.WebhookEventTypeIntentFailed:
		handleErr = s.finalizeIntent(ctx, event.GatewayIntentID,
			(*payment.Transaction).MarkFailed, telemetry.PaymentStatusFailed)
	case payment.WebhookEventTypeIntentCanceled:
		handleErr = s.finalizeIntent(ctx, event.GatewayIntentID,
			(*payment.Transaction).MarkCancelled, telemetry.PaymentStatusCanceled)
	case payment.WebhookEventTypeDisputeCreated:
		handleErr = s.handleDisputeCreated(ctx, event)
	default:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", event.Type))
		result.Message = "event type not handled"
	}

	if handleErr != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(handleErr))
		result.Processed = false
		result.Message = handleErr.Error()
		return result, handleErr
	}

	if err := s.webhookEventRepo.MarkProcessed(ctx, event.ID); err != nil {
		// The row stays unprocessed; the redelivery re-runs the handlers,
		// which are idempotent under the status and settled guards.
		return nil, err
	}
	return result, nil
}

// handleIntentSucceeded confirms the charge and, for token purchases,
// triggers settlement.
func (s *WebhookService) handleIntentSucceeded(ctx context.Context, event *payment.Event) error {
	if event.GatewayIntentID == "" {
		s.logger.Warn("Webhook event carries no gateway intent ID, skipping")
		return nil
	}
	tx, err := s.transactionRepo.FindByGatewayIntentID(ctx, event.GatewayIntentID)
	if err != nil {
		if err == shared.ErrNotFound {
			// Note: ErrNotFound is not treated as an error because the
			// gateway account may carry intents created outside this
			// service. We acknowledge receipt to prevent retries.
			s.logger.Warn("No transaction for gateway intent",
				zap.String("gateway_intent_id", event.GatewayIntentID))
			return nil
		}
		return err
	}
	if tx.Status != payment.TransactionStatusPending {
		// An earlier delivery may have confirmed the charge and then lost
		// the settlement to a transient failure. That delivery returned an
		// error, so the event row is still unprocessed and the gateway
		// redelivers here; retry the settlement until the claim lands.
		if tx.Status == payment.TransactionStatusSucceeded && awaitingSettlement(tx) {
			s.logger.Info("Retrying settlement for confirmed purchase",
				zap.String("transaction_id", tx.ID.String()))
			return s.settlePurchase(ctx, tx)
		}
		s.logger.Debug("Transaction already finalized, ignoring event",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("status", tx.Status.String()))
		return nil
	}
	if err := tx.MarkSucceeded(); err != nil {
		return err
	}
	if err := s.transactionRepo.SaveWithLock(ctx, tx); err != nil {
		if err == shared.ErrConcurrencyConflict {
			// Another replica finalized the same intent; the event row
			// dedup already covers redeliveries of this ID.
			s.logger.Info("Transaction finalized by a concurrent processor",
				zap.String("transaction_id", tx.ID.String()))
			return nil
		}
		return err
	}

	publishDomainEvents(ctx, s.eventPublisher, tx)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordPayment(ctx, tx.Currency, telemetry.PaymentStatusSuccess)
		s.businessMetrics.RecordPaymentAmount(ctx, tx.Currency, tx.Amount)
	}

	if !awaitingSettlement(tx) {
		return nil
	}
	return s.settlePurchase(ctx, tx)
}

// awaitingSettlement reports whether the transaction is a token purchase
// that still owes the investor a position.
func awaitingSettlement(tx *payment.Transaction) bool {
	return tx.Kind == payment.TransactionKindPurchase && !tx.Settled &&
		tx.PropertyID != nil && tx.TokenAmount != nil
}

// settlePurchase invokes the settlement engine. Business-rule outcomes are
// final and acked; anything else bubbles up so the delivery is retried.
func (s *WebhookService) settlePurchase(ctx context.Context, tx *payment.Transaction) error {
	if _, err := s.settler.Settle(ctx, tx.ID); err != nil {
		switch err {
		case shared.ErrInsufficientInventory, shared.ErrAlreadyExists:
			// Recorded by the settlement engine for reconciliation;
			// redelivering the webhook cannot change the outcome.
			s.logger.Warn("Settlement not applied",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(err))
			return nil
		default:
			return err
		}
	}
	return nil
}

// finalizeIntent moves a pending transaction to a terminal failure state
func (s *WebhookService) finalizeIntent(ctx context.Context, gatewayIntentID string, mark func(*payment.Transaction) error, status telemetry.PaymentStatus) error {
	tx, err := s.lookupPendingTransaction(ctx, gatewayIntentID)
	if err != nil || tx == nil {
		return err
	}
	if err := mark(tx); err != nil {
		return err
	}
	if err := s.transactionRepo.SaveWithLock(ctx, tx); err != nil {
		if err == shared.ErrConcurrencyConflict {
			s.logger.Info("Transaction finalized by a concurrent processor",
				zap.String("transaction_id", tx.ID.String()))
			return nil
		}
		return err
	}
	publishDomainEvents(ctx, s.eventPublisher, tx)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordPayment(ctx, tx.Currency, status)
	}
	return nil
}

// lookupPendingTransaction resolves the intent to its pending ledger row.
// A missing or already-finalized transaction returns (nil, nil): both are
// ack-and-ignore cases, not processing failures.
func (s *WebhookService) lookupPendingTransaction(ctx context.Context, gatewayIntentID string) (*payment.Transaction, error) {
	if gatewayIntentID == "" {
		s.logger.Warn("Webhook event carries no gateway intent ID, skipping")
		return nil, nil
	}
	tx, err := s.transactionRepo.FindByGatewayIntentID(ctx, gatewayIntentID)
	if err != nil {
		if err == shared.ErrNotFound {
			// Note: ErrNotFound is not treated as an error because the
			// gateway account may carry intents created outside this
			// service. We acknowledge receipt to prevent retries.
			s.logger.Warn("No transaction for gateway intent",
				zap.String("gateway_intent_id", gatewayIntentID))
			return nil, nil
		}
		return nil, err
	}
	if tx.Status != payment.TransactionStatusPending {
		s.logger.Debug("Transaction already finalized, ignoring event",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("status", tx.Status.String()))
		return nil, nil
	}
	return tx, nil
}

// handleDisputeCreated records the dispute and notifies operators. The
// transaction status is never changed by a dispute.
func (s *WebhookService) handleDisputeCreated(ctx context.Context, event *payment.Event) error {
	if event.GatewayDisputeID == "" || event.GatewayIntentID == "" {
		s.logger.Warn("Dispute event missing gateway identifiers, skipping",
			zap.String("event_id", event.ID))
		return nil
	}

	existing, err := s.disputeRepo.FindByGatewayDisputeID(ctx, event.GatewayDisputeID)
	if err != nil && err != shared.ErrNotFound {
		return err
	}
	if existing != nil {
		s.logger.Debug("Dispute already recorded",
			zap.String("gateway_dispute_id", event.GatewayDisputeID))
		return nil
	}

	var transactionID *uuid.UUID
	tx, err := s.transactionRepo.FindByGatewayIntentID(ctx, event.GatewayIntentID)
	if err != nil && err != shared.ErrNotFound {
		return err
	}
	if tx != nil {
		transactionID = &tx.ID
	}

	dispute, err := payment.NewDispute(event.GatewayDisputeID, event.GatewayIntentID,
		transactionID, event.Amount, event.Currency, event.Reason, event.DisputeStatus)
	if err != nil {
		return err
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		if err == shared.ErrAlreadyExists {
			return nil
		}
		return err
	}

	publishDomainEvents(ctx, s.eventPublisher, dispute)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordDispute(ctx, event.Currency, event.Reason)
	}
	s.logger.Warn("Dispute opened",
		zap.String("gateway_dispute_id", event.GatewayDisputeID),
		zap.String("gateway_intent_id", event.GatewayIntentID),
		zap.Int64("amount", event.Amount))
	return nil
}

// archivePayload stores the raw payload in the background. Archiving never
// delays or fails the webhook acknowledgement.
func (s *WebhookService) archivePayload(ctx context.Context, event *payment.Event) {
	if s.archive == nil {
		return
	}
	receivedAt := time.Now()
	go func() {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		defer cancel()
		if err := s.archive.Store(actx, event.ID, receivedAt, event.Raw); err != nil {
			s.logger.Warn("Failed to archive webhook payload",
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}()
}
