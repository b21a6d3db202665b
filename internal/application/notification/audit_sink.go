package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/audit"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditSink subscribes to the pipeline's outcome events and records them
// as audit entries for operator follow-up. The sink never propagates
// failures: a lost audit row or log line must not unwind the operation
// that emitted the event.
type AuditSink struct {
	auditRepo audit.LogRepository
	logger    *zap.Logger
}

// NewAuditSink creates a new AuditSink
func NewAuditSink(auditRepo audit.LogRepository, logger *zap.Logger) *AuditSink {
	return &AuditSink{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (s *AuditSink) EventTypes() []string {
	return []string{
		property.EventTypeSettlementCompleted,
		property.EventTypeSettlementRejected,
		payment.EventTypeDisputeOpened,
		payment.EventTypeRefundProcessed,
		payment.EventTypeRefundFailed,
	}
}

// Handle records the event as an audit entry. Always returns nil.
func (s *AuditSink) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *property.SettlementCompletedEvent:
		s.logger.Info("Settlement completed",
			zap.String("transaction_id", e.TransactionID.String()),
			zap.String("property_id", e.PropertyID.String()),
			zap.Int64("token_amount", e.TokenAmount),
			zap.Int64("tokens_owned", e.TokensOwned))
		s.record(ctx, audit.ActionSettlementCompleted, "Transaction", e.TransactionID, audit.Detail{
			"user_id":      e.UserID.String(),
			"property_id":  e.PropertyID.String(),
			"token_amount": e.TokenAmount,
			"net_amount":   e.NetAmount,
			"tokens_owned": e.TokensOwned,
		})
	case *property.SettlementRejectedEvent:
		s.logger.Warn("Settlement rejected, manual reconciliation required",
			zap.String("transaction_id", e.TransactionID.String()),
			zap.String("property_id", e.PropertyID.String()),
			zap.Int64("token_amount", e.TokenAmount),
			zap.Int64("available_tokens", e.AvailableTokens),
			zap.String("reason", e.Reason))
		s.record(ctx, audit.ActionSettlementRejected, "Transaction", e.TransactionID, audit.Detail{
			"user_id":          e.UserID.String(),
			"property_id":      e.PropertyID.String(),
			"token_amount":     e.TokenAmount,
			"available_tokens": e.AvailableTokens,
			"reason":           e.Reason,
		})
	case *payment.DisputeOpenedEvent:
		s.logger.Warn("Dispute opened",
			zap.String("dispute_id", e.DisputeID.String()),
			zap.String("gateway_dispute_id", e.GatewayDisputeID),
			zap.Int64("amount", e.Amount),
			zap.String("reason", e.Reason))
		detail := audit.Detail{
			"gateway_dispute_id": e.GatewayDisputeID,
			"gateway_intent_id":  e.GatewayIntentID,
			"amount":             e.Amount,
			"reason":             e.Reason,
		}
		if e.TransactionID != nil {
			detail["transaction_id"] = e.TransactionID.String()
		}
		s.record(ctx, audit.ActionDisputeOpened, "Dispute", e.DisputeID, detail)
	case *payment.RefundProcessedEvent:
		s.logger.Info("Refund processed",
			zap.String("refund_request_id", e.RefundRequestID.String()),
			zap.String("transaction_id", e.TransactionID.String()),
			zap.Int64("amount", e.RequestedAmount))
		s.record(ctx, audit.ActionRefundProcessed, "RefundRequest", e.RefundRequestID, audit.Detail{
			"transaction_id":    e.TransactionID.String(),
			"requested_amount":  e.RequestedAmount,
			"gateway_refund_id": e.GatewayRefundID,
		})
	case *payment.RefundFailedEvent:
		s.logger.Warn("Refund failed",
			zap.String("refund_request_id", e.RefundRequestID.String()),
			zap.String("transaction_id", e.TransactionID.String()),
			zap.Int64("amount", e.RequestedAmount))
		s.record(ctx, audit.ActionRefundFailed, "RefundRequest", e.RefundRequestID, audit.Detail{
			"transaction_id":   e.TransactionID.String(),
			"requested_amount": e.RequestedAmount,
		})
	default:
		s.logger.Debug("Unhandled event type in audit sink",
			zap.String("event_type", event.EventType()))
	}
	return nil
}

// record appends the audit entry; the failure is logged, never returned
func (s *AuditSink) record(ctx context.Context, action, entityType string, entityID uuid.UUID, detail audit.Detail) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Create(ctx, audit.NewLog(action, entityType, entityID, detail)); err != nil {
		s.logger.Error("Failed to write audit entry",
			zap.String("action", action),
			zap.String("entity_id", entityID.String()),
			zap.Error(err))
	}
}

// Ensure AuditSink implements shared.EventHandler
var _ shared.EventHandler = (*AuditSink)(nil)
