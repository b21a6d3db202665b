package payment

import (
	"time"
)

// Gateway webhook event types the processor dispatches on
const (
	WebhookEventTypeIntentSucceeded = "payment_intent.succeeded"
	WebhookEventTypeIntentFailed    = "payment_intent.payment_failed"
	WebhookEventTypeIntentCanceled  = "payment_intent.canceled"
	WebhookEventTypeDisputeCreated  = "charge.dispute.created"
)

// WebhookEvent is the durable idempotency and audit record of one inbound
// gateway event. The id is gateway-assigned and globally unique; the row is
// inserted with Processed=false before any handler runs, and flipped to
// true only after dispatch completes. A replayed id that is already
// processed must be acked without touching any other table.
type WebhookEvent struct {
	ID          string     `gorm:"primaryKey;size:255"`
	Type        string     `gorm:"size:64;not null;index"`
	ReceivedAt  time.Time  `gorm:"not null"`
	Processed   bool       `gorm:"not null;default:false"`
	ProcessedAt *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// NewWebhookEvent records an inbound event before dispatch
func NewWebhookEvent(id, eventType string) *WebhookEvent {
	return &WebhookEvent{
		ID:         id,
		Type:       eventType,
		ReceivedAt: time.Now(),
		Processed:  false,
	}
}

// MarkProcessed flips the event to processed after a successful dispatch
func (e *WebhookEvent) MarkProcessed() {
	now := time.Now()
	e.Processed = true
	e.ProcessedAt = &now
}
