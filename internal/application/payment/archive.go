package payment

import (
	"context"
	"time"
)

// PayloadArchive persists raw webhook payloads for audit and replay.
// Archiving is best-effort: callers log failures but never fail the
// webhook acknowledgement because of them.
type PayloadArchive interface {
	// Store archives the raw payload of a gateway event. receivedAt is
	// used to partition archived objects by date.
	Store(ctx context.Context, eventID string, receivedAt time.Time, payload []byte) error
}
