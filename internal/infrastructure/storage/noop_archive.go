package storage

import (
	"context"
	"errors"
	"time"

	paymentapp "github.com/propshare/backend/internal/application/payment"
)

// NoOpPayloadArchive discards payloads. Used when archiving is disabled
// in configuration so callers never have to nil-check the archive.
type NoOpPayloadArchive struct{}

// NewNoOpPayloadArchive creates a new NoOpPayloadArchive
func NewNoOpPayloadArchive() *NoOpPayloadArchive {
	return &NoOpPayloadArchive{}
}

// Ensure NoOpPayloadArchive implements PayloadArchive
var _ paymentapp.PayloadArchive = (*NoOpPayloadArchive)(nil)

// Store validates the event ID and discards the payload
func (n *NoOpPayloadArchive) Store(ctx context.Context, eventID string, receivedAt time.Time, payload []byte) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return nil
}
