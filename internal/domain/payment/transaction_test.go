package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func newTestPurchase(t *testing.T) *Transaction {
	t.Helper()
	propertyID := uuid.New()
	tokens := int64(10)
	tx, err := NewPurchaseTransaction(
		uuid.New(), &propertyID, "pi_test_123", 10000, "usd", &tokens,
		FeeBreakdown{PlatformFee: 250, ProcessingFee: 320, TotalCharge: 10570},
		Metadata{"source": "test"},
	)
	assert.NoError(t, err)
	return tx
}

func TestNewPurchaseTransaction(t *testing.T) {
	tx := newTestPurchase(t)

	assert.Equal(t, TransactionStatusPending, tx.Status)
	assert.Equal(t, TransactionKindPurchase, tx.Kind)
	assert.Equal(t, int64(10000), tx.Amount)
	assert.Equal(t, int64(10570), tx.TotalCharge)
	assert.False(t, tx.Settled)
	assert.Equal(t, 1, tx.Version)

	events := tx.GetDomainEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, EventTypeTransactionOpened, events[0].EventType())
}

func TestNewPurchaseTransaction_Validation(t *testing.T) {
	tokens := int64(1)
	badTokens := int64(0)
	propertyID := uuid.New()

	tests := []struct {
		name     string
		userID   uuid.UUID
		intentID string
		amount   int64
		currency string
		tokens   *int64
	}{
		{"nil user", uuid.Nil, "pi_1", 100, "usd", &tokens},
		{"empty intent", uuid.New(), "", 100, "usd", &tokens},
		{"zero amount", uuid.New(), "pi_1", 0, "usd", &tokens},
		{"negative amount", uuid.New(), "pi_1", -5, "usd", &tokens},
		{"bad currency", uuid.New(), "pi_1", 100, "dollars", &tokens},
		{"zero tokens", uuid.New(), "pi_1", 100, "usd", &badTokens},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPurchaseTransaction(tt.userID, &propertyID, tt.intentID, tt.amount, tt.currency, tt.tokens, FeeBreakdown{}, nil)
			assert.Error(t, err)
		})
	}
}

func TestTransaction_StatusMachine(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(tx *Transaction) error
		apply   func(tx *Transaction) error
		wantErr bool
	}{
		{
			name:    "pending to succeeded",
			prepare: func(tx *Transaction) error { return nil },
			apply:   func(tx *Transaction) error { return tx.MarkSucceeded() },
		},
		{
			name:    "pending to failed",
			prepare: func(tx *Transaction) error { return nil },
			apply:   func(tx *Transaction) error { return tx.MarkFailed() },
		},
		{
			name:    "pending to cancelled",
			prepare: func(tx *Transaction) error { return nil },
			apply:   func(tx *Transaction) error { return tx.MarkCancelled() },
		},
		{
			name:    "succeeded to refunded",
			prepare: func(tx *Transaction) error { return tx.MarkSucceeded() },
			apply:   func(tx *Transaction) error { return tx.MarkRefunded() },
		},
		{
			name:    "pending to refunded rejected",
			prepare: func(tx *Transaction) error { return nil },
			apply:   func(tx *Transaction) error { return tx.MarkRefunded() },
			wantErr: true,
		},
		{
			name:    "succeeded to failed rejected",
			prepare: func(tx *Transaction) error { return tx.MarkSucceeded() },
			apply:   func(tx *Transaction) error { return tx.MarkFailed() },
			wantErr: true,
		},
		{
			name:    "failed to succeeded rejected",
			prepare: func(tx *Transaction) error { return tx.MarkFailed() },
			apply:   func(tx *Transaction) error { return tx.MarkSucceeded() },
			wantErr: true,
		},
		{
			name:    "cancelled to refunded rejected",
			prepare: func(tx *Transaction) error { return tx.MarkCancelled() },
			apply:   func(tx *Transaction) error { return tx.MarkRefunded() },
			wantErr: true,
		},
		{
			name:    "refunded is terminal",
			prepare: func(tx *Transaction) error { _ = tx.MarkSucceeded(); return tx.MarkRefunded() },
			apply:   func(tx *Transaction) error { return tx.MarkSucceeded() },
			wantErr: true,
		},
		{
			name:    "double success rejected",
			prepare: func(tx *Transaction) error { return tx.MarkSucceeded() },
			apply:   func(tx *Transaction) error { return tx.MarkSucceeded() },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newTestPurchase(t)
			assert.NoError(t, tt.prepare(tx))

			err := tt.apply(tx)
			if tt.wantErr {
				assert.Error(t, err)
				var domainErr *shared.DomainError
				assert.ErrorAs(t, err, &domainErr)
				assert.Equal(t, "INVALID_STATE_TRANSITION", domainErr.Code)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, tx.ProcessedAt)
			}
		})
	}
}

func TestTransaction_MarkSucceeded_BumpsVersion(t *testing.T) {
	tx := newTestPurchase(t)
	v := tx.Version

	assert.NoError(t, tx.MarkSucceeded())
	assert.Equal(t, v+1, tx.Version)
}

func TestTransaction_MarkSettled(t *testing.T) {
	tx := newTestPurchase(t)

	// Pending purchases cannot settle
	assert.Error(t, tx.MarkSettled())

	assert.NoError(t, tx.MarkSucceeded())
	assert.NoError(t, tx.MarkSettled())
	assert.True(t, tx.Settled)

	// Second settle attempt is rejected
	err := tx.MarkSettled()
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestTransaction_IsRefundable(t *testing.T) {
	tx := newTestPurchase(t)
	assert.False(t, tx.IsRefundable())

	assert.NoError(t, tx.MarkSucceeded())
	assert.True(t, tx.IsRefundable())

	assert.NoError(t, tx.MarkRefunded())
	assert.False(t, tx.IsRefundable())
}

func TestNewRefundTransaction(t *testing.T) {
	original := newTestPurchase(t)
	assert.NoError(t, original.MarkSucceeded())

	refund, err := NewRefundTransaction(original, 4000, "re_test_1")
	assert.NoError(t, err)
	assert.Equal(t, int64(-4000), refund.Amount)
	assert.Equal(t, TransactionKindRefund, refund.Kind)
	assert.Equal(t, TransactionStatusSucceeded, refund.Status)
	assert.Equal(t, original.ID.String(), refund.Metadata["original_transaction_id"])
	assert.Equal(t, "re_test_1", refund.Metadata["gateway_refund_id"])

	_, err = NewRefundTransaction(original, original.Amount+1, "re_test_2")
	assert.Error(t, err)

	_, err = NewRefundTransaction(original, 0, "re_test_3")
	assert.Error(t, err)
}
