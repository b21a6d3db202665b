package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type webhookServiceFixture struct {
	service    *WebhookService
	gateway    *MockGateway
	eventStore *fakeWebhookEventStore
	txRepo     *MockTransactionRepository
	disputes   *MockDisputeRepository
	settler    *MockSettler
	publisher  *capturingPublisher
}

func newWebhookServiceFixture() *webhookServiceFixture {
	f := &webhookServiceFixture{
		gateway:    new(MockGateway),
		eventStore: newFakeWebhookEventStore(),
		txRepo:     new(MockTransactionRepository),
		disputes:   new(MockDisputeRepository),
		settler:    new(MockSettler),
		publisher:  &capturingPublisher{},
	}
	f.service = NewWebhookService(WebhookServiceConfig{
		Gateway:          f.gateway,
		WebhookEventRepo: f.eventStore,
		TransactionRepo:  f.txRepo,
		DisputeRepo:      f.disputes,
		Settler:          f.settler,
		EventPublisher:   f.publisher,
		Logger:           zap.NewNop(),
	})
	return f
}

// expectVerified makes the gateway lift the given payload into event
func (f *webhookServiceFixture) expectVerified(event *payment.Event) {
	f.gateway.On("VerifyWebhook", mock.Anything, mock.Anything).Return(event, nil)
}

func pendingPurchase(t *testing.T) *payment.Transaction {
	t.Helper()
	propID := uuid.New()
	tokenAmount := int64(3)
	fees := payment.FeeBreakdown{PlatformFee: 250, ProcessingFee: 320, TotalCharge: 10570}
	tx, err := payment.NewPurchaseTransaction(uuid.New(), &propID, "pi_test_123", 10000, "usd", &tokenAmount, fees, nil)
	require.NoError(t, err)
	tx.ClearDomainEvents()
	return tx
}

func TestWebhookService_Handle_InvalidSignature(t *testing.T) {
	f := newWebhookServiceFixture()
	f.gateway.On("VerifyWebhook", mock.Anything, mock.Anything).Return(nil, payment.ErrSignatureInvalid)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "bad-signature")

	assert.Equal(t, shared.ErrSignatureInvalid, err)
	assert.Nil(t, result)
	f.txRepo.AssertNotCalled(t, "FindByGatewayIntentID", mock.Anything, mock.Anything)
}

func TestWebhookService_Handle_IntentSucceeded_SettlesPurchase(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_1",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)
	share := &property.Share{UserID: tx.UserID, PropertyID: *tx.PropertyID, TokensOwned: 3}
	f.settler.On("Settle", mock.Anything, tx.ID).Return(share, nil)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, payment.TransactionStatusSucceeded, tx.Status)

	stored, err := f.eventStore.FindByID(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.True(t, stored.Processed)

	f.txRepo.AssertExpectations(t)
	f.settler.AssertExpectations(t)
}

func TestWebhookService_Handle_TripleDeliverySettlesOnce(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_replayed",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil).Once()
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil).Once()
	f.settler.On("Settle", mock.Anything, tx.ID).Return(&property.Share{TokensOwned: 3}, nil).Once()

	for i := 0; i < 3; i++ {
		result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")
		require.NoError(t, err)
		assert.True(t, result.Processed)
	}

	f.settler.AssertNumberOfCalls(t, "Settle", 1)
	f.txRepo.AssertNumberOfCalls(t, "SaveWithLock", 1)
}

func TestWebhookService_Handle_IntentFailed(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_failed",
		Type:            payment.WebhookEventTypeIntentFailed,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, payment.TransactionStatusFailed, tx.Status)
	f.settler.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestWebhookService_Handle_IntentCanceled(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_canceled",
		Type:            payment.WebhookEventTypeIntentCanceled,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, payment.TransactionStatusCancelled, tx.Status)
}

func TestWebhookService_Handle_SettledTransactionAcks(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	require.NoError(t, tx.MarkSucceeded())
	require.NoError(t, tx.MarkSettled())
	f.expectVerified(&payment.Event{
		ID:              "evt_late",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	f.txRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.settler.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestWebhookService_Handle_RedeliveryRetriesFailedSettlement(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_retry",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil).Once()
	f.settler.On("Settle", mock.Anything, tx.ID).Return(nil, errors.New("database connection lost")).Once()
	f.settler.On("Settle", mock.Anything, tx.ID).Return(&property.Share{TokensOwned: 3}, nil).Once()

	// First delivery confirms the charge but loses the settlement to a
	// transient failure: the event must stay unprocessed for redelivery.
	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")
	require.Error(t, err)
	assert.False(t, result.Processed)
	stored, ferr := f.eventStore.FindByID(context.Background(), "evt_retry")
	require.NoError(t, ferr)
	assert.False(t, stored.Processed)

	// The redelivery finds the transaction succeeded but unsettled and
	// must retry the settlement rather than ack it as a duplicate.
	result, err = f.service.Handle(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.True(t, result.Processed)

	stored, ferr = f.eventStore.FindByID(context.Background(), "evt_retry")
	require.NoError(t, ferr)
	assert.True(t, stored.Processed)

	f.settler.AssertNumberOfCalls(t, "Settle", 2)
	f.txRepo.AssertNumberOfCalls(t, "SaveWithLock", 1)
}

func TestWebhookService_Handle_UnknownIntentAcks(t *testing.T) {
	f := newWebhookServiceFixture()
	f.expectVerified(&payment.Event{
		ID:              "evt_foreign",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_foreign",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_foreign").Return(nil, shared.ErrNotFound)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
}

func TestWebhookService_Handle_UnknownEventTypeAcks(t *testing.T) {
	f := newWebhookServiceFixture()
	f.expectVerified(&payment.Event{
		ID:   "evt_other",
		Type: "payment_intent.created",
	})

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, "event type not handled", result.Message)

	stored, err := f.eventStore.FindByID(context.Background(), "evt_other")
	require.NoError(t, err)
	assert.True(t, stored.Processed)
}

func TestWebhookService_Handle_SettlementRejectionAcks(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_oversold",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)
	f.settler.On("Settle", mock.Anything, tx.ID).Return(nil, shared.ErrInsufficientInventory)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	// The rejection is recorded for reconciliation; the delivery is acked
	// so the gateway does not retry a settlement that cannot succeed.
	require.NoError(t, err)
	assert.True(t, result.Processed)

	stored, err := f.eventStore.FindByID(context.Background(), "evt_oversold")
	require.NoError(t, err)
	assert.True(t, stored.Processed)
}

func TestWebhookService_Handle_HandlerErrorLeavesEventUnprocessed(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_flaky",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(errors.New("database connection lost"))

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.Error(t, err)
	assert.False(t, result.Processed)

	// The event row stays unprocessed so a redelivery re-attempts it
	stored, ferr := f.eventStore.FindByID(context.Background(), "evt_flaky")
	require.NoError(t, ferr)
	assert.False(t, stored.Processed)
}

func TestWebhookService_Handle_ConcurrentFinalizationAcks(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	f.expectVerified(&payment.Event{
		ID:              "evt_race",
		Type:            payment.WebhookEventTypeIntentSucceeded,
		GatewayIntentID: "pi_test_123",
	})
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.txRepo.On("SaveWithLock", mock.Anything, tx).Return(shared.ErrConcurrencyConflict)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	f.settler.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
}

func TestWebhookService_Handle_DisputeCreated(t *testing.T) {
	f := newWebhookServiceFixture()
	tx := pendingPurchase(t)
	require.NoError(t, tx.MarkSucceeded())
	tx.ClearDomainEvents()
	f.expectVerified(&payment.Event{
		ID:               "evt_dispute",
		Type:             payment.WebhookEventTypeDisputeCreated,
		GatewayIntentID:  "pi_test_123",
		GatewayDisputeID: "dp_test_1",
		Amount:           10000,
		Currency:         "usd",
		Reason:           "fraudulent",
		DisputeStatus:    "needs_response",
	})
	f.disputes.On("FindByGatewayDisputeID", mock.Anything, "dp_test_1").Return(nil, shared.ErrNotFound)
	f.txRepo.On("FindByGatewayIntentID", mock.Anything, "pi_test_123").Return(tx, nil)
	f.disputes.On("Create", mock.Anything, mock.MatchedBy(func(d *payment.Dispute) bool {
		return d.GatewayDisputeID == "dp_test_1" && d.TransactionID != nil && *d.TransactionID == tx.ID
	})).Return(nil)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	// Disputes never change the transaction status
	assert.Equal(t, payment.TransactionStatusSucceeded, tx.Status)
	assert.Contains(t, f.publisher.eventTypes(), payment.EventTypeDisputeOpened)
	f.disputes.AssertExpectations(t)
}

func TestWebhookService_Handle_DuplicateDisputeAcks(t *testing.T) {
	f := newWebhookServiceFixture()
	existing := &payment.Dispute{GatewayDisputeID: "dp_test_1"}
	f.expectVerified(&payment.Event{
		ID:               "evt_dispute_replay",
		Type:             payment.WebhookEventTypeDisputeCreated,
		GatewayIntentID:  "pi_test_123",
		GatewayDisputeID: "dp_test_1",
	})
	f.disputes.On("FindByGatewayDisputeID", mock.Anything, "dp_test_1").Return(existing, nil)

	result, err := f.service.Handle(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.True(t, result.Processed)
	f.disputes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
