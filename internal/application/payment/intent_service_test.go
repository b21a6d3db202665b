package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFeeSchedule(t *testing.T) payment.FeeSchedule {
	t.Helper()
	schedule, err := payment.NewFeeSchedule("0.025", "0.029", 30)
	require.NoError(t, err)
	return schedule
}

func newIntentServiceForTest(t *testing.T, txRepo *MockTransactionRepository, propRepo *MockPropertyRepository, gateway *MockGateway, store shared.IdempotencyStore) *IntentService {
	t.Helper()
	return NewIntentService(IntentServiceConfig{
		TransactionRepo:     txRepo,
		PropertyRepo:        propRepo,
		Gateway:             gateway,
		FeeSchedule:         testFeeSchedule(t),
		SupportedCurrencies: []string{"usd", "eur", "gbp"},
		IdempotencyStore:    store,
		EventPublisher:      &capturingPublisher{},
		Logger:              zap.NewNop(),
	})
}

func testProperty(t *testing.T, availableTokens int64) *property.Property {
	t.Helper()
	prop, err := property.NewProperty("Harbor View Lofts", 1000, 5000, "usd")
	require.NoError(t, err)
	prop.AvailableTokens = availableTokens
	return prop
}

func TestIntentService_CreateIntent_PurchaseSuccess(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	propRepo := new(MockPropertyRepository)
	gateway := new(MockGateway)
	service := newIntentServiceForTest(t, txRepo, propRepo, gateway, nil)

	userID := uuid.New()
	prop := testProperty(t, 100)
	tokenAmount := int64(2)

	propRepo.On("FindByID", mock.Anything, prop.ID).Return(prop, nil)
	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *payment.CreateIntentRequest) bool {
		return req.Amount == 10570 && req.Currency == "usd" && req.IdempotencyKey != ""
	})).Return(&payment.CreateIntentResponse{
		GatewayIntentID: "pi_test_123",
		ClientSecret:    "pi_test_123_secret",
		Status:          "requires_confirmation",
	}, nil)
	txRepo.On("Create", mock.Anything, mock.AnythingOfType("*payment.Transaction")).Return(nil)

	result, err := service.CreateIntent(context.Background(), userID, CreateIntentInput{
		PropertyID:      &prop.ID,
		Amount:          10000,
		Currency:        "USD",
		PaymentMethodID: "pm_card",
		TokenAmount:     &tokenAmount,
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_test_123_secret", result.ClientSecret)
	assert.NotEqual(t, uuid.Nil, result.TransactionID)
	assert.Equal(t, int64(250), result.Fees.PlatformFee)
	assert.Equal(t, int64(320), result.Fees.ProcessingFee)
	assert.Equal(t, int64(10570), result.Fees.TotalCharge)

	created := txRepo.Calls[0].Arguments.Get(1).(*payment.Transaction)
	assert.Equal(t, payment.TransactionStatusPending, created.Status)
	assert.Equal(t, payment.TransactionKindPurchase, created.Kind)
	assert.Equal(t, "pi_test_123", created.GatewayIntentID)
	assert.Equal(t, int64(10000), created.Amount)
	assert.Equal(t, int64(2), *created.TokenAmount)

	txRepo.AssertExpectations(t)
	propRepo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestIntentService_CreateIntent_BareCharge(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	propRepo := new(MockPropertyRepository)
	gateway := new(MockGateway)
	service := newIntentServiceForTest(t, txRepo, propRepo, gateway, nil)

	gateway.On("CreateIntent", mock.Anything, mock.Anything).Return(&payment.CreateIntentResponse{
		GatewayIntentID: "pi_bare",
		ClientSecret:    "pi_bare_secret",
	}, nil)
	txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := service.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{
		Amount:          5000,
		Currency:        "eur",
		PaymentMethodID: "pm_card",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_bare_secret", result.ClientSecret)
	propRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestIntentService_CreateIntent_ValidationErrors(t *testing.T) {
	propID := uuid.New()
	zero := int64(0)
	one := int64(1)

	tests := []struct {
		name  string
		input CreateIntentInput
	}{
		{
			name:  "zero amount",
			input: CreateIntentInput{Amount: 0, Currency: "usd", PaymentMethodID: "pm_card"},
		},
		{
			name:  "negative amount",
			input: CreateIntentInput{Amount: -100, Currency: "usd", PaymentMethodID: "pm_card"},
		},
		{
			name:  "unsupported currency",
			input: CreateIntentInput{Amount: 1000, Currency: "jpy", PaymentMethodID: "pm_card"},
		},
		{
			name:  "missing payment method",
			input: CreateIntentInput{Amount: 1000, Currency: "usd"},
		},
		{
			name:  "property without token amount",
			input: CreateIntentInput{Amount: 1000, Currency: "usd", PaymentMethodID: "pm_card", PropertyID: &propID},
		},
		{
			name:  "property with zero token amount",
			input: CreateIntentInput{Amount: 1000, Currency: "usd", PaymentMethodID: "pm_card", PropertyID: &propID, TokenAmount: &zero},
		},
		{
			name:  "token amount without property",
			input: CreateIntentInput{Amount: 1000, Currency: "usd", PaymentMethodID: "pm_card", TokenAmount: &one},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txRepo := new(MockTransactionRepository)
			propRepo := new(MockPropertyRepository)
			gateway := new(MockGateway)
			service := newIntentServiceForTest(t, txRepo, propRepo, gateway, nil)

			result, err := service.CreateIntent(context.Background(), uuid.New(), tt.input)

			require.Error(t, err)
			assert.Nil(t, result)
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
			gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
			txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestIntentService_CreateIntent_UnknownProperty(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	propRepo := new(MockPropertyRepository)
	gateway := new(MockGateway)
	service := newIntentServiceForTest(t, txRepo, propRepo, gateway, nil)

	propID := uuid.New()
	tokenAmount := int64(1)
	propRepo.On("FindByID", mock.Anything, propID).Return(nil, shared.ErrNotFound)

	_, err := service.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{
		PropertyID:      &propID,
		Amount:          1000,
		Currency:        "usd",
		PaymentMethodID: "pm_card",
		TokenAmount:     &tokenAmount,
	})

	assert.Equal(t, shared.ErrNotFound, err)
	gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestIntentService_CreateIntent_InsufficientInventoryAdvisory(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	propRepo := new(MockPropertyRepository)
	gateway := new(MockGateway)
	service := newIntentServiceForTest(t, txRepo, propRepo, gateway, nil)

	prop := testProperty(t, 1)
	tokenAmount := int64(5)
	propRepo.On("FindByID", mock.Anything, prop.ID).Return(prop, nil)

	_, err := service.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{
		PropertyID:      &prop.ID,
		Amount:          1000,
		Currency:        "usd",
		PaymentMethodID: "pm_card",
		TokenAmount:     &tokenAmount,
	})

	assert.Equal(t, shared.ErrInsufficientInventory, err)
	gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestIntentService_CreateIntent_GatewayFailureWritesNothing(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	propRepo := new(MockPropertyRepository)
	gateway := new(MockGateway)
	service := newIntentServiceForTest(t, txRepo, propRepo, gateway, nil)

	gateway.On("CreateIntent", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := service.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{
		Amount:          1000,
		Currency:        "usd",
		PaymentMethodID: "pm_card",
	})

	assert.Equal(t, shared.ErrGatewayUnavailable, err)
	txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIntentService_CreateIntent_ReusesRememberedIdempotencyKey(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	propRepo := new(MockPropertyRepository)
	gateway := new(MockGateway)
	store := new(MockIdempotencyStore)
	service := newIntentServiceForTest(t, txRepo, propRepo, gateway, store)

	userID := uuid.New()
	// A prior call already remembered a gateway key under this client key
	store.On("Remember", mock.Anything, "payment:intent:"+userID.String()+":client-key-1",
		mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).
		Return("remembered-gateway-key", false, nil)
	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *payment.CreateIntentRequest) bool {
		return req.IdempotencyKey == "remembered-gateway-key"
	})).Return(&payment.CreateIntentResponse{GatewayIntentID: "pi_x", ClientSecret: "secret"}, nil)
	txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := service.CreateIntent(context.Background(), userID, CreateIntentInput{
		Amount:          1000,
		Currency:        "usd",
		PaymentMethodID: "pm_card",
		IdempotencyKey:  "client-key-1",
	})

	require.NoError(t, err)
	gateway.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestIntentService_CreateIntent_IdempotencyStoreFailureFallsBack(t *testing.T) {
	txRepo := new(MockTransactionRepository)
	propRepo := new(MockPropertyRepository)
	gateway := new(MockGateway)
	store := new(MockIdempotencyStore)
	service := newIntentServiceForTest(t, txRepo, propRepo, gateway, store)

	store.On("Remember", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", false, errors.New("redis down"))
	gateway.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *payment.CreateIntentRequest) bool {
		return req.IdempotencyKey != ""
	})).Return(&payment.CreateIntentResponse{GatewayIntentID: "pi_y", ClientSecret: "secret"}, nil)
	txRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := service.CreateIntent(context.Background(), uuid.New(), CreateIntentInput{
		Amount:          1000,
		Currency:        "usd",
		PaymentMethodID: "pm_card",
		IdempotencyKey:  "client-key-2",
	})

	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestIntentService_DefaultIdempotencyTTL(t *testing.T) {
	service := NewIntentService(IntentServiceConfig{Logger: zap.NewNop()})
	assert.Equal(t, 24*time.Hour, service.idempotencyTTL)
}
