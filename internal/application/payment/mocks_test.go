package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"github.com/propshare/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByGatewayIntentID(ctx context.Context, gatewayIntentID string) (*payment.Transaction, error) {
	args := m.Called(ctx, gatewayIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]payment.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *payment.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveWithLock(ctx context.Context, tx *payment.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) ClaimSettlement(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockWebhookEventRepository is a mock implementation of WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) FindByID(ctx context.Context, id string) (*payment.WebhookEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventRepository) Record(ctx context.Context, event *payment.WebhookEvent) (*payment.WebhookEvent, bool, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Bool(1), args.Error(2)
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRefundRequestRepository is a mock implementation of RefundRequestRepository
type MockRefundRequestRepository struct {
	mock.Mock
}

func (m *MockRefundRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.RefundRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundRequest), args.Error(1)
}

func (m *MockRefundRequestRepository) FindPendingByTransactionID(ctx context.Context, transactionID uuid.UUID) (*payment.RefundRequest, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundRequest), args.Error(1)
}

func (m *MockRefundRequestRepository) Create(ctx context.Context, req *payment.RefundRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRefundRequestRepository) SaveWithLock(ctx context.Context, req *payment.RefundRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockDisputeRepository is a mock implementation of DisputeRepository
type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) FindByGatewayDisputeID(ctx context.Context, gatewayDisputeID string) (*payment.Dispute, error) {
	args := m.Called(ctx, gatewayDisputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) Create(ctx context.Context, dispute *payment.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

// MockPropertyRepository is a mock implementation of PropertyRepository
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]property.Property, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]property.Property), args.Error(1)
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) DeductAvailableTokens(ctx context.Context, propertyID uuid.UUID, tokenAmount int64) error {
	args := m.Called(ctx, propertyID, tokenAmount)
	return args.Error(0)
}

// MockGateway is a mock implementation of the payment gateway port
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.CreateIntentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CreateIntentResponse), args.Error(1)
}

func (m *MockGateway) CreateRefund(ctx context.Context, req *payment.RefundIntentRequest) (*payment.RefundIntentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundIntentResponse), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, signatureHeader string) (*payment.Event, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

// MockSettler is a mock implementation of Settler
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) Settle(ctx context.Context, transactionID uuid.UUID) (*property.Share, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Share), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// fakeWebhookEventStore is a stateful in-memory WebhookEventRepository used
// by the redelivery tests, where the processed flag has to survive across
// calls.
type fakeWebhookEventStore struct {
	mu     sync.Mutex
	events map[string]*payment.WebhookEvent
}

func newFakeWebhookEventStore() *fakeWebhookEventStore {
	return &fakeWebhookEventStore{events: make(map[string]*payment.WebhookEvent)}
}

func (s *fakeWebhookEventStore) FindByID(_ context.Context, id string) (*payment.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *fakeWebhookEventStore) Record(_ context.Context, event *payment.WebhookEvent) (*payment.WebhookEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.events[event.ID]; ok {
		copied := *existing
		return &copied, false, nil
	}
	copied := *event
	s.events[event.ID] = &copied
	result := copied
	return &result, true, nil
}

func (s *fakeWebhookEventStore) MarkProcessed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return shared.ErrNotFound
	}
	event.MarkProcessed()
	return nil
}
