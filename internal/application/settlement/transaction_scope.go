package settlement

import (
	"context"

	"github.com/propshare/backend/internal/domain/audit"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
)

// TransactionScope provides transactional access to settlement repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories a settlement
// touches within one transaction. All repositories returned share the same
// underlying database transaction, so the settled-marker flip, the inventory
// deduction and the position credit commit or roll back as a unit.
type TransactionalRepositories interface {
	// TransactionRepo returns the ledger transaction repository scoped to the current transaction
	TransactionRepo() payment.TransactionRepository
	// PropertyRepo returns the property inventory repository scoped to the current transaction
	PropertyRepo() property.PropertyRepository
	// ShareRepo returns the investor position repository scoped to the current transaction
	ShareRepo() property.ShareRepository
	// RefundRepo returns the refund request repository scoped to the current transaction
	RefundRepo() payment.RefundRequestRepository
	// AuditRepo returns the audit log repository scoped to the current transaction
	AuditRepo() audit.LogRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	transactionRepo payment.TransactionRepository
	propertyRepo    property.PropertyRepository
	shareRepo       property.ShareRepository
	refundRepo      payment.RefundRequestRepository
	auditRepo       audit.LogRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	transactionRepo payment.TransactionRepository,
	propertyRepo property.PropertyRepository,
	shareRepo property.ShareRepository,
	refundRepo payment.RefundRequestRepository,
	auditRepo audit.LogRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		transactionRepo: transactionRepo,
		propertyRepo:    propertyRepo,
		shareRepo:       shareRepo,
		refundRepo:      refundRepo,
		auditRepo:       auditRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// TransactionRepo returns the ledger transaction repository.
func (s *NoOpTransactionScope) TransactionRepo() payment.TransactionRepository {
	return s.transactionRepo
}

// PropertyRepo returns the property inventory repository.
func (s *NoOpTransactionScope) PropertyRepo() property.PropertyRepository {
	return s.propertyRepo
}

// ShareRepo returns the investor position repository.
func (s *NoOpTransactionScope) ShareRepo() property.ShareRepository {
	return s.shareRepo
}

// RefundRepo returns the refund request repository.
func (s *NoOpTransactionScope) RefundRepo() payment.RefundRequestRepository {
	return s.refundRepo
}

// AuditRepo returns the audit log repository.
func (s *NoOpTransactionScope) AuditRepo() audit.LogRepository {
	return s.auditRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
