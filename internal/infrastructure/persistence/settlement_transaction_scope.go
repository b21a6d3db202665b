package persistence

import (
	"context"

	appsettlement "github.com/propshare/backend/internal/application/settlement"
	"github.com/propshare/backend/internal/domain/audit"
	"github.com/propshare/backend/internal/domain/payment"
	"github.com/propshare/backend/internal/domain/property"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsettlement.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// TransactionRepo returns the ledger transaction repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TransactionRepo() payment.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

// PropertyRepo returns the property inventory repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PropertyRepo() property.PropertyRepository {
	return NewGormPropertyRepository(r.tx)
}

// ShareRepo returns the investor position repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ShareRepo() property.ShareRepository {
	return NewGormShareRepository(r.tx)
}

// RefundRepo returns the refund request repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RefundRepo() payment.RefundRequestRepository {
	return NewGormRefundRequestRepository(r.tx)
}

// AuditRepo returns the audit log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditRepo() audit.LogRepository {
	return NewGormAuditLogRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appsettlement.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appsettlement.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
