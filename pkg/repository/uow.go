package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// All repositories obtained from the UnitOfWork passed to Do share the same
// database transaction, so every ledger primitive commits or rolls back as a
// whole.
//
// Example usage:
//
//	repoAny, err := uow.GetRepository(reflect.TypeOf((*AccountRepository)(nil)).Elem())
//	repo := repoAny.(AccountRepository)
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested type, bound to the current transaction/session.
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (AccountRepository, error)
	FundLockRepository() (FundLockRepository, error)
	AuditLogRepository() (AuditLogRepository, error)
	TransactionRepository() (TransactionRepository, error)
}
