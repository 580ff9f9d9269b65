package repository

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/amirasaad/corebank/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
//
// Repositories handed out inside Do share the transaction session, so a
// ledger primitive either commits all of its rows or none of them.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	lockTimeout  time.Duration
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// Option configures a UoW.
type Option func(*UoW)

// WithLockTimeout bounds how long a transaction waits for a row lock.
// It is applied with SET LOCAL on postgres and ignored by other dialects.
func WithLockTimeout(d time.Duration) Option {
	return func(u *UoW) { u.lockTimeout = d }
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB, opts ...Option) *UoW {
	u := &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.AccountRepository)(nil)).Elem():     func(db *gorm.DB) any { return NewAccountRepository(db) },
			reflect.TypeOf((*repository.FundLockRepository)(nil)).Elem():    func(db *gorm.DB) any { return NewFundLockRepository(db) },
			reflect.TypeOf((*repository.AuditLogRepository)(nil)).Elem():    func(db *gorm.DB) any { return NewAuditLogRepository(db) },
			reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem(): func(db *gorm.DB) any { return NewTransactionRepository(db) },
		},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		txnUow := &UoW{db: u.db, tx: tx, lockTimeout: u.lockTimeout, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
	return MapGormErrorToDomain(err)
}

// GetRepository returns a repository bound to the current transaction, or to
// the plain connection when called outside Do.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// AccountRepository returns the account repository for the current session.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*repository.AccountRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.AccountRepository), nil
}

// FundLockRepository returns the fund lock repository for the current session.
func (u *UoW) FundLockRepository() (repository.FundLockRepository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*repository.FundLockRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.FundLockRepository), nil
}

// AuditLogRepository returns the audit log repository for the current session.
func (u *UoW) AuditLogRepository() (repository.AuditLogRepository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*repository.AuditLogRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.AuditLogRepository), nil
}

// TransactionRepository returns the transaction repository for the current session.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	repoAny, err := u.GetRepository(reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.TransactionRepository), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
