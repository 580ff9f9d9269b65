package repository

import (
	"context"
	"time"

	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/google/uuid"
)

// AccountRepository defines data access for ledger accounts.
type AccountRepository interface {
	Get(ctx context.Context, accountNumber string) (*ledger.Account, error)
	// GetForUpdate reads the account holding an exclusive row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, accountNumber string) (*ledger.Account, error)
	Create(ctx context.Context, account *ledger.Account) error
	// UpdateBalances persists Balance and HoldAmount.
	UpdateBalances(ctx context.Context, account *ledger.Account) error
	UpdateStatus(ctx context.Context, accountNumber string, status ledger.Status) error
}

// FundLockRepository defines data access for fund locks.
type FundLockRepository interface {
	Get(ctx context.Context, lockID uuid.UUID) (*ledger.FundLock, error)
	GetForUpdate(ctx context.Context, lockID uuid.UUID) (*ledger.FundLock, error)
	// FindByReference returns the most recent lock with the given reference,
	// type and status.
	FindByReference(ctx context.Context, referenceID string, lockType ledger.LockType, status ledger.LockStatus) (*ledger.FundLock, error)
	ListByAccount(ctx context.Context, accountNumber string, status ledger.LockStatus) ([]*ledger.FundLock, error)
	Create(ctx context.Context, lock *ledger.FundLock) error
	Update(ctx context.Context, lock *ledger.FundLock) error
}

// AuditLogRepository defines append-only access to the balance audit log.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *ledger.AuditEntry) error
	FindByReference(ctx context.Context, reference string, op ledger.OperationType, accountNumber string) (*ledger.AuditEntry, error)
	ListByReference(ctx context.Context, reference string) ([]*ledger.AuditEntry, error)
	// ListByAccount returns entries ordered by time; zero from/to leave the range open.
	ListByAccount(ctx context.Context, accountNumber string, from, to time.Time) ([]*ledger.AuditEntry, error)
	LatestBalanceEntry(ctx context.Context, accountNumber string) (*ledger.AuditEntry, error)
}

// TransactionRepository defines data access for transfer records.
type TransactionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	GetByTraceID(ctx context.Context, traceID string) (*ledger.Transaction, error)
	GetByTraceIDForUpdate(ctx context.Context, traceID string) (*ledger.Transaction, error)
	Create(ctx context.Context, tx *ledger.Transaction) error
	Update(ctx context.Context, tx *ledger.Transaction) error
}
