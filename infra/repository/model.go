package repository

import (
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents an account record in the database.
type Account struct {
	AccountNumber string          `gorm:"primaryKey;size:34"`
	CustomerRef   string          `gorm:"size:64;not null;index"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Type          string          `gorm:"type:varchar(16);not null"`
	CreditLimit   decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	InterestRate  decimal.Decimal `gorm:"type:numeric(9,6);not null"`
	Balance       decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	HoldAmount    decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Status        string          `gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string { return "accounts" }

// FundLock represents a hold placed on an account.
type FundLock struct {
	LockID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountNumber string          `gorm:"size:34;not null;index"`
	LockedAmount  decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	LockType      string          `gorm:"type:varchar(16);not null;index:idx_fund_locks_reference,priority:2"`
	ReferenceID   string          `gorm:"size:128;not null;index:idx_fund_locks_reference,priority:1"`
	Status        string          `gorm:"type:varchar(16);not null;index:idx_fund_locks_reference,priority:3"`
	Description   string          `gorm:"size:255"`
	LockedAt      time.Time       `gorm:"not null"`
	ReleasedAt    *time.Time
	ReleaseReason string `gorm:"size:255"`
}

// TableName specifies the table name for the FundLock model.
func (FundLock) TableName() string { return "fund_locks" }

// BalanceAuditLog is one append-only audit row.
type BalanceAuditLog struct {
	ID                   uint64          `gorm:"primaryKey;autoIncrement"`
	AccountNumber        string          `gorm:"size:34;not null;uniqueIndex:idx_audit_reference,priority:3;index:idx_audit_account_time,priority:1"`
	OperationType        string          `gorm:"type:varchar(8);not null;uniqueIndex:idx_audit_reference,priority:2"`
	PreviousBalance      decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Amount               decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	NewBalance           decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	TransactionReference string          `gorm:"size:128;not null;uniqueIndex:idx_audit_reference,priority:1"`
	Description          string          `gorm:"size:255"`
	OperationTime        time.Time       `gorm:"not null;index:idx_audit_account_time,priority:2"`
	PerformedBy          string          `gorm:"size:64"`
}

// TableName specifies the table name for the BalanceAuditLog model.
func (BalanceAuditLog) TableName() string { return "balance_audit_logs" }

// Transaction represents a persisted transfer record.
type Transaction struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TraceID               string          `gorm:"size:128;not null;uniqueIndex"`
	Type                  string          `gorm:"type:varchar(24);not null"`
	SourceAccount         string          `gorm:"size:34;not null;index"`
	DestinationAccount    string          `gorm:"size:34;not null;index"`
	DestinationBankCode   string          `gorm:"size:16"`
	Amount                decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Fee                   decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency              string          `gorm:"type:varchar(3)"`
	Description           string          `gorm:"size:255"`
	Status                string          `gorm:"type:varchar(16);not null"`
	SourceBalanceBefore   decimal.Decimal `gorm:"type:numeric(20,4)"`
	SourceBalanceAfter    decimal.Decimal `gorm:"type:numeric(20,4)"`
	DestBalanceBefore     decimal.Decimal `gorm:"type:numeric(20,4)"`
	DestBalanceAfter      decimal.Decimal `gorm:"type:numeric(20,4)"`
	FeeAccount            string          `gorm:"size:34"`
	FailureCode           string          `gorm:"size:64"`
	FailureReason         string          `gorm:"size:512"`
	ReversalOf            *uuid.UUID      `gorm:"type:uuid"`
	ReversedBy            *uuid.UUID      `gorm:"type:uuid"`
	CompensationReference string          `gorm:"size:160"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	CompletedAt           *time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

// Models lists every table the ledger store owns, in migration order.
func Models() []any {
	return []any{&Account{}, &FundLock{}, &BalanceAuditLog{}, &Transaction{}}
}

func mapAccountToModel(a *ledger.Account) *Account {
	return &Account{
		AccountNumber: a.AccountNumber,
		CustomerRef:   a.CustomerRef,
		Currency:      string(a.Currency),
		Type:          string(a.Type),
		CreditLimit:   a.Terms.CreditLimit,
		InterestRate:  a.Terms.InterestRate,
		Balance:       a.Balance,
		HoldAmount:    a.HoldAmount,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func mapAccountToDomain(m *Account) *ledger.Account {
	return &ledger.Account{
		AccountNumber: m.AccountNumber,
		CustomerRef:   m.CustomerRef,
		Currency:      ledger.Currency(m.Currency),
		Type:          ledger.Type(m.Type),
		Terms: ledger.Terms{
			CreditLimit:  m.CreditLimit,
			InterestRate: m.InterestRate,
		},
		Balance:    m.Balance,
		HoldAmount: m.HoldAmount,
		Status:     ledger.Status(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func mapLockToModel(l *ledger.FundLock) *FundLock {
	return &FundLock{
		LockID:        l.LockID,
		AccountNumber: l.AccountNumber,
		LockedAmount:  l.LockedAmount,
		LockType:      string(l.LockType),
		ReferenceID:   l.ReferenceID,
		Status:        string(l.Status),
		Description:   l.Description,
		LockedAt:      l.LockedAt,
		ReleasedAt:    l.ReleasedAt,
		ReleaseReason: l.ReleaseReason,
	}
}

func mapLockToDomain(m *FundLock) *ledger.FundLock {
	return &ledger.FundLock{
		LockID:        m.LockID,
		AccountNumber: m.AccountNumber,
		LockedAmount:  m.LockedAmount,
		LockType:      ledger.LockType(m.LockType),
		ReferenceID:   m.ReferenceID,
		Status:        ledger.LockStatus(m.Status),
		Description:   m.Description,
		LockedAt:      m.LockedAt,
		ReleasedAt:    m.ReleasedAt,
		ReleaseReason: m.ReleaseReason,
	}
}

func mapAuditToModel(e *ledger.AuditEntry) *BalanceAuditLog {
	return &BalanceAuditLog{
		ID:                   e.ID,
		AccountNumber:        e.AccountNumber,
		OperationType:        string(e.OperationType),
		PreviousBalance:      e.PreviousBalance,
		Amount:               e.Amount,
		NewBalance:           e.NewBalance,
		TransactionReference: e.TransactionReference,
		Description:          e.Description,
		OperationTime:        e.OperationTime,
		PerformedBy:          e.PerformedBy,
	}
}

func mapAuditToDomain(m *BalanceAuditLog) *ledger.AuditEntry {
	return &ledger.AuditEntry{
		ID:                   m.ID,
		AccountNumber:        m.AccountNumber,
		OperationType:        ledger.OperationType(m.OperationType),
		PreviousBalance:      m.PreviousBalance,
		Amount:               m.Amount,
		NewBalance:           m.NewBalance,
		TransactionReference: m.TransactionReference,
		Description:          m.Description,
		OperationTime:        m.OperationTime,
		PerformedBy:          m.PerformedBy,
	}
}

func mapTransactionToModel(t *ledger.Transaction) *Transaction {
	return &Transaction{
		ID:                    t.ID,
		TraceID:               t.TraceID,
		Type:                  string(t.Type),
		SourceAccount:         t.SourceAccount,
		DestinationAccount:    t.DestinationAccount,
		DestinationBankCode:   t.DestinationBankCode,
		Amount:                t.Amount,
		Fee:                   t.Fee,
		Currency:              string(t.Currency),
		Description:           t.Description,
		Status:                string(t.Status),
		SourceBalanceBefore:   t.Source.BalanceBefore,
		SourceBalanceAfter:    t.Source.BalanceAfter,
		DestBalanceBefore:     t.Destination.BalanceBefore,
		DestBalanceAfter:      t.Destination.BalanceAfter,
		FeeAccount:            t.FeeAccount,
		FailureCode:           string(t.FailureCode),
		FailureReason:         t.FailureReason,
		ReversalOf:            t.ReversalOf,
		ReversedBy:            t.ReversedBy,
		CompensationReference: t.CompensationReference,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		CompletedAt:           t.CompletedAt,
	}
}

func mapTransactionToDomain(m *Transaction) *ledger.Transaction {
	return &ledger.Transaction{
		ID:                  m.ID,
		TraceID:             m.TraceID,
		Type:                ledger.TransactionType(m.Type),
		SourceAccount:       m.SourceAccount,
		DestinationAccount:  m.DestinationAccount,
		DestinationBankCode: m.DestinationBankCode,
		Amount:              m.Amount,
		Fee:                 m.Fee,
		Currency:            ledger.Currency(m.Currency),
		Description:         m.Description,
		Status:              ledger.TransactionStatus(m.Status),
		Source: ledger.LegSnapshot{
			BalanceBefore: m.SourceBalanceBefore,
			BalanceAfter:  m.SourceBalanceAfter,
		},
		Destination: ledger.LegSnapshot{
			BalanceBefore: m.DestBalanceBefore,
			BalanceAfter:  m.DestBalanceAfter,
		},
		FeeAccount:            m.FeeAccount,
		FailureCode:           domain.Code(m.FailureCode),
		FailureReason:         m.FailureReason,
		ReversalOf:            m.ReversalOf,
		ReversedBy:            m.ReversedBy,
		CompensationReference: m.CompensationReference,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
		CompletedAt:           m.CompletedAt,
	}
}
