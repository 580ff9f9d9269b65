package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is the kind of ledger mutation an audit row records.
type OperationType string

const (
	OpDebit  OperationType = "DEBIT"
	OpCredit OperationType = "CREDIT"
	OpLock   OperationType = "LOCK"
	OpUnlock OperationType = "UNLOCK"
)

// AuditEntry is one append-only row of the balance audit log.
// For LOCK and UNLOCK rows PreviousBalance/NewBalance hold the available
// balance and TransactionReference is the lock id.
type AuditEntry struct {
	ID                   uint64
	AccountNumber        string
	OperationType        OperationType
	PreviousBalance      decimal.Decimal
	Amount               decimal.Decimal
	NewBalance           decimal.Decimal
	TransactionReference string
	Description          string
	OperationTime        time.Time
	PerformedBy          string
}

// ChangesBalance reports whether the row moved money rather than a hold.
func (e AuditEntry) ChangesBalance() bool {
	return e.OperationType == OpDebit || e.OperationType == OpCredit
}
