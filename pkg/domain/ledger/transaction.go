package ledger

import (
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a transfer record.
type TransactionStatus string

const (
	TxPending    TransactionStatus = "PENDING"
	TxProcessing TransactionStatus = "PROCESSING"
	TxCompleted  TransactionStatus = "COMPLETED"
	TxFailed     TransactionStatus = "FAILED"
	TxCancelled  TransactionStatus = "CANCELLED"
	TxReversed   TransactionStatus = "REVERSED"
)

// Terminal reports whether no further ordinary transition is possible.
// COMPLETED may still be reversed by a compensating operation.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TxCompleted, TxFailed, TxCancelled, TxReversed:
		return true
	}
	return false
}

// TransactionType distinguishes transfer records.
type TransactionType string

const (
	TxTypeInternal  TransactionType = "INTERNAL_TRANSFER"
	TxTypeInterbank TransactionType = "INTERBANK_TRANSFER"
	TxTypeReversal  TransactionType = "REVERSAL"
)

var txTransitions = map[TransactionStatus][]TransactionStatus{
	TxPending:    {TxProcessing, TxCompleted, TxFailed, TxCancelled},
	TxProcessing: {TxCompleted, TxFailed},
	TxCompleted:  {TxReversed},
}

// LegSnapshot records an account's balance around one leg of a transfer.
type LegSnapshot struct {
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// Transaction is the persistent record of one logical transfer.
type Transaction struct {
	ID                    uuid.UUID
	TraceID               string
	Type                  TransactionType
	SourceAccount         string
	DestinationAccount    string
	DestinationBankCode   string
	Amount                decimal.Decimal
	Fee                   decimal.Decimal
	Currency              Currency
	Description           string
	Status                TransactionStatus
	Source                LegSnapshot
	Destination           LegSnapshot
	FeeAccount            string
	FailureCode           domain.Code
	FailureReason         string
	ReversalOf            *uuid.UUID
	ReversedBy            *uuid.UUID
	CompensationReference string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	CompletedAt           *time.Time
}

// NewPendingTransaction builds a PENDING record.
func NewPendingTransaction(traceID string, txType TransactionType, source, destination string, amount, fee decimal.Decimal) *Transaction {
	return &Transaction{
		ID:                 uuid.New(),
		TraceID:            traceID,
		Type:               txType,
		SourceAccount:      source,
		DestinationAccount: destination,
		Amount:             amount,
		Fee:                fee,
		Status:             TxPending,
	}
}

// Transition moves the record to next, enforcing the state machine.
func (t *Transaction) Transition(next TransactionStatus, now time.Time) error {
	for _, s := range txTransitions[t.Status] {
		if s == next {
			t.Status = next
			t.UpdatedAt = now
			if next == TxCompleted {
				t.CompletedAt = &now
			}
			return nil
		}
	}
	return domain.ErrInvalidStatusTransition.WithDetail("transaction %s cannot move from %s to %s", t.TraceID, t.Status, next)
}

// Fail records the failure reason and transitions to FAILED.
func (t *Transaction) Fail(cause error, now time.Time) error {
	if err := t.Transition(TxFailed, now); err != nil {
		return err
	}
	t.FailureCode = domain.CodeOf(cause)
	t.FailureReason = domain.MessageOf(cause)
	return nil
}

// FailureError rebuilds the error a FAILED record was rejected with.
func (t *Transaction) FailureError() error {
	if t.Status != TxFailed {
		return nil
	}
	return domain.FromCode(t.FailureCode, t.FailureReason)
}

// Matches reports whether a request describes the same transfer as t.
func (t *Transaction) Matches(source, destination string, amount, fee decimal.Decimal) bool {
	return t.SourceAccount == source &&
		t.DestinationAccount == destination &&
		t.Amount.Equal(amount) &&
		t.Fee.Equal(fee)
}

// Total is the amount debited from the source.
func (t *Transaction) Total() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}
