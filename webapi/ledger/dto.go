package ledger

import (
	"time"

	"github.com/amirasaad/corebank/pkg/domain/ledger"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementRequest is the body of a debit or credit.
type MovementRequest struct {
	AccountNumber        string          `json:"accountNumber" validate:"required,max=34"`
	Amount               decimal.Decimal `json:"amount"`
	TransactionReference string          `json:"transactionReference" validate:"required,max=128"`
	Description          string          `json:"description" validate:"max=255"`
	PerformedBy          string          `json:"performedBy" validate:"max=64"`
}

// BalanceResponse is the answer to a debit or credit.
type BalanceResponse struct {
	AccountNumber        string          `json:"accountNumber"`
	TransactionReference string          `json:"transactionReference"`
	PreviousBalance      decimal.Decimal `json:"previousBalance"`
	NewBalance           decimal.Decimal `json:"newBalance"`
	AvailableBalance     decimal.Decimal `json:"availableBalance"`
	Replayed             bool            `json:"replayed"`
}

func toBalanceResponse(r ledgersvc.BalanceResult) BalanceResponse {
	return BalanceResponse{
		AccountNumber:        r.AccountNumber,
		TransactionReference: r.Reference,
		PreviousBalance:      r.PreviousBalance,
		NewBalance:           r.NewBalance,
		AvailableBalance:     r.AvailableBalance,
		Replayed:             r.Replayed,
	}
}

// LockRequest is the body of a lock.
type LockRequest struct {
	AccountNumber string          `json:"accountNumber" validate:"required,max=34"`
	Amount        decimal.Decimal `json:"amount"`
	LockType      string          `json:"lockType" validate:"required,oneof=SAVINGS COLLATERAL HOLD"`
	ReferenceID   string          `json:"referenceId" validate:"required,max=128"`
	Description   string          `json:"description" validate:"max=255"`
	PerformedBy   string          `json:"performedBy" validate:"max=64"`
}

// UnlockRequest is the body of an unlock.
type UnlockRequest struct {
	Reason      string `json:"reason" validate:"max=255"`
	PerformedBy string `json:"performedBy" validate:"max=64"`
}

// ReleaseRequest releases the active lock of a reference.
type ReleaseRequest struct {
	ReferenceID string `json:"referenceId" validate:"required,max=128"`
	LockType    string `json:"lockType" validate:"required,oneof=SAVINGS COLLATERAL HOLD"`
	Reason      string `json:"reason" validate:"max=255"`
	PerformedBy string `json:"performedBy" validate:"max=64"`
}

// LockResponse describes a lock after a lock or unlock.
type LockResponse struct {
	LockID           uuid.UUID       `json:"lockId"`
	AccountNumber    string          `json:"accountNumber"`
	LockedAmount     decimal.Decimal `json:"lockedAmount"`
	LockType         string          `json:"lockType"`
	ReferenceID      string          `json:"referenceId"`
	Status           string          `json:"status"`
	AvailableBalance *decimal.Decimal `json:"availableBalance,omitempty"`
	LockedAt         time.Time       `json:"lockedAt"`
	ReleasedAt       *time.Time      `json:"releasedAt,omitempty"`
	Replayed         bool            `json:"replayed"`
}

func toLockResponse(l *ledger.FundLock, available *decimal.Decimal, replayed bool) LockResponse {
	return LockResponse{
		LockID:           l.LockID,
		AccountNumber:    l.AccountNumber,
		LockedAmount:     l.LockedAmount,
		LockType:         string(l.LockType),
		ReferenceID:      l.ReferenceID,
		Status:           string(l.Status),
		AvailableBalance: available,
		LockedAt:         l.LockedAt,
		ReleasedAt:       l.ReleasedAt,
		Replayed:         replayed,
	}
}

// TransferRequest is the body of an internal transfer.
type TransferRequest struct {
	SourceAccountNumber      string          `json:"sourceAccountNumber" validate:"required,max=34"`
	DestinationAccountNumber string          `json:"destinationAccountNumber" validate:"required,max=34"`
	Amount                   decimal.Decimal `json:"amount"`
	Fee                      decimal.Decimal `json:"fee"`
	TransactionReference     string          `json:"transactionReference" validate:"required,max=128"`
	Description              string          `json:"description" validate:"max=255"`
	PerformedBy              string          `json:"performedBy" validate:"max=64"`
}

// ReverseRequest is the optional body of a reversal.
type ReverseRequest struct {
	Reference   string `json:"reference" validate:"max=128"`
	Reason      string `json:"reason" validate:"max=255"`
	PerformedBy string `json:"performedBy" validate:"max=64"`
}

// TransactionResponse describes a transaction record.
type TransactionResponse struct {
	TransactionID         uuid.UUID       `json:"transactionId"`
	TransactionReference  string          `json:"transactionReference"`
	Type                  string          `json:"type"`
	Status                string          `json:"status"`
	SourceAccountNumber   string          `json:"sourceAccountNumber"`
	DestinationAccount    string          `json:"destinationAccountNumber"`
	DestinationBankCode   string          `json:"destinationBankCode,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	Fee                   decimal.Decimal `json:"fee"`
	Currency              string          `json:"currency,omitempty"`
	FeeAccount            string          `json:"feeAccount,omitempty"`
	SourceBalanceBefore   decimal.Decimal `json:"sourceBalanceBefore"`
	SourceBalanceAfter    decimal.Decimal `json:"sourceBalanceAfter"`
	DestBalanceBefore     decimal.Decimal `json:"destBalanceBefore"`
	DestBalanceAfter      decimal.Decimal `json:"destBalanceAfter"`
	FailureCode           string          `json:"failureCode,omitempty"`
	FailureReason         string          `json:"failureReason,omitempty"`
	ReversalOf            *uuid.UUID      `json:"reversalOf,omitempty"`
	ReversedBy            *uuid.UUID      `json:"reversedBy,omitempty"`
	CompensationReference string          `json:"compensationReference,omitempty"`
	Description           string          `json:"description,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
	CompletedAt           *time.Time      `json:"completedAt,omitempty"`
	Replayed              bool            `json:"replayed"`
}

// ToTransactionResponse maps a record; it is shared with the transfer routes.
func ToTransactionResponse(t *ledger.Transaction, replayed bool) TransactionResponse {
	return TransactionResponse{
		TransactionID:         t.ID,
		TransactionReference:  t.TraceID,
		Type:                  string(t.Type),
		Status:                string(t.Status),
		SourceAccountNumber:   t.SourceAccount,
		DestinationAccount:    t.DestinationAccount,
		DestinationBankCode:   t.DestinationBankCode,
		Amount:                t.Amount,
		Fee:                   t.Fee,
		Currency:              string(t.Currency),
		FeeAccount:            t.FeeAccount,
		SourceBalanceBefore:   t.Source.BalanceBefore,
		SourceBalanceAfter:    t.Source.BalanceAfter,
		DestBalanceBefore:     t.Destination.BalanceBefore,
		DestBalanceAfter:      t.Destination.BalanceAfter,
		FailureCode:           string(t.FailureCode),
		FailureReason:         t.FailureReason,
		ReversalOf:            t.ReversalOf,
		ReversedBy:            t.ReversedBy,
		CompensationReference: t.CompensationReference,
		Description:           t.Description,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		CompletedAt:           t.CompletedAt,
		Replayed:              replayed,
	}
}

// BalanceView is a point-in-time balance.
type BalanceView struct {
	AccountNumber    string          `json:"accountNumber"`
	Balance          decimal.Decimal `json:"balance"`
	HoldAmount       decimal.Decimal `json:"holdAmount"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	AsOf             time.Time       `json:"asOf"`
}

func toBalanceView(b ledgersvc.Balance) BalanceView {
	return BalanceView{
		AccountNumber:    b.AccountNumber,
		Balance:          b.Balance,
		HoldAmount:       b.HoldAmount,
		AvailableBalance: b.AvailableBalance,
		Currency:         string(b.Currency),
		Status:           string(b.Status),
		AsOf:             b.AsOf,
	}
}

// AuditEntryView is one audit row.
type AuditEntryView struct {
	ID                   uint64          `json:"id"`
	AccountNumber        string          `json:"accountNumber"`
	OperationType        string          `json:"operationType"`
	PreviousBalance      decimal.Decimal `json:"previousBalance"`
	Amount               decimal.Decimal `json:"amount"`
	NewBalance           decimal.Decimal `json:"newBalance"`
	TransactionReference string          `json:"transactionReference"`
	Description          string          `json:"description,omitempty"`
	OperationTime        time.Time       `json:"operationTime"`
	PerformedBy          string          `json:"performedBy"`
}

func toAuditViews(entries []*ledger.AuditEntry) []AuditEntryView {
	out := make([]AuditEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryView{
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
		})
	}
	return out
}

// ReconcileView reports the invariant checks of an account.
type ReconcileView struct {
	AccountNumber      string           `json:"accountNumber"`
	Balance            decimal.Decimal  `json:"balance"`
	HoldAmount         decimal.Decimal  `json:"holdAmount"`
	LockedTotal        decimal.Decimal  `json:"lockedTotal"`
	LatestAuditBalance *decimal.Decimal `json:"latestAuditBalance,omitempty"`
	Consistent         bool             `json:"consistent"`
	Violations         []string         `json:"violations"`
	CheckedAt          time.Time        `json:"checkedAt"`
}

func toReconcileView(r ledgersvc.ReconcileReport) ReconcileView {
	v := ReconcileView{
		AccountNumber:      r.AccountNumber,
		Balance:            r.Balance,
		HoldAmount:         r.HoldAmount,
		LockedTotal:        r.LockedTotal,
		LatestAuditBalance: r.LatestAuditBalance,
		Consistent:         r.Consistent(),
		Violations:         r.Violations,
		CheckedAt:          r.CheckedAt,
	}
	if v.Violations == nil {
		v.Violations = []string{}
	}
	return v
}
