// Package ledger implements the account ledger: the only component allowed to
// change balances, holds and the balance audit log.
//
// Every primitive runs in a single store transaction. Accounts are locked with
// SELECT ... FOR UPDATE and, when several accounts are involved, always in
// ascending account-number order. Transactions run on a context detached from
// the caller's cancellation so that an abandoned request cannot abort a
// half-applied mutation; the store's lock-wait timeout bounds the wait instead.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config tunes the ledger service.
type Config struct {
	// FeeAccount receives transfer fees. When empty, fees are debited from the
	// source and booked outside the ledger.
	FeeAccount string
	// PerformedBy is recorded on audit rows when the request does not name an actor.
	PerformedBy string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service provides the ledger primitives.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
	cfg    Config
}

// NewService creates a new ledger Service.
func NewService(uow repository.UnitOfWork, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PerformedBy == "" {
		cfg.PerformedBy = "ledger"
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{uow: uow, logger: logger.With("component", "ledger"), cfg: cfg}
}

// MovementRequest describes a single-account debit or credit.
type MovementRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
	Reference     string
	Description   string
	PerformedBy   string
}

// BalanceResult is the outcome of a debit or credit.
type BalanceResult struct {
	AccountNumber    string
	Reference        string
	PreviousBalance  decimal.Decimal
	NewBalance       decimal.Decimal
	AvailableBalance decimal.Decimal
	Replayed         bool
}

// LockRequest describes a hold to place on an account.
type LockRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
	LockType      ledger.LockType
	ReferenceID   string
	Description   string
	PerformedBy   string
}

// UnlockRequest releases a hold by lock id.
type UnlockRequest struct {
	LockID      uuid.UUID
	Reason      string
	PerformedBy string
}

// ReleaseRequest releases the active hold of (ReferenceID, LockType).
type ReleaseRequest struct {
	ReferenceID string
	LockType    ledger.LockType
	Reason      string
	PerformedBy string
}

// LockResult is the outcome of a lock or unlock.
type LockResult struct {
	Lock             *ledger.FundLock
	AvailableBalance decimal.Decimal
	Replayed         bool
}

// TransferRequest describes an internal transfer between two ledger accounts.
type TransferRequest struct {
	Source      string
	Destination string
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Reference   string
	Description string
	PerformedBy string
}

// ReverseRequest describes the compensation of a completed transfer.
type ReverseRequest struct {
	OriginalReference string
	// Reference defaults to "<OriginalReference>:reversal".
	Reference   string
	Reason      string
	PerformedBy string
}

// TransferResult carries the transaction record. On a replayed FAILED
// transfer the record is returned together with its recorded error.
type TransferResult struct {
	Transaction *ledger.Transaction
	Replayed    bool
}

// Balance is a point-in-time view of an account.
type Balance struct {
	AccountNumber    string
	Balance          decimal.Decimal
	HoldAmount       decimal.Decimal
	AvailableBalance decimal.Decimal
	Currency         ledger.Currency
	Status           ledger.Status
	AsOf             time.Time
}

// StatusResult is the outcome of ChangeStatus.
type StatusResult struct {
	AccountNumber string
	Previous      ledger.Status
	Current       ledger.Status
	Changed       bool
}

// ReconcileReport lists the invariant checks run against one account.
type ReconcileReport struct {
	AccountNumber      string
	Balance            decimal.Decimal
	HoldAmount         decimal.Decimal
	LockedTotal        decimal.Decimal
	LatestAuditBalance *decimal.Decimal
	Violations         []string
	CheckedAt          time.Time
}

// Consistent reports whether no violation was found.
func (r ReconcileReport) Consistent() bool { return len(r.Violations) == 0 }

func (s *Service) now() time.Time { return s.cfg.Now() }

func (s *Service) actor(performedBy string) string {
	if performedBy != "" {
		return performedBy
	}
	return s.cfg.PerformedBy
}

// detach keeps request-scoped values but drops the caller's deadline and cancellation.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// rejected reports whether err is a rule or input rejection, as opposed to an
// infrastructure failure.
func rejected(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindBusiness:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrTransactionNotFound) ||
		errors.Is(err, domain.ErrLockNotFound)
}

func validateMovement(req MovementRequest) error {
	if req.AccountNumber == "" {
		return domain.ErrValidation.WithDetail("account number is required")
	}
	if req.Reference == "" {
		return domain.ErrValidation.WithDetail("transaction reference is required")
	}
	if !req.Amount.IsPositive() {
		return domain.ErrInvalidAmount.WithDetail("amount must be positive, got %s", req.Amount)
	}
	return nil
}
