package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/shopspring/decimal"
)

// GetBalance returns the balance, hold and available balance of an account.
func (s *Service) GetBalance(ctx context.Context, accountNumber string) (Balance, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return Balance{}, err
	}
	acct, err := accounts.Get(ctx, accountNumber)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		AccountNumber:    acct.AccountNumber,
		Balance:          acct.Balance,
		HoldAmount:       acct.HoldAmount,
		AvailableBalance: acct.Available(),
		Currency:         acct.Currency,
		Status:           acct.Status,
		AsOf:             s.now(),
	}, nil
}

// GetAccount returns the full account record.
func (s *Service) GetAccount(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return accounts.Get(ctx, accountNumber)
}

// GetTransaction returns the transfer record for a reference.
func (s *Service) GetTransaction(ctx context.Context, reference string) (*ledger.Transaction, error) {
	if reference == "" {
		return nil, domain.ErrValidation.WithDetail("transaction reference is required")
	}
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return txs.GetByTraceID(ctx, reference)
}

// AuditByAccount lists the audit rows of an account in time order. Zero
// bounds leave the range open.
func (s *Service) AuditByAccount(ctx context.Context, accountNumber string, from, to time.Time) ([]*ledger.AuditEntry, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, domain.ErrValidation.WithDetail("range end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	if _, err := accounts.Get(ctx, accountNumber); err != nil {
		return nil, err
	}
	audit, err := s.uow.AuditLogRepository()
	if err != nil {
		return nil, err
	}
	return audit.ListByAccount(ctx, accountNumber, from, to)
}

// AuditByReference lists every audit row written under a transaction reference.
func (s *Service) AuditByReference(ctx context.Context, reference string) ([]*ledger.AuditEntry, error) {
	if reference == "" {
		return nil, domain.ErrValidation.WithDetail("transaction reference is required")
	}
	audit, err := s.uow.AuditLogRepository()
	if err != nil {
		return nil, err
	}
	return audit.ListByReference(ctx, reference)
}

// Reconcile checks the invariants of one account under its row lock:
// the LOCKED holds add up to HoldAmount, the available balance respects the
// floor, and the last balance-changing audit row matches the balance.
func (s *Service) Reconcile(ctx context.Context, accountNumber string) (ReconcileReport, error) {
	var report ReconcileReport
	dctx := detach(ctx)
	err := s.uow.Do(dctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		locks, err := uow.FundLockRepository()
		if err != nil {
			return err
		}
		audit, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}

		acct, err := accounts.GetForUpdate(dctx, accountNumber)
		if err != nil {
			return err
		}
		active, err := locks.ListByAccount(dctx, accountNumber, ledger.LockStatusLocked)
		if err != nil {
			return err
		}

		report = ReconcileReport{
			AccountNumber: acct.AccountNumber,
			Balance:       acct.Balance,
			HoldAmount:    acct.HoldAmount,
			LockedTotal:   decimal.Zero,
			CheckedAt:     s.now(),
		}
		for _, l := range active {
			report.LockedTotal = report.LockedTotal.Add(l.LockedAmount)
		}
		if !report.LockedTotal.Equal(acct.HoldAmount) {
			report.Violations = append(report.Violations,
				fmt.Sprintf("active locks total %s but hold amount is %s", report.LockedTotal, acct.HoldAmount))
		}
		if acct.HoldAmount.IsNegative() {
			report.Violations = append(report.Violations, fmt.Sprintf("hold amount %s is negative", acct.HoldAmount))
		}
		if acct.Available().LessThan(acct.Floor()) {
			report.Violations = append(report.Violations,
				fmt.Sprintf("available balance %s is below floor %s", acct.Available(), acct.Floor()))
		}

		latest, err := audit.LatestBalanceEntry(dctx, accountNumber)
		switch {
		case err == nil:
			nb := latest.NewBalance
			report.LatestAuditBalance = &nb
			if !nb.Equal(acct.Balance) {
				report.Violations = append(report.Violations,
					fmt.Sprintf("latest audit balance %s (%s) differs from balance %s", nb, latest.TransactionReference, acct.Balance))
			}
		case errors.Is(err, domain.ErrNotFound):
			if !acct.Balance.IsZero() {
				report.Violations = append(report.Violations,
					fmt.Sprintf("balance %s has no audit history", acct.Balance))
			}
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}
	if !report.Consistent() {
		s.logger.Warn("reconciliation found violations", "account", accountNumber, "violations", report.Violations)
	}
	return report, nil
}
