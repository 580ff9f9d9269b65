package ledger

import (
	"context"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
)

// ChangeStatus moves an account through its lifecycle. Asking for the current
// status is a no-op; CLOSED needs a zero balance and no holds and is final.
func (s *Service) ChangeStatus(ctx context.Context, accountNumber string, status ledger.Status, reason string) (StatusResult, error) {
	logger := s.logger.With("op", "status", "account", accountNumber, "status", status)
	if accountNumber == "" {
		return StatusResult{}, domain.ErrValidation.WithDetail("account number is required")
	}

	var res StatusResult
	dctx := detach(ctx)
	err := s.uow.Do(dctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acct, err := accounts.GetForUpdate(dctx, accountNumber)
		if err != nil {
			return err
		}
		prev := acct.Status
		if err := acct.TransitionTo(status); err != nil {
			return err
		}
		res = StatusResult{AccountNumber: accountNumber, Previous: prev, Current: acct.Status, Changed: prev != acct.Status}
		if !res.Changed {
			return nil
		}
		return accounts.UpdateStatus(dctx, accountNumber, acct.Status)
	})
	if err != nil {
		logger.Warn("status change rejected", "error", err)
		return StatusResult{}, err
	}
	if res.Changed {
		logger.Info("account status changed", "previous", res.Previous, "reason", reason)
	}
	return res, nil
}
