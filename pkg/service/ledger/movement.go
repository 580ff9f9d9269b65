package ledger

import (
	"context"
	"errors"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/shopspring/decimal"
)

// Debit removes funds from an account.
//
// The reference is the idempotency key: a second debit with the same
// reference returns the recorded result with Replayed set and changes nothing.
func (s *Service) Debit(ctx context.Context, req MovementRequest) (BalanceResult, error) {
	return s.move(ctx, ledger.OpDebit, req)
}

// Credit adds funds to an account. DORMANT accounts accept credits.
func (s *Service) Credit(ctx context.Context, req MovementRequest) (BalanceResult, error) {
	return s.move(ctx, ledger.OpCredit, req)
}

func (s *Service) move(ctx context.Context, op ledger.OperationType, req MovementRequest) (BalanceResult, error) {
	logger := s.logger.With("op", op, "account", req.AccountNumber, "reference", req.Reference, "amount", req.Amount)
	if err := validateMovement(req); err != nil {
		logger.Warn("movement rejected", "error", err)
		return BalanceResult{}, err
	}

	var res BalanceResult
	dctx := detach(ctx)
	err := s.uow.Do(dctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		audit, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}

		acct, err := accounts.GetForUpdate(dctx, req.AccountNumber)
		if err != nil {
			return err
		}
		if err := acct.Currency.ValidateAmount(req.Amount); err != nil {
			return err
		}

		prior, err := audit.FindByReference(dctx, req.Reference, op, req.AccountNumber)
		switch {
		case err == nil:
			if !prior.Amount.Equal(req.Amount) {
				return domain.ErrIdempotencyConflict.WithDetail(
					"reference %s was recorded with amount %s, got %s", req.Reference, prior.Amount, req.Amount)
			}
			res = BalanceResult{
				AccountNumber:    acct.AccountNumber,
				Reference:        req.Reference,
				PreviousBalance:  prior.PreviousBalance,
				NewBalance:       prior.NewBalance,
				AvailableBalance: acct.Available(),
				Replayed:         true,
			}
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		var prev decimal.Decimal
		if op == ledger.OpDebit {
			prev, err = acct.Debit(req.Amount)
		} else {
			prev, err = acct.Credit(req.Amount)
		}
		if err != nil {
			return err
		}
		if err := accounts.UpdateBalances(dctx, acct); err != nil {
			return err
		}
		if err := audit.Append(dctx, &ledger.AuditEntry{
			AccountNumber:        acct.AccountNumber,
			OperationType:        op,
			PreviousBalance:      prev,
			Amount:               req.Amount,
			NewBalance:           acct.Balance,
			TransactionReference: req.Reference,
			Description:          req.Description,
			OperationTime:        s.now(),
			PerformedBy:          s.actor(req.PerformedBy),
		}); err != nil {
			return err
		}
		res = BalanceResult{
			AccountNumber:    acct.AccountNumber,
			Reference:        req.Reference,
			PreviousBalance:  prev,
			NewBalance:       acct.Balance,
			AvailableBalance: acct.Available(),
		}
		return nil
	})
	if err != nil {
		if rejected(err) {
			logger.Warn("movement rejected", "error", err)
		} else {
			logger.Error("movement failed", "error", err)
		}
		return BalanceResult{}, err
	}
	logger.Info("movement applied", "new_balance", res.NewBalance, "replayed", res.Replayed)
	return res, nil
}
