package ledger

import (
	"context"
	"errors"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
)

// LockFunds places a hold on an account. A hold never dips into overdraft.
//
// (ReferenceID, LockType) identifies an active hold: repeating a request for
// the same account and amount returns the existing lock with Replayed set,
// while a different account or amount under the same key is DUPLICATE_LOCK.
func (s *Service) LockFunds(ctx context.Context, req LockRequest) (LockResult, error) {
	logger := s.logger.With("op", "lock", "account", req.AccountNumber, "reference", req.ReferenceID, "lock_type", req.LockType)
	if err := validateLock(req); err != nil {
		logger.Warn("lock rejected", "error", err)
		return LockResult{}, err
	}

	var res LockResult
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

		acct, err := accounts.GetForUpdate(dctx, req.AccountNumber)
		if err != nil {
			return err
		}
		if err := acct.Currency.ValidateAmount(req.Amount); err != nil {
			return err
		}

		existing, err := locks.FindByReference(dctx, req.ReferenceID, req.LockType, ledger.LockStatusLocked)
		switch {
		case err == nil:
			if existing.AccountNumber != req.AccountNumber || !existing.LockedAmount.Equal(req.Amount) {
				return domain.ErrDuplicateLock.WithDetail(
					"reference %s already holds %s on account %s", req.ReferenceID, existing.LockedAmount, existing.AccountNumber)
			}
			res = LockResult{Lock: existing, AvailableBalance: acct.Available(), Replayed: true}
			return nil
		case !errors.Is(err, domain.ErrLockNotFound):
			return err
		}

		prevAvailable, err := acct.Hold(req.Amount)
		if err != nil {
			return err
		}
		now := s.now()
		lock := ledger.NewFundLock(acct.AccountNumber, req.Amount, req.LockType, req.ReferenceID, req.Description, now)
		if err := locks.Create(dctx, lock); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrDuplicateLock.Wrap(err)
			}
			return err
		}
		if err := accounts.UpdateBalances(dctx, acct); err != nil {
			return err
		}
		if err := audit.Append(dctx, &ledger.AuditEntry{
			AccountNumber:        acct.AccountNumber,
			OperationType:        ledger.OpLock,
			PreviousBalance:      prevAvailable,
			Amount:               req.Amount,
			NewBalance:           acct.Available(),
			TransactionReference: lock.LockID.String(),
			Description:          lockDescription(req.LockType, req.ReferenceID, req.Description),
			OperationTime:        now,
			PerformedBy:          s.actor(req.PerformedBy),
		}); err != nil {
			return err
		}
		res = LockResult{Lock: lock, AvailableBalance: acct.Available()}
		return nil
	})
	if err != nil {
		if rejected(err) {
			logger.Warn("lock rejected", "error", err)
		} else {
			logger.Error("lock failed", "error", err)
		}
		return LockResult{}, err
	}
	logger.Info("funds locked", "lock_id", res.Lock.LockID, "available", res.AvailableBalance, "replayed", res.Replayed)
	return res, nil
}

// UnlockFunds releases a hold. Releasing an already released lock returns it
// unchanged with Replayed set. Unlocking is allowed whatever the account status.
func (s *Service) UnlockFunds(ctx context.Context, req UnlockRequest) (LockResult, error) {
	lockID, reason := req.LockID, req.Reason
	logger := s.logger.With("op", "unlock", "lock_id", lockID)

	var res LockResult
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

		// account row first, then the lock row, the same order LockFunds uses
		peek, err := locks.Get(dctx, lockID)
		if err != nil {
			return err
		}
		acct, err := accounts.GetForUpdate(dctx, peek.AccountNumber)
		if err != nil {
			return err
		}
		lock, err := locks.GetForUpdate(dctx, lockID)
		if err != nil {
			return err
		}
		if lock.Status == ledger.LockStatusReleased {
			res = LockResult{Lock: lock, AvailableBalance: acct.Available(), Replayed: true}
			return nil
		}

		now := s.now()
		prevAvailable := acct.Release(lock.LockedAmount)
		lock.MarkReleased(reason, now)
		if err := locks.Update(dctx, lock); err != nil {
			return err
		}
		if err := accounts.UpdateBalances(dctx, acct); err != nil {
			return err
		}
		if err := audit.Append(dctx, &ledger.AuditEntry{
			AccountNumber:        acct.AccountNumber,
			OperationType:        ledger.OpUnlock,
			PreviousBalance:      prevAvailable,
			Amount:               lock.LockedAmount,
			NewBalance:           acct.Available(),
			TransactionReference: lock.LockID.String(),
			Description:          reason,
			OperationTime:        now,
			PerformedBy:          s.actor(req.PerformedBy),
		}); err != nil {
			return err
		}
		res = LockResult{Lock: lock, AvailableBalance: acct.Available()}
		return nil
	})
	if err != nil {
		if rejected(err) {
			logger.Warn("unlock rejected", "error", err)
		} else {
			logger.Error("unlock failed", "error", err)
		}
		return LockResult{}, err
	}
	logger.Info("funds unlocked", "account", res.Lock.AccountNumber, "available", res.AvailableBalance, "replayed", res.Replayed)
	return res, nil
}

// ReleaseByReference releases the active hold identified by (referenceID,
// lockType). When no hold is active but one was released earlier, that lock
// is returned as a replay.
func (s *Service) ReleaseByReference(ctx context.Context, req ReleaseRequest) (LockResult, error) {
	referenceID, lockType := req.ReferenceID, req.LockType
	if referenceID == "" {
		return LockResult{}, domain.ErrValidation.WithDetail("reference id is required")
	}
	if !lockType.Valid() {
		return LockResult{}, domain.ErrValidation.WithDetail("unknown lock type %q", lockType)
	}
	locks, err := s.uow.FundLockRepository()
	if err != nil {
		return LockResult{}, err
	}

	active, err := locks.FindByReference(ctx, referenceID, lockType, ledger.LockStatusLocked)
	if err == nil {
		return s.UnlockFunds(ctx, UnlockRequest{LockID: active.LockID, Reason: req.Reason, PerformedBy: req.PerformedBy})
	}
	if !errors.Is(err, domain.ErrLockNotFound) {
		return LockResult{}, err
	}

	released, err := locks.FindByReference(ctx, referenceID, lockType, ledger.LockStatusReleased)
	if err != nil {
		return LockResult{}, err
	}
	bal, err := s.GetBalance(ctx, released.AccountNumber)
	if err != nil {
		return LockResult{}, err
	}
	return LockResult{Lock: released, AvailableBalance: bal.AvailableBalance, Replayed: true}, nil
}

// ListLocks returns the locks of an account; an empty status lists all of them.
func (s *Service) ListLocks(ctx context.Context, accountNumber string, status ledger.LockStatus) ([]*ledger.FundLock, error) {
	if status != "" && status != ledger.LockStatusLocked && status != ledger.LockStatusReleased {
		return nil, domain.ErrValidation.WithDetail("unknown lock status %q", status)
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	if _, err := accounts.Get(ctx, accountNumber); err != nil {
		return nil, err
	}
	locks, err := s.uow.FundLockRepository()
	if err != nil {
		return nil, err
	}
	return locks.ListByAccount(ctx, accountNumber, status)
}

func validateLock(req LockRequest) error {
	if req.AccountNumber == "" {
		return domain.ErrValidation.WithDetail("account number is required")
	}
	if req.ReferenceID == "" {
		return domain.ErrValidation.WithDetail("reference id is required")
	}
	if !req.LockType.Valid() {
		return domain.ErrValidation.WithDetail("unknown lock type %q", req.LockType)
	}
	if !req.Amount.IsPositive() {
		return domain.ErrInvalidAmount.WithDetail("amount must be positive, got %s", req.Amount)
	}
	return nil
}

func lockDescription(lockType ledger.LockType, referenceID, description string) string {
	d := string(lockType) + " " + referenceID
	if description != "" {
		d += ": " + description
	}
	return d
}
