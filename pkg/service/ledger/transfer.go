package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/shopspring/decimal"
)

// feeReference is the audit reference of the fee leg of a transfer. It keeps
// the fee credit distinct from the destination credit when both land on the
// same account.
func feeReference(reference string) string { return reference + ":fee" }

// ReversalReference is the default reference of the compensation of reference.
func ReversalReference(reference string) string { return reference + ":reversal" }

// ExecuteTransfer debits Source by Amount+Fee, credits Destination by Amount
// and the configured fee account by Fee, and persists the transaction record,
// all in one store transaction.
//
// Reference is the idempotency key. A terminal record is returned unchanged
// with Replayed set; a FAILED record is returned together with its recorded
// error. A PENDING or PROCESSING record with the same reference (created by an
// orchestrator) is adopted and completed. When the transfer is rejected, the
// balances are untouched and the record is saved as FAILED.
func (s *Service) ExecuteTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	logger := s.logger.With("op", "transfer", "reference", req.Reference,
		"source", req.Source, "destination", req.Destination, "amount", req.Amount, "fee", req.Fee)
	if err := validateTransfer(req); err != nil {
		logger.Warn("transfer rejected", "error", err)
		return TransferResult{}, err
	}

	if res, done, err := s.replayTransfer(ctx, req); done {
		return res, err
	}

	feeAccount := ""
	if req.Fee.IsPositive() {
		feeAccount = s.cfg.FeeAccount
	}

	var res TransferResult
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
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		locked, err := lockAccounts(dctx, accounts, req.Source, req.Destination, feeAccount)
		if err != nil {
			return err
		}

		rec, existed, err := s.adoptRecord(dctx, txs, req)
		if err != nil {
			return err
		}
		if rec.Status.Terminal() {
			res = TransferResult{Transaction: rec, Replayed: true}
			return nil
		}

		src, dst := locked[req.Source], locked[req.Destination]
		if err := checkCurrencies(req, src, dst, locked[feeAccount]); err != nil {
			return err
		}
		total := req.Amount.Add(req.Fee)
		if err := src.CanDebit(total); err != nil {
			return err
		}
		if err := dst.CanCredit(); err != nil {
			return err
		}

		now := s.now()
		srcPrev, err := src.Debit(total)
		if err != nil {
			return err
		}
		dstPrev, err := dst.Credit(req.Amount)
		if err != nil {
			return err
		}
		entries := []*ledger.AuditEntry{
			s.auditRow(src.AccountNumber, ledger.OpDebit, srcPrev, total, src.Balance, req.Reference, req.Description, now, req.PerformedBy),
			s.auditRow(dst.AccountNumber, ledger.OpCredit, dstPrev, req.Amount, dst.Balance, req.Reference, req.Description, now, req.PerformedBy),
		}
		if feeAccount != "" {
			fee := locked[feeAccount]
			feePrev, err := fee.Credit(req.Fee)
			if err != nil {
				return err
			}
			entries = append(entries,
				s.auditRow(fee.AccountNumber, ledger.OpCredit, feePrev, req.Fee, fee.Balance, feeReference(req.Reference), "transfer fee", now, req.PerformedBy))
		}

		for _, n := range ledger.LockOrder(req.Source, req.Destination, feeAccount) {
			if err := accounts.UpdateBalances(dctx, locked[n]); err != nil {
				return err
			}
		}
		for _, e := range entries {
			if err := audit.Append(dctx, e); err != nil {
				return err
			}
		}

		// balances of a shared fee/destination account are reported after all legs
		rec.Currency = src.Currency
		rec.FeeAccount = feeAccount
		rec.Source = ledger.LegSnapshot{BalanceBefore: srcPrev, BalanceAfter: src.Balance}
		rec.Destination = ledger.LegSnapshot{BalanceBefore: dstPrev, BalanceAfter: dst.Balance}
		if rec.Status == ledger.TxPending {
			if err := rec.Transition(ledger.TxProcessing, now); err != nil {
				return err
			}
		}
		if err := rec.Transition(ledger.TxCompleted, now); err != nil {
			return err
		}
		if existed {
			err = txs.Update(dctx, rec)
		} else {
			err = txs.Create(dctx, rec)
		}
		if err != nil {
			return err
		}
		res = TransferResult{Transaction: rec}
		return nil
	})
	if err != nil {
		if rejected(err) && !errors.Is(err, domain.ErrIdempotencyConflict) {
			logger.Warn("transfer rejected", "error", err)
			failed := s.recordFailure(ctx, req.Reference, func() *ledger.Transaction {
				return ledger.NewPendingTransaction(req.Reference, ledger.TxTypeInternal,
					req.Source, req.Destination, req.Amount, req.Fee)
			}, err)
			return TransferResult{Transaction: failed}, err
		}
		logger.Error("transfer failed", "error", err)
		return TransferResult{}, err
	}
	if res.Replayed {
		logger.Info("transfer replayed", "status", res.Transaction.Status)
		return res, res.Transaction.FailureError()
	}
	logger.Info("transfer completed", "transaction_id", res.Transaction.ID)
	return res, nil
}

// replayTransfer answers from a terminal record without taking any lock.
func (s *Service) replayTransfer(ctx context.Context, req TransferRequest) (TransferResult, bool, error) {
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return TransferResult{}, true, err
	}
	rec, err := txs.GetByTraceID(ctx, req.Reference)
	if err != nil {
		// the locked path re-checks the record anyway
		return TransferResult{}, false, nil
	}
	if !rec.Status.Terminal() {
		return TransferResult{}, false, nil
	}
	if !rec.Matches(req.Source, req.Destination, req.Amount, req.Fee) {
		return TransferResult{}, true, conflict(rec)
	}
	return TransferResult{Transaction: rec, Replayed: true}, true, rec.FailureError()
}

// adoptRecord loads the record for req under lock, or builds a new PENDING one.
func (s *Service) adoptRecord(ctx context.Context, txs repository.TransactionRepository, req TransferRequest) (*ledger.Transaction, bool, error) {
	rec, err := txs.GetByTraceIDForUpdate(ctx, req.Reference)
	if err != nil {
		if !isNotFound(err) {
			return nil, false, err
		}
		rec = ledger.NewPendingTransaction(req.Reference, ledger.TxTypeInternal, req.Source, req.Destination, req.Amount, req.Fee)
		rec.Description = req.Description
		now := s.now()
		rec.CreatedAt, rec.UpdatedAt = now, now
		return rec, false, nil
	}
	if !rec.Matches(req.Source, req.Destination, req.Amount, req.Fee) {
		return nil, true, conflict(rec)
	}
	if rec.Type == ledger.TxTypeInterbank || rec.Type == ledger.TxTypeReversal {
		return nil, true, domain.ErrIdempotencyConflict.WithDetail(
			"reference %s belongs to a %s record", req.Reference, rec.Type)
	}
	return rec, true, nil
}

// recordFailure saves the FAILED record in its own transaction, after the
// rejected transfer has rolled back. Errors are logged: the caller already
// has the rejection to report.
func (s *Service) recordFailure(ctx context.Context, reference string, build func() *ledger.Transaction, cause error) *ledger.Transaction {
	var rec *ledger.Transaction
	dctx := detach(ctx)
	err := s.uow.Do(dctx, func(uow repository.UnitOfWork) error {
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		existing, err := txs.GetByTraceIDForUpdate(dctx, reference)
		switch {
		case err == nil:
			rec = existing
			if rec.Status.Terminal() {
				return nil
			}
			if err := rec.Fail(cause, s.now()); err != nil {
				return err
			}
			return txs.Update(dctx, rec)
		case isNotFound(err):
			rec = build()
			now := s.now()
			rec.CreatedAt, rec.UpdatedAt = now, now
			if err := rec.Fail(cause, now); err != nil {
				return err
			}
			return txs.Create(dctx, rec)
		default:
			return err
		}
	})
	if err != nil {
		s.logger.Error("failed to record transfer failure", "reference", reference, "cause", cause, "error", err)
		return nil
	}
	return rec
}

// ReverseTransfer compensates a COMPLETED internal transfer: the destination
// is debited the amount, the fee account is debited the fee it received, and
// the source is credited what was recovered. A REVERSAL record linked to the
// original through ReversalOf/ReversedBy is written and the original becomes
// REVERSED. Repeating the request returns the reversal with Replayed set.
func (s *Service) ReverseTransfer(ctx context.Context, req ReverseRequest) (TransferResult, error) {
	if req.OriginalReference == "" {
		return TransferResult{}, domain.ErrValidation.WithDetail("original transaction reference is required")
	}
	if req.Reference == "" {
		req.Reference = ReversalReference(req.OriginalReference)
	}
	if req.Reference == req.OriginalReference {
		return TransferResult{}, domain.ErrValidation.WithDetail("reversal reference must differ from the original")
	}
	logger := s.logger.With("op", "reverse", "original", req.OriginalReference, "reference", req.Reference)

	txsRO, err := s.uow.TransactionRepository()
	if err != nil {
		return TransferResult{}, err
	}
	orig, err := txsRO.GetByTraceID(ctx, req.OriginalReference)
	if err != nil {
		return TransferResult{}, err
	}
	if rev, err := txsRO.GetByTraceID(ctx, req.Reference); err == nil && rev.Status.Terminal() {
		if rev.ReversalOf == nil || *rev.ReversalOf != orig.ID {
			return TransferResult{}, conflict(rev)
		}
		return TransferResult{Transaction: rev, Replayed: true}, rev.FailureError()
	}
	if orig.Type != ledger.TxTypeInternal {
		return TransferResult{}, domain.ErrNotReversible.WithDetail(
			"transaction %s is a %s and cannot be reversed by the ledger", orig.TraceID, orig.Type)
	}

	var res TransferResult
	dctx := detach(ctx)
	err = s.uow.Do(dctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		audit, err := uow.AuditLogRepository()
		if err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		locked, err := lockAccounts(dctx, accounts, orig.SourceAccount, orig.DestinationAccount, orig.FeeAccount)
		if err != nil {
			return err
		}
		original, err := txs.GetByTraceIDForUpdate(dctx, req.OriginalReference)
		if err != nil {
			return err
		}
		switch original.Status {
		case ledger.TxReversed:
			if original.ReversedBy == nil {
				return domain.ErrNotReversible.WithDetail("transaction %s is already reversed", original.TraceID)
			}
			rev, err := txs.Get(dctx, *original.ReversedBy)
			if err != nil {
				return err
			}
			if rev.TraceID != req.Reference {
				return domain.ErrNotReversible.WithDetail(
					"transaction %s was already reversed by %s", original.TraceID, rev.TraceID)
			}
			res = TransferResult{Transaction: rev, Replayed: true}
			return nil
		case ledger.TxCompleted:
		default:
			return domain.ErrNotReversible.WithDetail("transaction %s is %s", original.TraceID, original.Status)
		}

		// funds flow back: the original destination pays, the original source receives
		payer, payee := locked[original.DestinationAccount], locked[original.SourceAccount]
		refund := original.Amount
		now := s.now()
		var entries []*ledger.AuditEntry

		payerPrev, err := payer.Debit(original.Amount)
		if err != nil {
			return err
		}
		entries = append(entries, s.auditRow(payer.AccountNumber, ledger.OpDebit, payerPrev, original.Amount, payer.Balance, req.Reference, req.Reason, now, req.PerformedBy))

		if original.FeeAccount != "" && original.Fee.IsPositive() {
			fee := locked[original.FeeAccount]
			feePrev, err := fee.Debit(original.Fee)
			if err != nil {
				return err
			}
			entries = append(entries, s.auditRow(fee.AccountNumber, ledger.OpDebit, feePrev, original.Fee, fee.Balance, feeReference(req.Reference), "fee refund", now, req.PerformedBy))
			refund = refund.Add(original.Fee)
		}

		payeePrev, err := payee.Credit(refund)
		if err != nil {
			return err
		}
		entries = append(entries, s.auditRow(payee.AccountNumber, ledger.OpCredit, payeePrev, refund, payee.Balance, req.Reference, req.Reason, now, req.PerformedBy))

		for _, n := range ledger.LockOrder(original.SourceAccount, original.DestinationAccount, original.FeeAccount) {
			if err := accounts.UpdateBalances(dctx, locked[n]); err != nil {
				return err
			}
		}
		for _, e := range entries {
			if err := audit.Append(dctx, e); err != nil {
				return err
			}
		}

		rev, err := s.reversalRecord(dctx, txs, req, original)
		if err != nil {
			return err
		}
		rev.Currency = original.Currency
		rev.FeeAccount = original.FeeAccount
		rev.Source = ledger.LegSnapshot{BalanceBefore: payerPrev, BalanceAfter: payer.Balance}
		rev.Destination = ledger.LegSnapshot{BalanceBefore: payeePrev, BalanceAfter: payee.Balance}
		if rev.Status == ledger.TxPending {
			if err := rev.Transition(ledger.TxProcessing, now); err != nil {
				return err
			}
		}
		if err := rev.Transition(ledger.TxCompleted, now); err != nil {
			return err
		}
		if rev.CreatedAt.IsZero() {
			rev.CreatedAt = now
			err = txs.Create(dctx, rev)
		} else {
			err = txs.Update(dctx, rev)
		}
		if err != nil {
			return err
		}

		original.ReversedBy = &rev.ID
		if err := original.Transition(ledger.TxReversed, now); err != nil {
			return err
		}
		if err := txs.Update(dctx, original); err != nil {
			return err
		}
		res = TransferResult{Transaction: rev}
		return nil
	})
	if err != nil {
		if rejected(err) && !errors.Is(err, domain.ErrNotReversible) && !errors.Is(err, domain.ErrIdempotencyConflict) {
			logger.Warn("reversal rejected", "error", err)
			failed := s.recordFailure(ctx, req.Reference, func() *ledger.Transaction {
				return newReversal(req, orig)
			}, err)
			return TransferResult{Transaction: failed}, err
		}
		if rejected(err) {
			logger.Warn("reversal rejected", "error", err)
		} else {
			logger.Error("reversal failed", "error", err)
		}
		return TransferResult{}, err
	}
	logger.Info("transfer reversed", "reversal_id", res.Transaction.ID, "replayed", res.Replayed)
	return res, nil
}

// reversalRecord adopts a pending reversal record or builds a new one.
func (s *Service) reversalRecord(ctx context.Context, txs repository.TransactionRepository, req ReverseRequest, original *ledger.Transaction) (*ledger.Transaction, error) {
	rec, err := txs.GetByTraceIDForUpdate(ctx, req.Reference)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		return newReversal(req, original), nil
	}
	if rec.Status.Terminal() || rec.ReversalOf == nil || *rec.ReversalOf != original.ID {
		return nil, conflict(rec)
	}
	return rec, nil
}

func newReversal(req ReverseRequest, original *ledger.Transaction) *ledger.Transaction {
	fee := decimal.Zero
	if original.FeeAccount != "" {
		fee = original.Fee
	}
	rec := ledger.NewPendingTransaction(req.Reference, ledger.TxTypeReversal,
		original.DestinationAccount, original.SourceAccount, original.Amount, fee)
	rec.Description = req.Reason
	id := original.ID
	rec.ReversalOf = &id
	return rec
}

// lockAccounts takes the row lock of every distinct, non-empty account in
// ascending account-number order.
func lockAccounts(ctx context.Context, accounts repository.AccountRepository, numbers ...string) (map[string]*ledger.Account, error) {
	locked := make(map[string]*ledger.Account, len(numbers))
	for _, n := range ledger.LockOrder(numbers...) {
		acct, err := accounts.GetForUpdate(ctx, n)
		if err != nil {
			return nil, err
		}
		locked[n] = acct
	}
	return locked, nil
}

func checkCurrencies(req TransferRequest, src, dst, fee *ledger.Account) error {
	if src.Currency != dst.Currency {
		return domain.ErrCurrencyMismatch.WithDetail(
			"source %s is %s but destination %s is %s", src.AccountNumber, src.Currency, dst.AccountNumber, dst.Currency)
	}
	if fee != nil && fee.Currency != src.Currency {
		return domain.ErrCurrencyMismatch.WithDetail("fee account %s is %s, transfer is %s", fee.AccountNumber, fee.Currency, src.Currency)
	}
	if err := src.Currency.ValidateAmount(req.Amount); err != nil {
		return err
	}
	return src.Currency.ValidateFee(req.Fee)
}

func validateTransfer(req TransferRequest) error {
	switch {
	case req.Source == "" || req.Destination == "":
		return domain.ErrValidation.WithDetail("source and destination accounts are required")
	case req.Reference == "":
		return domain.ErrValidation.WithDetail("transaction reference is required")
	case req.Source == req.Destination:
		return domain.ErrSameAccount.WithDetail("cannot transfer from %s to itself", req.Source)
	case !req.Amount.IsPositive():
		return domain.ErrInvalidAmount.WithDetail("amount must be positive, got %s", req.Amount)
	case req.Fee.IsNegative():
		return domain.ErrInvalidAmount.WithDetail("fee must not be negative, got %s", req.Fee)
	}
	return nil
}

func conflict(rec *ledger.Transaction) error {
	return domain.ErrIdempotencyConflict.WithDetail(
		"reference %s already used for %s %s -> %s amount %s",
		rec.TraceID, rec.Type, rec.SourceAccount, rec.DestinationAccount, rec.Amount)
}

func (s *Service) auditRow(
	account string,
	op ledger.OperationType,
	prev, amount, next decimal.Decimal,
	reference, description string,
	at time.Time,
	performedBy string,
) *ledger.AuditEntry {
	return &ledger.AuditEntry{
		AccountNumber:        account,
		OperationType:        op,
		PreviousBalance:      prev,
		Amount:               amount,
		NewBalance:           next,
		TransactionReference: reference,
		Description:          description,
		OperationTime:        at,
		PerformedBy:          s.actor(performedBy),
	}
}
