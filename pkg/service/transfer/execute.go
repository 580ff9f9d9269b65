package transfer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/amirasaad/corebank/pkg/resilience"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
)

func (s *Service) runInternal(ctx context.Context, logger *slog.Logger, req Request) (Result, error) {
	lreq := ledgersvc.TransferRequest{
		Source:      req.Source,
		Destination: req.Destination,
		Amount:      req.Amount,
		Fee:         req.Fee,
		Reference:   req.TraceID,
		Description: req.Description,
		PerformedBy: s.cfg.PerformedBy,
	}
	res, err := resilience.Outcome(ctx, s.pipeline, "ledger.executeTransfer",
		func(ctx context.Context) (ledgersvc.TransferResult, error) {
			return s.ledger.ExecuteTransfer(ctx, lreq)
		})

	if err != nil && retryable(err) {
		// the ledger may have committed before the answer was lost
		if rec := s.lookup(ctx, req.TraceID); rec != nil && rec.Status.Terminal() {
			logger.Info("transfer outcome recovered after transient failure", "status", rec.Status)
			res, err = ledgersvc.TransferResult{Transaction: rec}, rec.FailureError()
		}
	}

	// the record was still open when this call began, so the outcome is ours
	// even when a retried attempt only saw the ledger's replay
	switch {
	case err == nil:
		rec := res.Transaction
		s.emit(ctx, completedEvent(rec))
		logger.Info("transfer completed", "transaction_id", rec.ID)
		return Result{Transaction: rec}, nil
	case retryable(err):
		logger.Error("transfer outcome unknown", "error", err)
		return Result{}, err
	default:
		rec := res.Transaction
		if rec == nil {
			rec = s.lookup(ctx, req.TraceID)
		}
		if rec != nil && rec.Status == ledger.TxPending && !errors.Is(err, domain.ErrIdempotencyConflict) {
			// rejected before the ledger adopted the record
			return s.fail(ctx, logger, rec, err)
		}
		if rec != nil && rec.Status == ledger.TxFailed {
			s.emit(ctx, failedEvent(rec))
		}
		logger.Warn("transfer rejected", "error", err)
		return Result{Transaction: rec}, err
	}
}

// runInterbank drives a cross-institution transfer. Verification happens
// while the record is PENDING; from PROCESSING on, the source may have been
// debited and every exit either completes, compensates, or leaves the record
// PROCESSING for a later resubmission.
func (s *Service) runInterbank(ctx context.Context, logger *slog.Logger, req Request, rec *ledger.Transaction) (Result, error) {
	if rec.Status == ledger.TxPending {
		if err := s.verifyBeneficiary(ctx, req); err != nil {
			if retryable(err) {
				logger.Warn("beneficiary verification unavailable", "error", err)
				return Result{Transaction: rec}, err
			}
			return s.fail(ctx, logger, rec, err)
		}

		bal, err := resilience.Execute(ctx, s.pipeline, "ledger.getBalance",
			func(ctx context.Context) (ledgersvc.Balance, error) {
				return s.ledger.GetBalance(ctx, req.Source)
			})
		if err != nil {
			if retryable(err) {
				return Result{Transaction: rec}, err
			}
			return s.fail(ctx, logger, rec, err)
		}
		rec.Currency = bal.Currency
		if err := rec.Transition(ledger.TxProcessing, s.cfg.Now()); err != nil {
			return Result{Transaction: rec}, err
		}
		if err := s.records.Update(ctx, rec); err != nil {
			return Result{Transaction: rec}, err
		}
	}

	debit, err := resilience.Execute(ctx, s.pipeline, "ledger.debit",
		func(ctx context.Context) (ledgersvc.BalanceResult, error) {
			return s.ledger.Debit(ctx, ledgersvc.MovementRequest{
				AccountNumber: req.Source,
				Amount:        rec.Total(),
				Reference:     req.TraceID,
				Description:   req.Description,
				PerformedBy:   s.cfg.PerformedBy,
			})
		})
	if err != nil {
		if retryable(err) {
			logger.Warn("source debit outcome unknown", "error", err)
			return Result{Transaction: rec}, err
		}
		return s.fail(ctx, logger, rec, err)
	}
	rec.Source = ledger.LegSnapshot{BalanceBefore: debit.PreviousBalance, BalanceAfter: debit.NewBalance}

	settlement, err := s.settle(ctx, logger, req, rec)
	if err != nil {
		return Result{Transaction: rec}, err
	}
	switch settlement.Status {
	case provider.SettlementSettled:
		return s.complete(ctx, logger, rec)
	case provider.SettlementRejected, provider.SettlementNotFound:
		return s.compensate(ctx, logger, req, rec, settlement)
	default:
		logger.Info("settlement pending at partner", "status", settlement.Status)
		return Result{Transaction: rec}, domain.ErrServiceUnavailable.WithDetail(
			"settlement of %s is %s at the partner bank", req.TraceID, settlement.Status)
	}
}

func (s *Service) verifyBeneficiary(ctx context.Context, req Request) error {
	v, err := resilience.Execute(ctx, s.pipeline, "partner.verifyAccount",
		func(ctx context.Context) (*provider.AccountVerification, error) {
			return s.partner.VerifyAccount(ctx, req.DestinationBankCode, req.Destination)
		})
	if err != nil {
		return err
	}
	if !v.Usable() {
		return domain.ErrDestinationNotFound.WithDetail(
			"account %s at %s cannot receive funds", req.Destination, req.DestinationBankCode)
	}
	return nil
}

// settle submits the settlement. When the submission outcome is unknown the
// partner is asked for the settlement status instead.
func (s *Service) settle(ctx context.Context, logger *slog.Logger, req Request, rec *ledger.Transaction) (*provider.Settlement, error) {
	sreq := provider.SettlementRequest{
		Reference:          req.TraceID,
		SourceAccount:      req.Source,
		DestinationBank:    req.DestinationBankCode,
		DestinationAccount: req.Destination,
		Amount:             rec.Amount,
		Currency:           string(rec.Currency),
		Description:        req.Description,
	}
	st, err := resilience.Execute(ctx, s.pipeline, "partner.settle",
		func(ctx context.Context) (*provider.Settlement, error) {
			return s.partner.Settle(ctx, sreq)
		})
	if err == nil {
		return st, nil
	}
	if !retryable(err) {
		// a refusal: nothing was settled
		return &provider.Settlement{Reference: req.TraceID, Status: provider.SettlementRejected, Reason: err.Error()}, nil
	}

	logger.Warn("settlement outcome unknown, querying partner", "error", err)
	st, qerr := resilience.Execute(ctx, s.pipeline, "partner.settlementStatus",
		func(ctx context.Context) (*provider.Settlement, error) {
			return s.partner.SettlementStatus(ctx, req.TraceID)
		})
	if qerr != nil {
		logger.Error("settlement status unavailable, transfer left processing", "error", qerr)
		return nil, domain.ErrServiceUnavailable.WithDetail(
			"settlement of %s could not be confirmed", req.TraceID).Wrap(err)
	}
	return st, nil
}

func (s *Service) complete(ctx context.Context, logger *slog.Logger, rec *ledger.Transaction) (Result, error) {
	if err := rec.Transition(ledger.TxCompleted, s.cfg.Now()); err != nil {
		return Result{Transaction: rec}, err
	}
	if err := s.records.Update(ctx, rec); err != nil {
		logger.Error("failed to persist completed transfer", "error", err)
		return Result{Transaction: rec}, err
	}
	s.emit(ctx, completedEvent(rec))
	logger.Info("interbank transfer completed", "transaction_id", rec.ID)
	return Result{Transaction: rec}, nil
}

// compensate credits the source back under "<trace id>:reversal" and records
// the transfer FAILED. If the credit cannot be made the record stays
// PROCESSING so that a resubmission retries the compensation.
func (s *Service) compensate(
	ctx context.Context,
	logger *slog.Logger,
	req Request,
	rec *ledger.Transaction,
	settlement *provider.Settlement,
) (Result, error) {
	ref := ledgersvc.ReversalReference(req.TraceID)
	_, err := resilience.Execute(ctx, s.pipeline, "ledger.credit",
		func(ctx context.Context) (ledgersvc.BalanceResult, error) {
			return s.ledger.Credit(ctx, ledgersvc.MovementRequest{
				AccountNumber: req.Source,
				Amount:        rec.Total(),
				Reference:     ref,
				Description:   "compensation of " + req.TraceID,
				PerformedBy:   s.cfg.PerformedBy,
			})
		})
	if err != nil {
		logger.Error("compensation failed, transfer left processing", "compensation_reference", ref, "error", err)
		return Result{Transaction: rec}, domain.ErrServiceUnavailable.WithDetail(
			"compensation of %s is pending", req.TraceID).Wrap(err)
	}
	rec.CompensationReference = ref

	reason := settlement.Reason
	if reason == "" {
		reason = "settlement " + string(settlement.Status)
	}
	return s.fail(ctx, logger, rec, domain.ErrPartnerRejected.WithDetail("%s", reason))
}

// fail records the rejection and reports it.
func (s *Service) fail(ctx context.Context, logger *slog.Logger, rec *ledger.Transaction, cause error) (Result, error) {
	if err := rec.Fail(cause, s.cfg.Now()); err != nil {
		return Result{Transaction: rec}, err
	}
	if err := s.records.Update(ctx, rec); err != nil {
		logger.Error("failed to persist failed transfer", "cause", cause, "error", err)
		return Result{Transaction: rec}, err
	}
	s.emit(ctx, failedEvent(rec))
	logger.Warn("transfer failed", "code", rec.FailureCode, "error", cause)
	return Result{Transaction: rec}, cause
}

func completedEvent(rec *ledger.Transaction) events.Event {
	if rec == nil {
		return nil
	}
	return events.TransferCompleted{
		FlowEvent:           events.NewFlowEvent(rec.TraceID),
		TransactionID:       rec.ID,
		TransferType:        string(rec.Type),
		SourceAccount:       rec.SourceAccount,
		DestinationAccount:  rec.DestinationAccount,
		DestinationBankCode: rec.DestinationBankCode,
		Amount:              rec.Amount,
		Fee:                 rec.Fee,
		Currency:            string(rec.Currency),
	}
}

func failedEvent(rec *ledger.Transaction) events.Event {
	return events.TransferFailed{
		FlowEvent:             events.NewFlowEvent(rec.TraceID),
		TransactionID:         rec.ID,
		SourceAccount:         rec.SourceAccount,
		DestinationAccount:    rec.DestinationAccount,
		Amount:                rec.Amount,
		FailureCode:           string(rec.FailureCode),
		Reason:                rec.FailureReason,
		CompensationReference: rec.CompensationReference,
	}
}

func reversedEvent(rev *ledger.Transaction, reason string) events.Event {
	if rev == nil || rev.ReversalOf == nil {
		return nil
	}
	return events.TransferReversed{
		FlowEvent:             events.NewFlowEvent(rev.TraceID),
		OriginalTransactionID: *rev.ReversalOf,
		ReversalTransactionID: rev.ID,
		ReversalReference:     rev.TraceID,
		SourceAccount:         rev.DestinationAccount,
		DestinationAccount:    rev.SourceAccount,
		Amount:                rev.Amount,
		Reason:                reason,
	}
}
