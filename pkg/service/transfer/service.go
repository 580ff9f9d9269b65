// Package transfer orchestrates transfers on top of the ledger.
//
// Transfers inside the institution are a single ledger ExecuteTransfer call.
// Transfers to another institution are a sequence of idempotent steps keyed by
// the trace id: verify the beneficiary, debit the source, settle with the
// partner bank and, when the partner refuses, credit the source back. The
// orchestrator never changes balances itself; every outbound call goes through
// the resilience pipeline.
package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/eventbus"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/amirasaad/corebank/pkg/resilience"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/shopspring/decimal"
)

// Ledger is the part of the ledger service the orchestrator calls. It is
// implemented in process by ledger.Service and remotely by ledgerclient.Client.
type Ledger interface {
	ExecuteTransfer(ctx context.Context, req ledgersvc.TransferRequest) (ledgersvc.TransferResult, error)
	ReverseTransfer(ctx context.Context, req ledgersvc.ReverseRequest) (ledgersvc.TransferResult, error)
	Debit(ctx context.Context, req ledgersvc.MovementRequest) (ledgersvc.BalanceResult, error)
	Credit(ctx context.Context, req ledgersvc.MovementRequest) (ledgersvc.BalanceResult, error)
	GetBalance(ctx context.Context, accountNumber string) (ledgersvc.Balance, error)
	GetTransaction(ctx context.Context, reference string) (*ledger.Transaction, error)
}

// Records stores transfer records. repository.TransactionRepository satisfies it.
type Records interface {
	GetByTraceID(ctx context.Context, traceID string) (*ledger.Transaction, error)
	Create(ctx context.Context, tx *ledger.Transaction) error
	Update(ctx context.Context, tx *ledger.Transaction) error
}

// Config tunes the orchestrator.
type Config struct {
	// BankCode identifies this institution; an empty or equal destination
	// bank code makes a transfer internal.
	BankCode    string
	PerformedBy string
	Now         func() time.Time
}

// Service is the transfer orchestrator.
type Service struct {
	ledger   Ledger
	records  Records
	partner  provider.PartnerBank
	pipeline *resilience.Pipeline
	bus      eventbus.Bus
	logger   *slog.Logger
	cfg      Config
}

// New creates the orchestrator. bus may be nil.
func New(
	l Ledger,
	records Records,
	partner provider.PartnerBank,
	pipeline *resilience.Pipeline,
	bus eventbus.Bus,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PerformedBy == "" {
		cfg.PerformedBy = "transfer-orchestrator"
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		ledger:   l,
		records:  records,
		partner:  partner,
		pipeline: pipeline,
		bus:      bus,
		logger:   logger.With("component", "transfer"),
		cfg:      cfg,
	}
}

// Request describes a transfer. TraceID is the idempotency key of the whole
// transfer across retries and resubmissions.
type Request struct {
	TraceID             string
	Source              string
	Destination         string
	DestinationBankCode string
	Amount              decimal.Decimal
	Fee                 decimal.Decimal
	Description         string
}

// Result carries the transaction record as it stands after the call.
type Result struct {
	Transaction *ledger.Transaction
	Replayed    bool
}

func (s *Service) internal(req Request) bool {
	return req.DestinationBankCode == "" || req.DestinationBankCode == s.cfg.BankCode
}

func validate(req Request) error {
	switch {
	case req.TraceID == "":
		return domain.ErrValidation.WithDetail("trace id is required")
	case req.Source == "" || req.Destination == "":
		return domain.ErrValidation.WithDetail("source and destination accounts are required")
	case !req.Amount.IsPositive():
		return domain.ErrInvalidAmount.WithDetail("amount must be positive, got %s", req.Amount)
	case req.Fee.IsNegative():
		return domain.ErrInvalidAmount.WithDetail("fee must not be negative, got %s", req.Fee)
	}
	return nil
}

// Transfer moves funds and reports the resulting record. A trace id seen
// before is answered from its record when terminal and resumed otherwise.
func (s *Service) Transfer(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}
	internal := s.internal(req)
	if internal && req.Source == req.Destination {
		return Result{}, domain.ErrSameAccount
	}
	logger := s.logger.With("trace_id", req.TraceID, "source", req.Source,
		"destination", req.Destination, "bank_code", req.DestinationBankCode, "internal", internal)

	rec, err := s.openRecord(ctx, req, internal)
	if err != nil {
		logger.Warn("transfer not started", "error", err)
		return Result{}, err
	}
	if rec.Status.Terminal() {
		logger.Info("transfer replayed", "status", rec.Status)
		return Result{Transaction: rec, Replayed: true}, rec.FailureError()
	}

	if internal {
		return s.runInternal(ctx, logger, req)
	}
	return s.runInterbank(ctx, logger, req, rec)
}

// openRecord adopts the record of req.TraceID or creates it PENDING.
func (s *Service) openRecord(ctx context.Context, req Request, internal bool) (*ledger.Transaction, error) {
	txType := ledger.TxTypeInterbank
	if internal {
		txType = ledger.TxTypeInternal
	}
	for attempt := 0; attempt < 2; attempt++ {
		rec, err := s.records.GetByTraceID(ctx, req.TraceID)
		if err == nil {
			if !rec.Matches(req.Source, req.Destination, req.Amount, req.Fee) ||
				rec.Type != txType || rec.DestinationBankCode != bankCodeOf(req, internal) {
				return nil, domain.ErrIdempotencyConflict.WithDetail(
					"trace id %s already used for a different transfer", req.TraceID)
			}
			return rec, nil
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		rec = ledger.NewPendingTransaction(req.TraceID, txType, req.Source, req.Destination, req.Amount, req.Fee)
		rec.DestinationBankCode = bankCodeOf(req, internal)
		rec.Description = req.Description
		now := s.cfg.Now()
		rec.CreatedAt, rec.UpdatedAt = now, now
		err = s.records.Create(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		// a concurrent submission created it first
	}
	return nil, domain.ErrServiceUnavailable.WithDetail("could not open record for %s", req.TraceID)
}

func bankCodeOf(req Request, internal bool) string {
	if internal {
		return ""
	}
	return req.DestinationBankCode
}

// Reverse compensates a completed internal transfer.
func (s *Service) Reverse(ctx context.Context, traceID, reason string) (Result, error) {
	if traceID == "" {
		return Result{}, domain.ErrValidation.WithDetail("trace id is required")
	}
	logger := s.logger.With("trace_id", traceID, "op", "reverse")
	req := ledgersvc.ReverseRequest{OriginalReference: traceID, Reason: reason, PerformedBy: s.cfg.PerformedBy}
	reversalRef := ledgersvc.ReversalReference(traceID)

	// a reversal recorded before this call is a replay, whatever the ledger
	// answers to a retried attempt
	if prior, err := s.records.GetByTraceID(ctx, reversalRef); err == nil && prior.Status.Terminal() && prior.ReversalOf != nil {
		logger.Info("reversal replayed", "reversal_id", prior.ID)
		return Result{Transaction: prior, Replayed: true}, prior.FailureError()
	}

	res, err := resilience.Outcome(ctx, s.pipeline, "ledger.reverseTransfer",
		func(ctx context.Context) (ledgersvc.TransferResult, error) {
			return s.ledger.ReverseTransfer(ctx, req)
		})
	if err != nil && retryable(err) {
		if rec := s.lookup(ctx, reversalRef); rec != nil && rec.Status.Terminal() {
			res, err = ledgersvc.TransferResult{Transaction: rec}, rec.FailureError()
		}
	}
	if err != nil {
		logger.Warn("reversal failed", "error", err)
		return Result{Transaction: res.Transaction}, err
	}
	s.emit(ctx, reversedEvent(res.Transaction, reason))
	logger.Info("transfer reversed", "reversal_id", res.Transaction.ID)
	return Result{Transaction: res.Transaction}, nil
}

// lookup re-reads a record through the ledger after an unclear outcome.
func (s *Service) lookup(ctx context.Context, reference string) *ledger.Transaction {
	rec, err := resilience.Execute(ctx, s.pipeline, "ledger.getTransaction",
		func(ctx context.Context) (*ledger.Transaction, error) {
			return s.ledger.GetTransaction(ctx, reference)
		})
	if err != nil {
		s.logger.Warn("transaction lookup failed", "reference", reference, "error", err)
		return nil
	}
	return rec
}

// retryable reports whether the outcome of a call is unknown rather than refused.
func retryable(err error) bool {
	k := domain.KindOf(err)
	return k == domain.KindTransient || k == domain.KindCircuitOpen
}

func (s *Service) emit(ctx context.Context, evt events.Event) {
	if s.bus == nil || evt == nil {
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Error("failed to publish event", "type", evt.Type(), "error", err)
	}
}
