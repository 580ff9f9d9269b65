// Package accountsync lets other services push account metadata into the
// ledger. Every call is keyed by account number, so a retried sync never
// creates a second account.
package accountsync

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
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/amirasaad/corebank/pkg/resilience"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/shopspring/decimal"
)

// StatusChanger is the ledger operation behind UpdateStatus.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, accountNumber string, status ledger.Status, reason string) (ledgersvc.StatusResult, error)
}

// Service is the sync boundary.
type Service struct {
	uow       repository.UnitOfWork
	status    StatusChanger
	directory provider.CustomerDirectory
	pipeline  *resilience.Pipeline
	bus       eventbus.Bus
	logger    *slog.Logger
}

// New creates the sync boundary. directory and bus may be nil: without a
// directory customers are not checked, without a bus nothing is published.
func New(
	uow repository.UnitOfWork,
	status StatusChanger,
	directory provider.CustomerDirectory,
	pipeline *resilience.Pipeline,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pipeline == nil {
		pipeline = resilience.NewPipeline()
	}
	return &Service{
		uow:       uow,
		status:    status,
		directory: directory,
		pipeline:  pipeline,
		bus:       bus,
		logger:    logger.With("component", "accountsync"),
	}
}

// SyncRequest carries the metadata of an account opened elsewhere.
type SyncRequest struct {
	AccountNumber string
	CustomerRef   string
	Currency      string
	Type          ledger.Type
	CreditLimit   decimal.Decimal
	InterestRate  decimal.Decimal
}

// SyncResult identifies the ledger account.
type SyncResult struct {
	AccountNumber string
	CustomerRef   string
	Currency      ledger.Currency
	Status        ledger.Status
	CreatedAt     time.Time
	AlreadySynced bool
}

func resultOf(a *ledger.Account, already bool) SyncResult {
	return SyncResult{
		AccountNumber: a.AccountNumber,
		CustomerRef:   a.CustomerRef,
		Currency:      a.Currency,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt,
		AlreadySynced: already,
	}
}

func (r SyncRequest) account() (*ledger.Account, error) {
	if r.AccountNumber == "" || r.CustomerRef == "" {
		return nil, domain.ErrValidation.WithDetail("account number and customer ref are required")
	}
	cur, err := ledger.ParseCurrency(r.Currency)
	if err != nil {
		return nil, err
	}
	typ := r.Type
	if typ == "" {
		typ = ledger.TypeChecking
	}
	if !typ.Valid() {
		return nil, domain.ErrValidation.WithDetail("unknown account type %q", r.Type)
	}
	acct := &ledger.Account{
		AccountNumber: r.AccountNumber,
		CustomerRef:   r.CustomerRef,
		Currency:      cur,
		Type:          typ,
		Balance:       decimal.Zero,
		HoldAmount:    decimal.Zero,
		Status:        ledger.StatusActive,
	}
	switch typ {
	case ledger.TypeCredit:
		if r.CreditLimit.IsNegative() {
			return nil, domain.ErrValidation.WithDetail("credit limit must not be negative")
		}
		acct.Terms.CreditLimit = r.CreditLimit
	case ledger.TypeSavings:
		acct.Terms.InterestRate = r.InterestRate
	}
	return acct, nil
}

// Sync creates the account unless it already exists. An existing account is
// reported with AlreadySynced set and is not modified.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	logger := s.logger.With("account", req.AccountNumber, "customer", req.CustomerRef)
	acct, err := req.account()
	if err != nil {
		return SyncResult{}, err
	}
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return SyncResult{}, err
	}

	existing, err := accounts.Get(ctx, req.AccountNumber)
	if err == nil {
		logger.Info("account already synced")
		return resultOf(existing, true), nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return SyncResult{}, err
	}

	if err := s.checkCustomer(ctx, req.CustomerRef); err != nil {
		logger.Warn("account sync rejected", "error", err)
		return SyncResult{}, err
	}

	if err := accounts.Create(ctx, acct); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			logger.Error("failed to create account", "error", err)
			return SyncResult{}, err
		}
		// a concurrent sync won
		existing, gerr := accounts.Get(ctx, req.AccountNumber)
		if gerr != nil {
			return SyncResult{}, gerr
		}
		logger.Info("account synced concurrently")
		return resultOf(existing, true), nil
	}

	logger.Info("account synced", "currency", acct.Currency, "type", acct.Type)
	s.emit(ctx, events.AccountSynced{
		FlowEvent:     events.NewFlowEvent(acct.AccountNumber),
		AccountNumber: acct.AccountNumber,
		CustomerRef:   acct.CustomerRef,
		Currency:      string(acct.Currency),
		AccountType:   string(acct.Type),
	})
	return resultOf(acct, false), nil
}

func (s *Service) checkCustomer(ctx context.Context, ref string) error {
	if s.directory == nil {
		return nil
	}
	c, err := resilience.Execute(ctx, s.pipeline, "directory.lookup",
		func(ctx context.Context) (*provider.Customer, error) {
			return s.directory.Lookup(ctx, ref)
		})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrCustomerNotEligible.WithDetail("customer %s is unknown", ref)
	case err != nil:
		return err
	case c.Status != provider.CustomerActive:
		return domain.ErrCustomerNotEligible.WithDetail("customer %s is %s", ref, c.Status)
	}
	return nil
}

// UpdateStatus moves the account to status. Asking for the current status
// succeeds without publishing anything.
func (s *Service) UpdateStatus(ctx context.Context, accountNumber string, status ledger.Status, reason string) (ledgersvc.StatusResult, error) {
	if !status.Valid() {
		return ledgersvc.StatusResult{}, domain.ErrValidation.WithDetail("unknown account status %q", status)
	}
	res, err := s.status.ChangeStatus(ctx, accountNumber, status, reason)
	if err != nil {
		return res, err
	}
	if res.Changed {
		s.emit(ctx, events.AccountStatusChanged{
			FlowEvent:     events.NewFlowEvent(accountNumber),
			AccountNumber: accountNumber,
			Previous:      string(res.Previous),
			Current:       string(res.Current),
			Reason:        reason,
		})
	}
	return res, nil
}

func (s *Service) emit(ctx context.Context, evt events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Error("failed to publish event", "type", evt.Type(), "error", err)
	}
}
