// Package app assembles the core banking services from their dependencies.
package app

import (
	"log/slog"

	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/pkg/eventbus"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/amirasaad/corebank/pkg/resilience"
	"github.com/amirasaad/corebank/pkg/service/accountsync"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/amirasaad/corebank/pkg/service/transfer"
)

// Deps contains all the dependencies the services are built from.
type Deps struct {
	Uow repository.UnitOfWork
	// Records stores the orchestrator's transfer records.
	Records     transfer.Records
	EventBus    eventbus.Bus
	PartnerBank provider.PartnerBank
	Directory   provider.CustomerDirectory
	Pipeline    *resilience.Pipeline
	// Ledger overrides the in-process ledger the orchestrator calls, e.g.
	// with a ledgerclient.Client when the ledger runs elsewhere.
	Ledger transfer.Ledger
	Logger *slog.Logger
}

type App struct {
	Deps      *Deps
	Config    *config.App
	Ledger    *ledgersvc.Service
	Sync      *accountsync.Service
	Transfers *transfer.Service
}

func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Pipeline == nil {
		deps.Pipeline = resilience.NewPipeline()
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}

	var ledgerCfg ledgersvc.Config
	var transferCfg transfer.Config
	if cfg != nil && cfg.Ledger != nil {
		ledgerCfg.FeeAccount = cfg.Ledger.FeeAccount
		ledgerCfg.PerformedBy = cfg.Ledger.PerformedBy
		transferCfg.BankCode = cfg.Ledger.BankCode
	}
	app.Ledger = ledgersvc.NewService(deps.Uow, deps.Logger, ledgerCfg)
	app.Sync = accountsync.New(deps.Uow, app.Ledger, deps.Directory, deps.Pipeline, deps.EventBus, deps.Logger)

	var l transfer.Ledger = app.Ledger
	if deps.Ledger != nil {
		l = deps.Ledger
	}
	app.Transfers = transfer.New(l, deps.Records, deps.PartnerBank, deps.Pipeline, deps.EventBus, deps.Logger, transferCfg)

	if deps.EventBus != nil {
		app.setupEventBus()
	}
	return app
}
