// Package initializer builds the application dependencies from configuration.
package initializer

import (
	"fmt"

	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/infra"
	infrarepo "github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/app"
	"github.com/amirasaad/corebank/pkg/resilience"
)

// InitializeDependencies initializes all the application dependencies. The
// returned cleanup releases connections and stops background workers.
func InitializeDependencies(cfg *config.App) (deps *app.Deps, cleanup func(), err error) {
	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i](); cerr != nil {
				logger.Warn("cleanup failed", "error", cerr)
			}
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	if sqlDB, dberr := db.DB(); dberr == nil {
		closers = append(closers, sqlDB.Close)
	}
	if cfg.DB.AutoMigrate {
		if err = infra.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("Database schema is up to date", "dialect", db.Dialector.Name())
	}

	// Initialize unit of work
	var uowOpts []infrarepo.Option
	if cfg.Ledger != nil && cfg.Ledger.LockWaitTimeout > 0 {
		uowOpts = append(uowOpts, infrarepo.WithLockTimeout(cfg.Ledger.LockWaitTimeout))
	}
	deps.Uow = infrarepo.NewUoW(db, uowOpts...)
	deps.Records = infrarepo.NewTransactionRepository(db)

	deps.Pipeline = resilience.New(ResilienceConfig(cfg.Resilience), logger)

	// Initialize event bus
	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if c, ok := bus.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}
	deps.EventBus = bus

	verifications, closeCache := initVerificationCache(cfg, logger)
	closers = append(closers, closeCache)

	deps.PartnerBank = initPartnerBank(cfg.Partner, verifications, logger)
	deps.Directory = initDirectory(cfg.Directory, logger)

	logger.Info("Dependencies initialized",
		"event_bus", fmt.Sprintf("%T", bus),
		"partner_bank", fmt.Sprintf("%T", deps.PartnerBank),
		"directory", fmt.Sprintf("%T", deps.Directory),
		"pipeline", deps.Pipeline.Policies(),
	)
	return deps, closeAll, nil
}
