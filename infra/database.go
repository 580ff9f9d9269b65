package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/infra/migrations"
	infrarepo "github.com/amirasaad/corebank/infra/repository"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the ledger store. A DATABASE_URL starting with
// "sqlite:" or "file:" opens a local sqlite database, which is only meant for
// development since sqlite has no row-level locks.
func NewDBConnection(cnf *config.DB, appEnv string) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(cnf.Url, "sqlite:"):
		dialector = sqlite.Open(strings.TrimPrefix(cnf.Url, "sqlite:"))
	case strings.HasPrefix(cnf.Url, "file:"):
		dialector = sqlite.Open(cnf.Url)
	default:
		dialector = postgres.Open(cnf.Url)
	}

	connection, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	if connection.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cnf.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cnf.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cnf.ConnMaxLifetime)

	return connection, nil
}

// Migrate brings the schema up to date: embedded SQL migrations on postgres,
// AutoMigrate of the GORM models elsewhere.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		if err := db.AutoMigrate(infrarepo.Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return migrations.Up(sqlDB)
}
