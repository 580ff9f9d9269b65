package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATEs that mean "try again later".
const (
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"
)

// MapGormErrorToDomain converts GORM and driver errors to domain errors.
// Errors that are already classified pass through unchanged.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAlreadyExists.Wrap(err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound.Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrTimeout.Wrap(err)
	case errors.Is(err, driver.ErrBadConn):
		return domain.ErrConnectionFailure.Wrap(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure:
			return domain.ErrLockTimeout.Wrap(err)
		case pgUniqueViolation:
			return domain.ErrAlreadyExists.Wrap(err)
		}
	}

	// sqlite reports lock contention as a plain message
	if strings.Contains(err.Error(), "database is locked") {
		return domain.ErrLockTimeout.Wrap(err)
	}
	return err
}

// WrapError wraps a GORM operation and automatically maps errors.
//
// Usage:
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(acct).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}

// notFoundAs maps a record-not-found error to a more specific domain error.
func notFoundAs(err error, specific *domain.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return specific.Wrap(err)
	}
	return MapGormErrorToDomain(err)
}
