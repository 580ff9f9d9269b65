package testutils

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/corebank/infra"
	infrarepo "github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSQLiteDB returns a private in-memory ledger store with the schema applied.
// The pool is limited to one connection, so concurrent transactions run one
// after another.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, infra.Migrate(db))
	return db
}

// NewPostgresDB starts a throwaway Postgres container and applies the embedded
// migrations. The test is skipped when no container runtime is available.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pg, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pg) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	return db
}

// AccountOption adjusts a seeded account.
type AccountOption func(*ledger.Account)

// WithStatus seeds the account with the given status.
func WithStatus(s ledger.Status) AccountOption {
	return func(a *ledger.Account) { a.Status = s }
}

// WithCreditLimit seeds a CREDIT account with the given limit.
func WithCreditLimit(limit int64) AccountOption {
	return func(a *ledger.Account) {
		a.Type = ledger.TypeCredit
		a.Terms.CreditLimit = decimal.NewFromInt(limit)
	}
}

// WithHold seeds a hold amount without a matching lock row.
func WithHold(hold int64) AccountOption {
	return func(a *ledger.Account) { a.HoldAmount = decimal.NewFromInt(hold) }
}

// SeedAccount inserts an ACTIVE CHECKING account directly into the store.
func SeedAccount(t *testing.T, db *gorm.DB, number string, currency ledger.Currency, balance int64, opts ...AccountOption) *ledger.Account {
	t.Helper()
	acct := &ledger.Account{
		AccountNumber: number,
		CustomerRef:   "CUST-" + number,
		Currency:      currency,
		Type:          ledger.TypeChecking,
		Balance:       decimal.NewFromInt(balance),
		HoldAmount:    decimal.Zero,
		Status:        ledger.StatusActive,
	}
	for _, opt := range opts {
		opt(acct)
	}
	require.NoError(t, infrarepo.NewAccountRepository(db).Create(context.Background(), acct))
	return acct
}

// MakeRequest is a helper for making HTTP requests against a Fiber app in tests.
func MakeRequest(app *fiber.App, method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}
