// Package testutils builds a complete HTTP app over a throwaway ledger store
// for handler tests.
package testutils

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/corebank/config"
	infraeventbus "github.com/amirasaad/corebank/infra/eventbus"
	"github.com/amirasaad/corebank/infra/provider/directory"
	"github.com/amirasaad/corebank/infra/provider/partnerbank"
	infrarepo "github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/app"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/amirasaad/corebank/pkg/resilience"
	pkgtestutils "github.com/amirasaad/corebank/pkg/testutils"
	"github.com/amirasaad/corebank/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	BankCode   = "COREBANK"
	FeeAccount = "9999999999"
	JwtSecret  = "test-secret"
)

// Env is a running app and the pieces tests poke at directly.
type Env struct {
	App     *fiber.App
	Core    *app.App
	DB      *gorm.DB
	Bus     *infraeventbus.MemoryEventBus
	Partner *partnerbank.Stub
	Config  *config.App
}

// Option adjusts the configuration before the app is built.
type Option func(*config.App)

// WithJwtSecret protects the routes with an HS256 secret.
func WithJwtSecret(secret string) Option {
	return func(c *config.App) { c.Auth.Jwt.Secret = secret }
}

// WithRateLimit overrides the rate limit.
func WithRateLimit(max int, window time.Duration) Option {
	return func(c *config.App) { c.RateLimit = &config.RateLimit{MaxRequests: max, Window: window} }
}

// Config returns the configuration the test app runs with.
func Config(opts ...Option) *config.App {
	cfg := &config.App{
		Env:       "test",
		Auth:      &config.Auth{Strategy: "jwt", Jwt: &config.Jwt{Expiry: time.Hour, Issuer: "corebank"}},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Second},
		Ledger:    &config.Ledger{BankCode: BankCode, FeeAccount: FeeAccount, PerformedBy: "ledger"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// New builds the app on db. Pass pkgtestutils.NewSQLiteDB(t) or
// pkgtestutils.NewPostgresDB(t).
func New(t *testing.T, db *gorm.DB, opts ...Option) *Env {
	t.Helper()
	logger := pkgtestutils.DiscardLogger()
	cfg := Config(opts...)
	bus := infraeventbus.NewWithMemory(logger)
	partner := partnerbank.NewStub()
	core := app.New(&app.Deps{
		Uow:         infrarepo.NewUoW(db),
		Records:     infrarepo.NewTransactionRepository(db),
		EventBus:    bus,
		PartnerBank: partner,
		Directory: directory.NewStatic(
			provider.Customer{Ref: "CUST-1", Name: "Nguyen Van A", Status: provider.CustomerActive},
			provider.Customer{Ref: "CUST-2", Name: "Tran Thi B", Status: provider.CustomerBlocked},
		),
		Pipeline: resilience.NewPipeline(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 1}, logger)),
		Logger:   logger,
	}, cfg)
	pkgtestutils.SeedAccount(t, db, FeeAccount, "VND", 0)
	return &Env{App: webapi.SetupApp(core), Core: core, DB: db, Bus: bus, Partner: partner, Config: cfg}
}

// Do sends a request and decodes the JSON answer into a map.
func (e *Env) Do(t *testing.T, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	resp := pkgtestutils.MakeRequest(e.App, method, path, body, token)
	defer resp.Body.Close() //nolint: errcheck
	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

// Data returns the data object of a success response.
func Data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return data
}
