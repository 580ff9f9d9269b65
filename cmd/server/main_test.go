package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amirasaad/corebank/config"
	"github.com/stretchr/testify/require"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func TestNewServer(t *testing.T) {
	cfg := &config.App{
		Env:       "test",
		Log:       &config.Log{Level: 8, Format: "text"},
		DB:        &config.DB{Url: "sqlite:" + filepath.Join(t.TempDir(), "ledger.db"), AutoMigrate: true},
		Auth:      &config.Auth{Jwt: &config.Jwt{}},
		EventBus:  &config.EventBus{Driver: "memory"},
		RateLimit: &config.RateLimit{MaxRequests: 10, Window: time.Second},
		Ledger:    &config.Ledger{BankCode: "COREBANK", PerformedBy: "ledger"},
	}

	app, cleanup, err := newServer(cfg)
	require.NoError(t, err)
	defer cleanup()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint: errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ledger/accounts/1000000001/balance", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint: errcheck
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewServerRejectsMissingDatabase(t *testing.T) {
	_, _, err := newServer(&config.App{Log: &config.Log{}, DB: &config.DB{}})
	require.Error(t, err)
}
