package initializer

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/infra/cache"
	"github.com/amirasaad/corebank/infra/provider/directory"
	"github.com/amirasaad/corebank/infra/provider/partnerbank"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResilienceConfig(t *testing.T) {
	got := ResilienceConfig(&config.Resilience{
		Timeout:             time.Second,
		MaxAttempts:         4,
		InitialBackoff:      10 * time.Millisecond,
		MaxBackoff:          time.Second,
		BreakerWindow:       time.Minute,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  30 * time.Second,
		BreakerHalfOpenMax:  2,
	})
	assert.Equal(t, time.Second, got.Timeout)
	assert.Equal(t, 4, got.Retry.MaxAttempts)
	assert.Equal(t, uint32(5), got.Breaker.MinRequests)
	assert.Equal(t, 0.6, got.Breaker.FailureRatio)
	assert.Equal(t, uint32(2), got.Breaker.HalfOpenMaxRequests)

	assert.Zero(t, ResilienceConfig(nil))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &config.Log{Level: 4, Format: "json", Prefix: "[corebank]"})
	logger.Info("dropped")
	logger.Warn("kept", "trace_id", "t-1")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"trace_id":"t-1"`)
}

func TestCollaboratorsWithoutURLs(t *testing.T) {
	c, closeCache := initVerificationCache(&config.App{}, discard())
	defer closeCache() //nolint: errcheck
	require.IsType(t, &cache.MemoryCache{}, c)

	partner := initPartnerBank(&config.Partner{}, c, discard())
	require.IsType(t, &partnerbank.Cached{}, partner)

	dir := initDirectory(&config.Directory{}, discard())
	require.IsType(t, &directory.Static{}, dir)
	customer, err := dir.Lookup(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, provider.CustomerActive, customer.Status)

	require.IsType(t, &directory.Client{}, initDirectory(&config.Directory{Url: "http://directory.local"}, discard()))
}

func TestInitializeDependencies(t *testing.T) {
	cfg := &config.App{
		Env:        "test",
		Log:        &config.Log{Level: 8, Format: "text"},
		DB:         &config.DB{Url: "sqlite:" + filepath.Join(t.TempDir(), "ledger.db"), AutoMigrate: true},
		EventBus:   &config.EventBus{Driver: "memory"},
		Ledger:     &config.Ledger{BankCode: "COREBANK", LockWaitTimeout: time.Second},
		Resilience: &config.Resilience{MaxAttempts: 2, Timeout: time.Second},
	}

	deps, cleanup, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.Uow)
	assert.NotNil(t, deps.Records)
	assert.NotNil(t, deps.EventBus)
	assert.NotNil(t, deps.PartnerBank)
	assert.NotNil(t, deps.Directory)
	assert.Equal(t, []string{"circuit_breaker", "retry", "time_limit"}, deps.Pipeline.Policies())
}

func TestInitializeDependenciesWithoutDatabase(t *testing.T) {
	_, _, err := InitializeDependencies(&config.App{Log: &config.Log{}, DB: &config.DB{}})
	require.Error(t, err)
}
