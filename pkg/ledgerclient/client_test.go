package ledgerclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/corebank/infra/eventbus"
	infrarepo "github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/ledgerclient"
	"github.com/amirasaad/corebank/pkg/middleware"
	"github.com/amirasaad/corebank/pkg/resilience"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/amirasaad/corebank/pkg/service/transfer"
	pkgtestutils "github.com/amirasaad/corebank/pkg/testutils"
	"github.com/amirasaad/corebank/webapi/testutils"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type remote struct {
	env    *testutils.Env
	client *ledgerclient.Client
}

func newRemote(t *testing.T) remote {
	t.Helper()
	db := pkgtestutils.NewSQLiteDB(t)
	env := testutils.New(t, db, testutils.WithJwtSecret(testutils.JwtSecret))
	pkgtestutils.SeedAccount(t, db, "1000000001", "VND", 500000)
	pkgtestutils.SeedAccount(t, db, "1000000002", "VND", 0)

	srv := httptest.NewServer(adaptor.FiberApp(env.App))
	t.Cleanup(srv.Close)

	token, err := middleware.IssueToken(env.Config.Auth.Jwt, "transfer-orchestrator")
	require.NoError(t, err)
	return remote{env: env, client: ledgerclient.New(srv.URL, token, 5*time.Second, pkgtestutils.DiscardLogger())}
}

func TestMovements(t *testing.T) {
	r := newRemote(t)
	ctx := context.Background()

	res, err := r.client.Credit(ctx, ledgersvc.MovementRequest{
		AccountNumber: "1000000002", Amount: decimal.NewFromInt(700), Reference: "cr-1",
	})
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(700)))
	assert.False(t, res.Replayed)

	res, err = r.client.Credit(ctx, ledgersvc.MovementRequest{
		AccountNumber: "1000000002", Amount: decimal.NewFromInt(700), Reference: "cr-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Replayed)

	_, err = r.client.Debit(ctx, ledgersvc.MovementRequest{
		AccountNumber: "1000000002", Amount: decimal.NewFromInt(701), Reference: "db-1",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, domain.KindBusiness, domain.KindOf(err))

	_, err = r.client.GetBalance(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	bal, err := r.client.GetBalance(ctx, "1000000002")
	require.NoError(t, err)
	assert.Equal(t, ledger.Currency("VND"), bal.Currency)
	assert.True(t, bal.AvailableBalance.Equal(decimal.NewFromInt(700)))
}

func TestTransfers(t *testing.T) {
	r := newRemote(t)
	ctx := context.Background()
	req := ledgersvc.TransferRequest{
		Source: "1000000001", Destination: "1000000002",
		Amount: decimal.NewFromInt(100000), Fee: decimal.NewFromInt(500), Reference: "tx-2",
	}

	first, err := r.client.ExecuteTransfer(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxCompleted, first.Transaction.Status)
	assert.True(t, first.Transaction.Source.BalanceAfter.Equal(decimal.NewFromInt(399500)))

	again, err := r.client.ExecuteTransfer(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Transaction.ID, again.Transaction.ID)

	got, err := r.client.GetTransaction(ctx, "tx-2")
	require.NoError(t, err)
	assert.Equal(t, first.Transaction.ID, got.ID)

	rev, err := r.client.ReverseTransfer(ctx, ledgersvc.ReverseRequest{OriginalReference: "tx-2", Reason: "dispute"})
	require.NoError(t, err)
	require.NotNil(t, rev.Transaction.ReversalOf)
	assert.Equal(t, first.Transaction.ID, *rev.Transaction.ReversalOf)

	_, err = r.client.GetTransaction(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestOrchestratorOverHTTP(t *testing.T) {
	r := newRemote(t)
	logger := pkgtestutils.DiscardLogger()
	bus := infraeventbus.NewWithMemory(logger)
	svc := transfer.New(
		r.client,
		infrarepo.NewTransactionRepository(r.env.DB),
		r.env.Partner,
		resilience.NewPipeline(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}, logger)),
		bus,
		logger,
		transfer.Config{BankCode: testutils.BankCode},
	)

	res, err := svc.Transfer(context.Background(), transfer.Request{
		TraceID: "remote-1", Source: "1000000001", Destination: "1000000002", Amount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.TxCompleted, res.Transaction.Status)
	assert.Len(t, bus.Published(), 1)
}

func TestServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *domain.Error
	}{
		{"transient problem", http.StatusServiceUnavailable, `{"code":"SERVICE_UNAVAILABLE","detail":"try later"}`, domain.ErrServiceUnavailable},
		{"lock timeout", http.StatusGatewayTimeout, `{"code":"LOCK_TIMEOUT"}`, domain.ErrLockTimeout},
		{"circuit open", http.StatusServiceUnavailable, `{"code":"CIRCUIT_OPEN"}`, domain.ErrCircuitOpen},
		{"internal problem", http.StatusInternalServerError, `{"code":"INTERNAL"}`, domain.ErrUpstream},
		{"not a problem", http.StatusBadGateway, `<html>bad gateway</html>`, domain.ErrUpstream},
		{"client error without code", http.StatusTeapot, `{}`, domain.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := ledgerclient.New(srv.URL, "", time.Second, pkgtestutils.DiscardLogger())
			_, err := client.GetBalance(context.Background(), "1000000001")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := ledgerclient.New(url, "", time.Second, pkgtestutils.DiscardLogger())
	_, err := client.GetBalance(context.Background(), "1000000001")
	require.ErrorIs(t, err, domain.ErrConnectionFailure)
	assert.True(t, domain.IsTransient(err))
}
