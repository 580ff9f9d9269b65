package transfer_test

import (
	"context"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/corebank/infra/eventbus"
	"github.com/amirasaad/corebank/infra/provider/partnerbank"
	infrarepo "github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/amirasaad/corebank/pkg/provider/mocks"
	"github.com/amirasaad/corebank/pkg/resilience"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/amirasaad/corebank/pkg/service/transfer"
	"github.com/amirasaad/corebank/pkg/testutils"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownBank    = "CORE"
	feeAccount = "9999999999"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type env struct {
	svc     *transfer.Service
	ledger  *ledgersvc.Service
	records interface {
		GetByTraceID(ctx context.Context, traceID string) (*ledger.Transaction, error)
	}
	bus *infraeventbus.MemoryEventBus
	db  *gorm.DB
}

// flakyLedger loses the answer of the first ExecuteTransfer after it committed.
type flakyLedger struct {
	*ledgersvc.Service
	lost bool
}

func (f *flakyLedger) ExecuteTransfer(ctx context.Context, req ledgersvc.TransferRequest) (ledgersvc.TransferResult, error) {
	res, err := f.Service.ExecuteTransfer(ctx, req)
	if !f.lost {
		f.lost = true
		return ledgersvc.TransferResult{}, domain.ErrConnectionFailure.WithDetail("connection reset")
	}
	return res, err
}

func fastPipeline() *resilience.Pipeline {
	return resilience.NewPipeline(resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
	}, testutils.DiscardLogger()))
}

func retryingPipeline() *resilience.Pipeline {
	return resilience.NewPipeline(resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, testutils.DiscardLogger()))
}

// flakyReversal loses the answer of the first ReverseTransfer after it committed.
type flakyReversal struct {
	*ledgersvc.Service
	lost bool
}

func (f *flakyReversal) ReverseTransfer(ctx context.Context, req ledgersvc.ReverseRequest) (ledgersvc.TransferResult, error) {
	res, err := f.Service.ReverseTransfer(ctx, req)
	if !f.lost {
		f.lost = true
		return ledgersvc.TransferResult{}, domain.ErrTimeout.WithDetail("ledger.reverseTransfer exceeded 5s")
	}
	return res, err
}

func newEnv(t *testing.T, partner provider.PartnerBank, wrap func(*ledgersvc.Service) transfer.Ledger) env {
	t.Helper()
	return newEnvWithPipeline(t, partner, wrap, fastPipeline())
}

func newEnvWithPipeline(
	t *testing.T,
	partner provider.PartnerBank,
	wrap func(*ledgersvc.Service) transfer.Ledger,
	pipeline *resilience.Pipeline,
) env {
	t.Helper()
	db := testutils.NewSQLiteDB(t)
	l := ledgersvc.NewService(infrarepo.NewUoW(db), testutils.DiscardLogger(), ledgersvc.Config{FeeAccount: feeAccount})
	var port transfer.Ledger = l
	if wrap != nil {
		port = wrap(l)
	}
	records := infrarepo.NewTransactionRepository(db)
	bus := infraeventbus.NewWithMemory(testutils.DiscardLogger())
	svc := transfer.New(port, records, partner, pipeline, bus, testutils.DiscardLogger(),
		transfer.Config{BankCode: ownBank})

	testutils.SeedAccount(t, db, "1000000001", ledger.VND, 1000000)
	testutils.SeedAccount(t, db, "1000000002", ledger.VND, 0)
	testutils.SeedAccount(t, db, feeAccount, ledger.VND, 0)
	return env{svc: svc, ledger: l, records: records, bus: bus, db: db}
}

func (e env) balance(t *testing.T, account string) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.GetBalance(context.Background(), account)
	require.NoError(t, err)
	return b.Balance
}

func (e env) eventTypes() []string {
	var out []string
	for _, evt := range e.bus.Published() {
		out = append(out, evt.Type())
	}
	return out
}

func internalReq(traceID string, amount string) transfer.Request {
	return transfer.Request{
		TraceID:     traceID,
		Source:      "1000000001",
		Destination: "1000000002",
		Amount:      dec(amount),
		Fee:         dec("1000"),
		Description: "rent",
	}
}

func interbankReq(traceID, destination string) transfer.Request {
	return transfer.Request{
		TraceID:             traceID,
		Source:              "1000000001",
		Destination:         destination,
		DestinationBankCode: "VCB",
		Amount:              dec("200000"),
		Fee:                 dec("5000"),
	}
}

func TestInternalTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("completes once and replays", func(t *testing.T) {
		e := newEnv(t, partnerbank.NewStub(), nil)

		res, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
		require.NoError(t, err)
		assert.False(t, res.Replayed)
		assert.Equal(t, ledger.TxCompleted, res.Transaction.Status)
		assert.Equal(t, ledger.TxTypeInternal, res.Transaction.Type)
		assert.True(t, dec("899000").Equal(e.balance(t, "1000000001")))
		assert.True(t, dec("100000").Equal(e.balance(t, "1000000002")))
		assert.True(t, dec("1000").Equal(e.balance(t, feeAccount)))

		again, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.Equal(t, res.Transaction.ID, again.Transaction.ID)
		assert.True(t, dec("899000").Equal(e.balance(t, "1000000001")))

		assert.Equal(t, []string{events.EventTypeTransferCompleted.String()}, e.eventTypes())
		completed := e.bus.Published()[0].(events.TransferCompleted)
		assert.Equal(t, "tx-1", completed.CorrelationID)
		assert.Equal(t, "VND", completed.Currency)
	})

	t.Run("reused trace id with another payload conflicts", func(t *testing.T) {
		e := newEnv(t, partnerbank.NewStub(), nil)
		_, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
		require.NoError(t, err)

		_, err = e.svc.Transfer(ctx, internalReq("tx-1", "100001"))
		require.ErrorIs(t, err, domain.ErrIdempotencyConflict)
		assert.True(t, dec("899000").Equal(e.balance(t, "1000000001")))
	})

	t.Run("same account is refused without a record", func(t *testing.T) {
		e := newEnv(t, partnerbank.NewStub(), nil)
		req := internalReq("tx-1", "100000")
		req.Destination = req.Source

		_, err := e.svc.Transfer(ctx, req)
		require.ErrorIs(t, err, domain.ErrSameAccount)
		_, err = e.records.GetByTraceID(ctx, "tx-1")
		require.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("rejection is recorded and published once", func(t *testing.T) {
		e := newEnv(t, partnerbank.NewStub(), nil)

		res, err := e.svc.Transfer(ctx, internalReq("tx-1", "5000000"))
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)
		require.NotNil(t, res.Transaction)
		assert.Equal(t, ledger.TxFailed, res.Transaction.Status)
		assert.Equal(t, domain.CodeInsufficientBalance, res.Transaction.FailureCode)

		again, err := e.svc.Transfer(ctx, internalReq("tx-1", "5000000"))
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.True(t, again.Replayed)

		assert.Equal(t, []string{events.EventTypeTransferFailed.String()}, e.eventTypes())
		assert.True(t, dec("1000000").Equal(e.balance(t, "1000000001")))
	})

	t.Run("lost answer is recovered from the ledger", func(t *testing.T) {
		e := newEnv(t, partnerbank.NewStub(), func(l *ledgersvc.Service) transfer.Ledger {
			return &flakyLedger{Service: l}
		})

		res, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
		require.NoError(t, err)
		assert.Equal(t, ledger.TxCompleted, res.Transaction.Status)
		assert.True(t, dec("899000").Equal(e.balance(t, "1000000001")))
		assert.Equal(t, []string{events.EventTypeTransferCompleted.String()}, e.eventTypes())
	})

	t.Run("answer lost before a retry still completes once", func(t *testing.T) {
		flaky := &flakyLedger{}
		e := newEnvWithPipeline(t, partnerbank.NewStub(), func(l *ledgersvc.Service) transfer.Ledger {
			flaky.Service = l
			return flaky
		}, retryingPipeline())

		res, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
		require.NoError(t, err)
		assert.True(t, flaky.lost)
		assert.False(t, res.Replayed)
		assert.Equal(t, ledger.TxCompleted, res.Transaction.Status)
		assert.True(t, dec("899000").Equal(e.balance(t, "1000000001")))
		assert.Equal(t, []string{events.EventTypeTransferCompleted.String()}, e.eventTypes())

		again, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.Len(t, e.eventTypes(), 1)
	})

	t.Run("invalid input never opens a record", func(t *testing.T) {
		e := newEnv(t, partnerbank.NewStub(), nil)
		req := internalReq("tx-1", "0")

		_, err := e.svc.Transfer(ctx, req)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = e.records.GetByTraceID(ctx, "tx-1")
		require.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})
}

func TestInterbankTransfer(t *testing.T) {
	ctx := context.Background()

	newStub := func() *partnerbank.Stub {
		s := partnerbank.NewStub()
		s.AddAccount("VCB", "2000000001", "TRAN THI B", true)
		s.AddAccount("VCB", "2000000002", "LE VAN C", false)
		return s
	}

	t.Run("settled", func(t *testing.T) {
		stub := newStub()
		e := newEnv(t, stub, nil)

		res, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.NoError(t, err)
		rec := res.Transaction
		assert.Equal(t, ledger.TxCompleted, rec.Status)
		assert.Equal(t, ledger.TxTypeInterbank, rec.Type)
		assert.Equal(t, "VCB", rec.DestinationBankCode)
		assert.Equal(t, ledger.VND, rec.Currency)
		assert.True(t, dec("795000").Equal(rec.Source.BalanceAfter))
		assert.True(t, dec("795000").Equal(e.balance(t, "1000000001")))
		require.Len(t, stub.Settlements(), 1)

		stored, err := e.records.GetByTraceID(ctx, "ib-1")
		require.NoError(t, err)
		assert.Equal(t, ledger.TxCompleted, stored.Status)

		again, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.True(t, dec("795000").Equal(e.balance(t, "1000000001")))
		assert.Equal(t, []string{events.EventTypeTransferCompleted.String()}, e.eventTypes())
	})

	t.Run("unknown beneficiary fails before any debit", func(t *testing.T) {
		stub := newStub()
		e := newEnv(t, stub, nil)

		res, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000404"))
		require.ErrorIs(t, err, domain.ErrDestinationNotFound)
		assert.Equal(t, ledger.TxFailed, res.Transaction.Status)
		assert.True(t, dec("1000000").Equal(e.balance(t, "1000000001")))
		assert.Empty(t, stub.Settlements())
		assert.Equal(t, []string{events.EventTypeTransferFailed.String()}, e.eventTypes())
	})

	t.Run("rejected settlement is compensated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		partner := mocks.NewMockPartnerBank(ctrl)
		partner.EXPECT().VerifyAccount(gomock.Any(), "VCB", "2000000001").
			Return(&provider.AccountVerification{BankCode: "VCB", AccountNumber: "2000000001", Exists: true, Active: true}, nil)
		partner.EXPECT().Settle(gomock.Any(), gomock.Any()).
			Return(&provider.Settlement{Reference: "ib-1", Status: provider.SettlementRejected, Reason: "beneficiary closed"}, nil)
		e := newEnv(t, partner, nil)

		res, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.ErrorIs(t, err, domain.ErrPartnerRejected)
		rec := res.Transaction
		assert.Equal(t, ledger.TxFailed, rec.Status)
		assert.Equal(t, "ib-1:reversal", rec.CompensationReference)
		assert.True(t, dec("1000000").Equal(e.balance(t, "1000000001")))

		audit, err := e.ledger.AuditByReference(ctx, "ib-1:reversal")
		require.NoError(t, err)
		require.Len(t, audit, 1)
		assert.Equal(t, ledger.OpCredit, audit[0].OperationType)

		failed := e.bus.Published()[0].(events.TransferFailed)
		assert.Equal(t, "ib-1:reversal", failed.CompensationReference)
		assert.Equal(t, string(domain.CodePartnerRejected), failed.FailureCode)

		// the FAILED record answers further submissions without calling the partner
		again, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.ErrorIs(t, err, domain.ErrPartnerRejected)
		assert.True(t, again.Replayed)
	})

	t.Run("unknown settlement outcome is resolved by status query", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		partner := mocks.NewMockPartnerBank(ctrl)
		partner.EXPECT().VerifyAccount(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&provider.AccountVerification{Exists: true, Active: true}, nil)
		gomock.InOrder(
			partner.EXPECT().Settle(gomock.Any(), gomock.Any()).Return(nil, domain.ErrTimeout),
			partner.EXPECT().SettlementStatus(gomock.Any(), "ib-1").
				Return(&provider.Settlement{Reference: "ib-1", Status: provider.SettlementSettled}, nil),
		)
		e := newEnv(t, partner, nil)

		res, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.NoError(t, err)
		assert.Equal(t, ledger.TxCompleted, res.Transaction.Status)
		assert.True(t, dec("795000").Equal(e.balance(t, "1000000001")))
	})

	t.Run("unconfirmed settlement stays processing until resubmitted", func(t *testing.T) {
		stub := newStub()
		stub.FailNext("Settle", domain.ErrTimeout)
		stub.FailNext("SettlementStatus", domain.ErrConnectionFailure)
		e := newEnv(t, stub, nil)

		res, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.ErrorIs(t, err, domain.ErrServiceUnavailable)
		assert.True(t, domain.IsTransient(err))
		assert.Equal(t, ledger.TxProcessing, res.Transaction.Status)
		assert.True(t, dec("795000").Equal(e.balance(t, "1000000001")))
		assert.Empty(t, e.bus.Published())

		stored, err := e.records.GetByTraceID(ctx, "ib-1")
		require.NoError(t, err)
		assert.Equal(t, ledger.TxProcessing, stored.Status)

		res, err = e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.NoError(t, err)
		assert.Equal(t, ledger.TxCompleted, res.Transaction.Status)
		// the debit was replayed, not repeated
		assert.True(t, dec("795000").Equal(e.balance(t, "1000000001")))
		assert.Len(t, stub.Settlements(), 1)
	})

	t.Run("unavailable verification leaves the record pending", func(t *testing.T) {
		stub := newStub()
		stub.FailNext("VerifyAccount", domain.ErrUpstream)
		e := newEnv(t, stub, nil)

		res, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.Error(t, err)
		assert.True(t, domain.IsTransient(err))
		assert.Equal(t, ledger.TxPending, res.Transaction.Status)
		assert.True(t, dec("1000000").Equal(e.balance(t, "1000000001")))

		res, err = e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.NoError(t, err)
		assert.Equal(t, ledger.TxCompleted, res.Transaction.Status)
	})

	t.Run("own bank code is an internal transfer", func(t *testing.T) {
		e := newEnv(t, partnerbank.NewStub(), nil)
		req := internalReq("tx-1", "100000")
		req.DestinationBankCode = ownBank

		res, err := e.svc.Transfer(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, ledger.TxTypeInternal, res.Transaction.Type)
	})

	t.Run("resubmission as internal conflicts", func(t *testing.T) {
		e := newEnv(t, newStub(), nil)
		_, err := e.svc.Transfer(ctx, interbankReq("ib-1", "2000000001"))
		require.NoError(t, err)

		req := interbankReq("ib-1", "2000000001")
		req.DestinationBankCode = ""
		_, err = e.svc.Transfer(ctx, req)
		require.ErrorIs(t, err, domain.ErrIdempotencyConflict)
	})
}

func TestReverse(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, partnerbank.NewStub(), nil)

	orig, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
	require.NoError(t, err)

	res, err := e.svc.Reverse(ctx, "tx-1", "customer dispute")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, ledger.TxTypeReversal, res.Transaction.Type)
	assert.True(t, dec("1000000").Equal(e.balance(t, "1000000001")))
	assert.True(t, dec("0").Equal(e.balance(t, "1000000002")))

	again, err := e.svc.Reverse(ctx, "tx-1", "customer dispute")
	require.NoError(t, err)
	assert.True(t, again.Replayed)

	published := e.bus.Published()
	require.Len(t, published, 2)
	reversed := published[1].(events.TransferReversed)
	assert.Equal(t, orig.Transaction.ID, reversed.OriginalTransactionID)
	assert.Equal(t, "tx-1:reversal", reversed.ReversalReference)
	assert.Equal(t, "customer dispute", reversed.Reason)

	_, err = e.svc.Reverse(ctx, "", "")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.svc.Reverse(ctx, "tx-404", "")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestReverseAnswerLostBeforeRetry(t *testing.T) {
	ctx := context.Background()
	e := newEnvWithPipeline(t, partnerbank.NewStub(), func(l *ledgersvc.Service) transfer.Ledger {
		return &flakyReversal{Service: l}
	}, retryingPipeline())

	_, err := e.svc.Transfer(ctx, internalReq("tx-1", "100000"))
	require.NoError(t, err)

	res, err := e.svc.Reverse(ctx, "tx-1", "customer dispute")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.True(t, dec("1000000").Equal(e.balance(t, "1000000001")))
	assert.Equal(t, []string{
		events.EventTypeTransferCompleted.String(),
		events.EventTypeTransferReversed.String(),
	}, e.eventTypes())

	again, err := e.svc.Reverse(ctx, "tx-1", "customer dispute")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Len(t, e.eventTypes(), 2)
}
