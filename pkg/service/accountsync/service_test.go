package accountsync_test

import (
	"context"
	"sync"
	"testing"

	infraeventbus "github.com/amirasaad/corebank/infra/eventbus"
	"github.com/amirasaad/corebank/infra/provider/directory"
	infrarepo "github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/amirasaad/corebank/pkg/resilience"
	"github.com/amirasaad/corebank/pkg/service/accountsync"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/amirasaad/corebank/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SyncTestSuite struct {
	suite.Suite
	svc    *accountsync.Service
	ledger *ledgersvc.Service
	dir    *directory.Static
	bus    *infraeventbus.MemoryEventBus
}

func (s *SyncTestSuite) SetupTest() {
	db := testutils.NewSQLiteDB(s.T())
	uow := infrarepo.NewUoW(db)
	s.ledger = ledgersvc.NewService(uow, testutils.DiscardLogger(), ledgersvc.Config{})
	s.dir = directory.NewStatic(
		provider.Customer{Ref: "CUST-1", Name: "NGUYEN VAN A", Status: provider.CustomerActive},
		provider.Customer{Ref: "CUST-2", Name: "PHAM THI D", Status: provider.CustomerBlocked},
	)
	s.bus = infraeventbus.NewWithMemory(testutils.DiscardLogger())
	pipeline := resilience.NewPipeline(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 1}, testutils.DiscardLogger()))
	s.svc = accountsync.New(uow, s.ledger, s.dir, pipeline, s.bus, testutils.DiscardLogger())
}

func TestSyncTestSuite(t *testing.T) {
	suite.Run(t, new(SyncTestSuite))
}

func (s *SyncTestSuite) req() accountsync.SyncRequest {
	return accountsync.SyncRequest{AccountNumber: "1000000001", CustomerRef: "CUST-1", Currency: "vnd"}
}

func (s *SyncTestSuite) TestSyncCreatesOnce() {
	ctx := context.Background()

	first, err := s.svc.Sync(ctx, s.req())
	s.Require().NoError(err)
	s.False(first.AlreadySynced)
	s.Equal(ledger.VND, first.Currency)
	s.Equal(ledger.StatusActive, first.Status)

	second, err := s.svc.Sync(ctx, s.req())
	s.Require().NoError(err)
	s.True(second.AlreadySynced)
	s.Equal(first.AccountNumber, second.AccountNumber)

	b, err := s.ledger.GetBalance(ctx, "1000000001")
	s.Require().NoError(err)
	s.True(b.Balance.IsZero())

	published := s.bus.Published()
	s.Require().Len(published, 1)
	synced := published[0].(events.AccountSynced)
	s.Equal("CUST-1", synced.CustomerRef)
	s.Equal("CHECKING", synced.AccountType)
}

func (s *SyncTestSuite) TestSyncExistingSkipsDirectory() {
	ctx := context.Background()
	_, err := s.svc.Sync(ctx, s.req())
	s.Require().NoError(err)

	// the customer becoming ineligible does not turn a retry into an error
	s.dir.Put(provider.Customer{Ref: "CUST-1", Status: provider.CustomerInactive})
	res, err := s.svc.Sync(ctx, s.req())
	s.Require().NoError(err)
	s.True(res.AlreadySynced)
}

func (s *SyncTestSuite) TestSyncRejectsIneligibleCustomers() {
	ctx := context.Background()

	req := s.req()
	req.CustomerRef = "CUST-404"
	_, err := s.svc.Sync(ctx, req)
	s.ErrorIs(err, domain.ErrCustomerNotEligible)

	req.CustomerRef = "CUST-2"
	_, err = s.svc.Sync(ctx, req)
	s.ErrorIs(err, domain.ErrCustomerNotEligible)

	_, err = s.ledger.GetAccount(ctx, "1000000001")
	s.ErrorIs(err, domain.ErrAccountNotFound)
	s.Empty(s.bus.Published())
}

func (s *SyncTestSuite) TestSyncValidation() {
	ctx := context.Background()

	req := s.req()
	req.Currency = "XXX"
	_, err := s.svc.Sync(ctx, req)
	s.ErrorIs(err, domain.ErrUnsupportedCurrency)

	req = s.req()
	req.AccountNumber = ""
	_, err = s.svc.Sync(ctx, req)
	s.ErrorIs(err, domain.ErrValidation)

	req = s.req()
	req.Type = "LOAN"
	_, err = s.svc.Sync(ctx, req)
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *SyncTestSuite) TestSyncCreditTerms() {
	ctx := context.Background()
	req := s.req()
	req.Type = ledger.TypeCredit
	req.CreditLimit = decimal.NewFromInt(2000000)

	_, err := s.svc.Sync(ctx, req)
	s.Require().NoError(err)

	acct, err := s.ledger.GetAccount(ctx, "1000000001")
	s.Require().NoError(err)
	s.Equal(ledger.TypeCredit, acct.Type)
	s.True(decimal.NewFromInt(2000000).Equal(acct.Terms.CreditLimit))
	s.True(decimal.NewFromInt(2000000).Equal(acct.Available().Sub(acct.Floor())))
}

func (s *SyncTestSuite) TestConcurrentSyncCreatesOneAccount() {
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.svc.Sync(ctx, s.req())
			if !assert.NoError(s.T(), err) {
				return
			}
			if !res.AlreadySynced {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, created)
	s.Len(s.bus.Published(), 1)
}

func (s *SyncTestSuite) TestUpdateStatus() {
	ctx := context.Background()
	_, err := s.svc.Sync(ctx, s.req())
	s.Require().NoError(err)
	s.bus.ClearPublished()

	res, err := s.svc.UpdateStatus(ctx, "1000000001", ledger.StatusFrozen, "court order")
	s.Require().NoError(err)
	s.True(res.Changed)
	s.Equal(ledger.StatusActive, res.Previous)

	res, err = s.svc.UpdateStatus(ctx, "1000000001", ledger.StatusFrozen, "court order")
	s.Require().NoError(err)
	s.False(res.Changed)

	_, err = s.svc.UpdateStatus(ctx, "1000000001", "ASLEEP", "")
	s.ErrorIs(err, domain.ErrValidation)

	published := s.bus.Published()
	s.Require().Len(published, 1)
	changed := published[0].(events.AccountStatusChanged)
	s.Equal("FROZEN", changed.Current)
	s.Equal("court order", changed.Reason)
}

func TestSyncWithoutDirectory(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	uow := infrarepo.NewUoW(db)
	svc := accountsync.New(uow, ledgersvc.NewService(uow, nil, ledgersvc.Config{}), nil, nil, nil, testutils.DiscardLogger())

	res, err := svc.Sync(context.Background(), accountsync.SyncRequest{
		AccountNumber: "1000000009", CustomerRef: "anyone", Currency: "USD",
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadySynced)
	assert.Equal(t, ledger.USD, res.Currency)
}
