package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newAccount(balance, hold string) *Account {
	return &Account{
		AccountNumber: "1000000001",
		Currency:      VND,
		Type:          TypeChecking,
		Balance:       dec(balance),
		HoldAmount:    dec(hold),
		Status:        StatusActive,
	}
}

func TestAccount_AvailableExcludesHolds(t *testing.T) {
	a := newAccount("500000", "0")
	_, err := a.Hold(dec("200000"))
	require.NoError(t, err)
	assert.True(t, a.Available().Equal(dec("300000")))

	err = a.CanDebit(dec("350000"))
	assert.True(t, errors.Is(err, domain.ErrInsufficientBalance))
}

func TestAccount_StatusGates(t *testing.T) {
	tests := []struct {
		status    Status
		canDebit  bool
		canCredit bool
	}{
		{StatusActive, true, true},
		{StatusDormant, false, true},
		{StatusFrozen, false, false},
		{StatusBlocked, false, false},
		{StatusClosed, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			a := newAccount("100", "0")
			a.Status = tt.status
			assert.Equal(t, tt.canDebit, a.CanDebit(dec("1")) == nil)
			assert.Equal(t, tt.canCredit, a.CanCredit() == nil)
			if !tt.canDebit {
				assert.ErrorIs(t, a.CanDebit(dec("1")), domain.ErrAccountNotActive)
			}
		})
	}
}

func TestAccount_CreditFloor(t *testing.T) {
	a := newAccount("0", "0")
	a.Type = TypeCredit
	a.Terms.CreditLimit = dec("1000")

	_, err := a.Debit(dec("1000"))
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(dec("-1000")))

	_, err = a.Debit(dec("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// holds never use the overdraft
	b := newAccount("0", "0")
	b.Type = TypeCredit
	b.Terms.CreditLimit = dec("1000")
	_, err = b.Hold(dec("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestAccount_TransitionTo(t *testing.T) {
	a := newAccount("0", "0")
	require.NoError(t, a.TransitionTo(StatusDormant))
	require.NoError(t, a.TransitionTo(StatusActive))
	require.NoError(t, a.TransitionTo(StatusClosed))
	assert.ErrorIs(t, a.TransitionTo(StatusActive), domain.ErrInvalidStatusTransition)

	b := newAccount("10", "0")
	assert.ErrorIs(t, b.TransitionTo(StatusClosed), domain.ErrInvalidStatusTransition)
	assert.ErrorIs(t, b.TransitionTo(Status("GONE")), domain.ErrValidation)
}

func TestCurrency_ValidateAmount(t *testing.T) {
	assert.NoError(t, VND.ValidateAmount(dec("100000")))
	assert.ErrorIs(t, VND.ValidateAmount(dec("100.5")), domain.ErrInvalidAmount)
	assert.NoError(t, USD.ValidateAmount(dec("10.25")))
	assert.ErrorIs(t, USD.ValidateAmount(dec("10.255")), domain.ErrInvalidAmount)
	assert.ErrorIs(t, USD.ValidateAmount(dec("0")), domain.ErrInvalidAmount)
	assert.NoError(t, USD.ValidateFee(decimal.Zero))

	_, err := ParseCurrency("xyz")
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
	c, err := ParseCurrency(" jpy ")
	require.NoError(t, err)
	assert.Equal(t, int32(0), c.Precision())
}

func TestLockOrder(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, LockOrder("B", "A"))
	assert.Equal(t, []string{"A", "B"}, LockOrder("A", "B"))
	assert.Equal(t, []string{"A", "B", "F"}, LockOrder("F", "B", "A", "", "B"))
}

func TestTransaction_Transition(t *testing.T) {
	now := time.Now()
	tx := NewPendingTransaction("tx-1", TxTypeInternal, "A", "B", dec("10"), decimal.Zero)
	require.NoError(t, tx.Transition(TxProcessing, now))
	require.NoError(t, tx.Transition(TxCompleted, now))
	assert.NotNil(t, tx.CompletedAt)
	assert.ErrorIs(t, tx.Transition(TxFailed, now), domain.ErrInvalidStatusTransition)
	require.NoError(t, tx.Transition(TxReversed, now))
	assert.True(t, tx.Status.Terminal())

	failed := NewPendingTransaction("tx-2", TxTypeInternal, "A", "B", dec("10"), decimal.Zero)
	require.NoError(t, failed.Fail(domain.ErrInsufficientBalance, now))
	assert.Equal(t, domain.CodeInsufficientBalance, failed.FailureCode)
	assert.ErrorIs(t, failed.FailureError(), domain.ErrInsufficientBalance)

	short := NewPendingTransaction("tx-3", TxTypeInternal, "A", "B", dec("10"), decimal.Zero)
	require.NoError(t, short.Fail(domain.ErrInsufficientBalance.WithDetail("account A available 5 is insufficient for 10"), now))
	assert.Equal(t, "account A available 5 is insufficient for 10", short.FailureReason)
	assert.Equal(t, "INSUFFICIENT_BALANCE: account A available 5 is insufficient for 10", short.FailureError().Error())
}
