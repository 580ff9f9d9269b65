package ledger

import (
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDormant Status = "DORMANT"
	StatusFrozen  Status = "FROZEN"
	StatusBlocked Status = "BLOCKED"
	StatusClosed  Status = "CLOSED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDormant, StatusFrozen, StatusBlocked, StatusClosed:
		return true
	}
	return false
}

// Type selects the account variant.
type Type string

const (
	TypeChecking Type = "CHECKING"
	TypeSavings  Type = "SAVINGS"
	// TypeCredit is the overdraft class: its available balance may go down to -CreditLimit.
	TypeCredit Type = "CREDIT"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeChecking, TypeSavings, TypeCredit:
		return true
	}
	return false
}

// Terms holds the type-specific fields of an account. Only the field that
// belongs to the account's Type is meaningful.
type Terms struct {
	CreditLimit  decimal.Decimal
	InterestRate decimal.Decimal
}

// Account is the ledger's view of a bank account.
//
// Invariants:
//   - HoldAmount >= 0
//   - Balance - HoldAmount >= Floor() after every committed mutation
//   - CLOSED is terminal
type Account struct {
	AccountNumber string
	CustomerRef   string
	Currency      Currency
	Type          Type
	Terms         Terms
	Balance       decimal.Decimal
	HoldAmount    decimal.Decimal
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Available returns Balance - HoldAmount.
func (a *Account) Available() decimal.Decimal {
	return a.Balance.Sub(a.HoldAmount)
}

// Floor is the lowest value Available may reach.
func (a *Account) Floor() decimal.Decimal {
	if a.Type == TypeCredit {
		return a.Terms.CreditLimit.Neg()
	}
	return decimal.Zero
}

// CanDebit checks the status gate and the floor for a debit of amount.
func (a *Account) CanDebit(amount decimal.Decimal) error {
	if a.Status != StatusActive {
		return domain.ErrAccountNotActive.WithDetail("account %s is %s and cannot be debited", a.AccountNumber, a.Status)
	}
	if a.Available().Sub(amount).LessThan(a.Floor()) {
		return domain.ErrInsufficientBalance.WithDetail(
			"account %s available %s is insufficient for %s", a.AccountNumber, a.Available(), amount)
	}
	return nil
}

// CanCredit checks the status gate for a credit.
func (a *Account) CanCredit() error {
	switch a.Status {
	case StatusActive, StatusDormant:
		return nil
	}
	return domain.ErrAccountNotActive.WithDetail("account %s is %s and cannot be credited", a.AccountNumber, a.Status)
}

// CanLock checks that amount can be held. A hold never dips into overdraft.
func (a *Account) CanLock(amount decimal.Decimal) error {
	if a.Status != StatusActive {
		return domain.ErrAccountNotActive.WithDetail("account %s is %s and cannot hold funds", a.AccountNumber, a.Status)
	}
	if a.Available().LessThan(amount) {
		return domain.ErrInsufficientBalance.WithDetail(
			"account %s available %s is insufficient to lock %s", a.AccountNumber, a.Available(), amount)
	}
	return nil
}

// Debit applies a validated debit and returns the previous balance.
func (a *Account) Debit(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := a.CanDebit(amount); err != nil {
		return decimal.Zero, err
	}
	prev := a.Balance
	a.Balance = a.Balance.Sub(amount)
	return prev, nil
}

// Credit applies a validated credit and returns the previous balance.
func (a *Account) Credit(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := a.CanCredit(); err != nil {
		return decimal.Zero, err
	}
	prev := a.Balance
	a.Balance = a.Balance.Add(amount)
	return prev, nil
}

// Hold increases HoldAmount and returns the previous available balance.
func (a *Account) Hold(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := a.CanLock(amount); err != nil {
		return decimal.Zero, err
	}
	prev := a.Available()
	a.HoldAmount = a.HoldAmount.Add(amount)
	return prev, nil
}

// Release decreases HoldAmount and returns the previous available balance.
func (a *Account) Release(amount decimal.Decimal) decimal.Decimal {
	prev := a.Available()
	a.HoldAmount = a.HoldAmount.Sub(amount)
	if a.HoldAmount.IsNegative() {
		a.HoldAmount = decimal.Zero
	}
	return prev
}

var transitions = map[Status][]Status{
	StatusActive:  {StatusDormant, StatusFrozen, StatusBlocked, StatusClosed},
	StatusDormant: {StatusActive, StatusFrozen, StatusBlocked, StatusClosed},
	StatusFrozen:  {StatusActive, StatusBlocked, StatusClosed},
	StatusBlocked: {StatusActive, StatusFrozen, StatusClosed},
}

// TransitionTo moves the account to next. Closing requires a zero balance and
// no outstanding holds.
func (a *Account) TransitionTo(next Status) error {
	if !next.Valid() {
		return domain.ErrValidation.WithDetail("unknown account status %q", next)
	}
	if a.Status == next {
		return nil
	}
	allowed := false
	for _, s := range transitions[a.Status] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.ErrInvalidStatusTransition.WithDetail("account %s cannot move from %s to %s", a.AccountNumber, a.Status, next)
	}
	if next == StatusClosed && (!a.Balance.IsZero() || !a.HoldAmount.IsZero()) {
		return domain.ErrInvalidStatusTransition.WithDetail(
			"account %s must have zero balance and no holds to close (balance %s, hold %s)",
			a.AccountNumber, a.Balance, a.HoldAmount)
	}
	a.Status = next
	return nil
}
