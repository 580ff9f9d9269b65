package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LockType categorizes a hold.
type LockType string

const (
	LockTypeSavings    LockType = "SAVINGS"
	LockTypeCollateral LockType = "COLLATERAL"
	LockTypeHold       LockType = "HOLD"
)

// Valid reports whether t is a known lock type.
func (t LockType) Valid() bool {
	switch t {
	case LockTypeSavings, LockTypeCollateral, LockTypeHold:
		return true
	}
	return false
}

// LockStatus is the state of a FundLock.
type LockStatus string

const (
	LockStatusLocked   LockStatus = "LOCKED"
	LockStatusReleased LockStatus = "RELEASED"
)

// FundLock is a reservation against an account's balance.
// The sum of LockedAmount over LOCKED rows equals the account's HoldAmount.
type FundLock struct {
	LockID        uuid.UUID
	AccountNumber string
	LockedAmount  decimal.Decimal
	LockType      LockType
	ReferenceID   string
	Status        LockStatus
	Description   string
	LockedAt      time.Time
	ReleasedAt    *time.Time
	ReleaseReason string
}

// NewFundLock builds a LOCKED lock.
func NewFundLock(accountNumber string, amount decimal.Decimal, lockType LockType, referenceID, description string, now time.Time) *FundLock {
	return &FundLock{
		LockID:        uuid.New(),
		AccountNumber: accountNumber,
		LockedAmount:  amount,
		LockType:      lockType,
		ReferenceID:   referenceID,
		Status:        LockStatusLocked,
		Description:   description,
		LockedAt:      now,
	}
}

// MarkReleased transitions the lock to RELEASED.
func (l *FundLock) MarkReleased(reason string, now time.Time) {
	l.Status = LockStatusReleased
	l.ReleaseReason = reason
	l.ReleasedAt = &now
}
