package account

import (
	"time"

	"github.com/amirasaad/corebank/pkg/service/accountsync"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/shopspring/decimal"
)

// SyncAccountRequest carries the metadata of an account opened by the
// account management system.
type SyncAccountRequest struct {
	AccountNumber string          `json:"accountNumber" validate:"required,max=34"`
	CustomerRef   string          `json:"customerRef" validate:"required,max=64"`
	Currency      string          `json:"currency" validate:"required,len=3,uppercase,alpha"`
	Type          string          `json:"type" validate:"omitempty,oneof=CHECKING SAVINGS CREDIT"`
	CreditLimit   decimal.Decimal `json:"creditLimit"`
	InterestRate  decimal.Decimal `json:"interestRate"`
}

// SyncAccountResponse identifies the ledger account.
type SyncAccountResponse struct {
	AccountNumber string    `json:"accountNumber"`
	CustomerRef   string    `json:"customerRef"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	AlreadySynced bool      `json:"alreadySynced"`
}

func toSyncResponse(r accountsync.SyncResult) SyncAccountResponse {
	return SyncAccountResponse{
		AccountNumber: r.AccountNumber,
		CustomerRef:   r.CustomerRef,
		Currency:      string(r.Currency),
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		AlreadySynced: r.AlreadySynced,
	}
}

// UpdateStatusRequest moves an account to another lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE DORMANT FROZEN BLOCKED CLOSED"`
	Reason string `json:"reason" validate:"max=255"`
}

// StatusResponse reports the transition.
type StatusResponse struct {
	AccountNumber  string `json:"accountNumber"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"status"`
	Changed        bool   `json:"changed"`
}

func toStatusResponse(r ledgersvc.StatusResult) StatusResponse {
	return StatusResponse{
		AccountNumber:  r.AccountNumber,
		PreviousStatus: string(r.Previous),
		Status:         string(r.Current),
		Changed:        r.Changed,
	}
}
