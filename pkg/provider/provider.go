// Package provider defines the external collaborators the core banking
// services consume: the partner bank gateway used for interbank transfers and
// the customer directory consulted when accounts are synced.
package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountVerification is the partner bank's answer about a beneficiary account.
type AccountVerification struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
	HolderName    string `json:"holderName,omitempty"`
	Exists        bool   `json:"exists"`
	Active        bool   `json:"active"`
}

// Usable reports whether funds can be sent to the account.
func (v *AccountVerification) Usable() bool {
	return v != nil && v.Exists && v.Active
}

// SettlementRequest asks the partner bank to credit one of its accounts.
// Reference is our transaction reference; the partner treats it as an
// idempotency key.
type SettlementRequest struct {
	Reference          string          `json:"reference"`
	SourceAccount      string          `json:"sourceAccount"`
	DestinationBank    string          `json:"destinationBankCode"`
	DestinationAccount string          `json:"destinationAccount"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Description        string          `json:"description,omitempty"`
}

// SettlementStatus is the partner-side state of a settlement.
type SettlementStatus string

const (
	SettlementPending  SettlementStatus = "PENDING"
	SettlementSettled  SettlementStatus = "SETTLED"
	SettlementRejected SettlementStatus = "REJECTED"
	// SettlementNotFound means the partner never received the request.
	SettlementNotFound SettlementStatus = "NOT_FOUND"
)

// Settlement is the partner's view of one settlement.
type Settlement struct {
	Reference        string           `json:"reference"`
	PartnerReference string           `json:"partnerReference,omitempty"`
	Status           SettlementStatus `json:"status"`
	Reason           string           `json:"reason,omitempty"`
}

// PartnerBank is the gateway to other institutions.
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go
type PartnerBank interface {
	VerifyAccount(ctx context.Context, bankCode, accountNumber string) (*AccountVerification, error)
	// Settle is idempotent by SettlementRequest.Reference.
	Settle(ctx context.Context, req SettlementRequest) (*Settlement, error)
	SettlementStatus(ctx context.Context, reference string) (*Settlement, error)
}

// CustomerStatus is the onboarding state of a customer.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "ACTIVE"
	CustomerInactive CustomerStatus = "INACTIVE"
	CustomerBlocked  CustomerStatus = "BLOCKED"
)

// Customer is the directory record of an account holder.
type Customer struct {
	Ref    string         `json:"customerRef"`
	Name   string         `json:"name"`
	Status CustomerStatus `json:"status"`
}

// CustomerDirectory resolves customers. Unknown customers are reported as
// domain.ErrNotFound.
type CustomerDirectory interface {
	Lookup(ctx context.Context, customerRef string) (*Customer, error)
}
