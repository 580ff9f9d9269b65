package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferCompleted is emitted once a transfer reached COMPLETED.
type TransferCompleted struct {
	FlowEvent
	TransactionID       uuid.UUID       `json:"transactionId"`
	TransferType        string          `json:"transferType"`
	SourceAccount       string          `json:"sourceAccount"`
	DestinationAccount  string          `json:"destinationAccount"`
	DestinationBankCode string          `json:"destinationBankCode,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	Fee                 decimal.Decimal `json:"fee"`
	Currency            string          `json:"currency"`
}

// TransferFailed is emitted when a transfer ends FAILED.
type TransferFailed struct {
	FlowEvent
	TransactionID         uuid.UUID       `json:"transactionId"`
	SourceAccount         string          `json:"sourceAccount"`
	DestinationAccount    string          `json:"destinationAccount"`
	Amount                decimal.Decimal `json:"amount"`
	FailureCode           string          `json:"failureCode"`
	Reason                string          `json:"reason"`
	CompensationReference string          `json:"compensationReference,omitempty"`
}

// TransferReversed is emitted when a completed transfer was compensated.
type TransferReversed struct {
	FlowEvent
	OriginalTransactionID uuid.UUID       `json:"originalTransactionId"`
	ReversalTransactionID uuid.UUID       `json:"reversalTransactionId"`
	ReversalReference     string          `json:"reversalReference"`
	// SourceAccount and DestinationAccount are those of the original transfer.
	SourceAccount         string          `json:"sourceAccount"`
	DestinationAccount    string          `json:"destinationAccount"`
	Amount                decimal.Decimal `json:"amount"`
	Reason                string          `json:"reason,omitempty"`
}

func (e TransferCompleted) Type() string { return EventTypeTransferCompleted.String() }
func (e TransferFailed) Type() string    { return EventTypeTransferFailed.String() }
func (e TransferReversed) Type() string  { return EventTypeTransferReversed.String() }
