package events

// AccountSynced is emitted when the ledger first learns about an account.
type AccountSynced struct {
	FlowEvent
	AccountNumber string `json:"accountNumber"`
	CustomerRef   string `json:"customerRef"`
	Currency      string `json:"currency"`
	AccountType   string `json:"accountType"`
}

// AccountStatusChanged is emitted after a lifecycle transition.
type AccountStatusChanged struct {
	FlowEvent
	AccountNumber string `json:"accountNumber"`
	Previous      string `json:"previous"`
	Current       string `json:"current"`
	Reason        string `json:"reason,omitempty"`
}

func (e AccountSynced) Type() string        { return EventTypeAccountSynced.String() }
func (e AccountStatusChanged) Type() string { return EventTypeAccountStatusChanged.String() }
