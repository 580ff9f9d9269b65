// Package partnerbank provides the partner bank gateway: an HTTP client, an
// in-memory stub for local runs and tests, and a verification cache.
package partnerbank

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amirasaad/corebank/pkg/provider"
	"github.com/google/uuid"
)

// Stub simulates a partner bank. Accounts must be registered with AddAccount;
// settlements to unknown or inactive accounts are rejected.
type Stub struct {
	mu          sync.Mutex
	accounts    map[string]provider.AccountVerification
	settlements map[string]*provider.Settlement
	failures    map[string][]error
}

// NewStub creates an empty stub.
func NewStub() *Stub {
	return &Stub{
		accounts:    make(map[string]provider.AccountVerification),
		settlements: make(map[string]*provider.Settlement),
		failures:    make(map[string][]error),
	}
}

func accountKey(bankCode, accountNumber string) string {
	return bankCode + "/" + accountNumber
}

// AddAccount registers a beneficiary account.
func (s *Stub) AddAccount(bankCode, accountNumber, holder string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountKey(bankCode, accountNumber)] = provider.AccountVerification{
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		HolderName:    holder,
		Exists:        true,
		Active:        active,
	}
}

// FailNext makes the next calls of method ("VerifyAccount", "Settle",
// "SettlementStatus") return errs, one per call.
func (s *Stub) FailNext(method string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], errs...)
}

// Settlements returns a copy of the settlements received so far.
func (s *Stub) Settlements() []provider.Settlement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]provider.Settlement, 0, len(s.settlements))
	for _, st := range s.settlements {
		out = append(out, *st)
	}
	return out
}

func (s *Stub) injected(method string) error {
	queue := s.failures[method]
	if len(queue) == 0 {
		return nil
	}
	s.failures[method] = queue[1:]
	return queue[0]
}

// VerifyAccount implements provider.PartnerBank.
func (s *Stub) VerifyAccount(_ context.Context, bankCode, accountNumber string) (*provider.AccountVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("VerifyAccount"); err != nil {
		return nil, err
	}
	v, ok := s.accounts[accountKey(bankCode, accountNumber)]
	if !ok {
		return &provider.AccountVerification{BankCode: bankCode, AccountNumber: accountNumber}, nil
	}
	return &v, nil
}

// Settle implements provider.PartnerBank. A settlement already received
// under the same reference is returned unchanged.
func (s *Stub) Settle(_ context.Context, req provider.SettlementRequest) (*provider.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.settlements[req.Reference]; ok {
		cp := *existing
		return &cp, nil
	}
	if err := s.injected("Settle"); err != nil {
		return nil, err
	}
	st := &provider.Settlement{
		Reference:        req.Reference,
		PartnerReference: uuid.NewString(),
		Status:           provider.SettlementSettled,
	}
	if v, ok := s.accounts[accountKey(req.DestinationBank, req.DestinationAccount)]; !ok || !v.Active {
		st.Status = provider.SettlementRejected
		st.Reason = fmt.Sprintf("account %s is not able to receive funds", req.DestinationAccount)
	}
	s.settlements[req.Reference] = st
	cp := *st
	return &cp, nil
}

// SettlementStatus implements provider.PartnerBank.
func (s *Stub) SettlementStatus(_ context.Context, reference string) (*provider.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("SettlementStatus"); err != nil {
		return nil, err
	}
	st, ok := s.settlements[reference]
	if !ok {
		return &provider.Settlement{Reference: reference, Status: provider.SettlementNotFound}, nil
	}
	cp := *st
	return &cp, nil
}

// ErrInjected is a convenience error for FailNext.
var ErrInjected = errors.New("partnerbank stub: injected failure")

var _ provider.PartnerBank = (*Stub)(nil)
