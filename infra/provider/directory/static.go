package directory

import (
	"context"
	"sync"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/provider"
)

// Static is an in-memory directory. With AcceptAll set, unknown customers
// are reported as ACTIVE.
type Static struct {
	mu        sync.RWMutex
	customers map[string]provider.Customer
	AcceptAll bool
}

// NewStatic creates a directory holding customers.
func NewStatic(customers ...provider.Customer) *Static {
	s := &Static{customers: make(map[string]provider.Customer)}
	for _, c := range customers {
		s.customers[c.Ref] = c
	}
	return s
}

// Put adds or replaces a customer.
func (s *Static) Put(c provider.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.Ref] = c
}

// Lookup implements provider.CustomerDirectory.
func (s *Static) Lookup(_ context.Context, customerRef string) (*provider.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.customers[customerRef]; ok {
		return &c, nil
	}
	if s.AcceptAll {
		return &provider.Customer{Ref: customerRef, Status: provider.CustomerActive}, nil
	}
	return nil, domain.ErrNotFound.WithDetail("customer %s not found", customerRef)
}

var _ provider.CustomerDirectory = (*Static)(nil)
