package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

// Memory is an in-process record store used in demo mode and tests.
type Memory struct {
	mu        sync.RWMutex
	customers map[string]contractx.Customer
	policies  map[string]contractx.Policy
	quotes    map[quoteKey]contractx.QuoteRecord
}

var _ contractx.RecordStore = (*Memory)(nil)

func NewMemory(customers []contractx.Customer, policies []contractx.Policy) *Memory {
	m := &Memory{
		customers: make(map[string]contractx.Customer, len(customers)),
		policies:  make(map[string]contractx.Policy, len(policies)),
		quotes:    map[quoteKey]contractx.QuoteRecord{},
	}
	for _, c := range customers {
		m.customers[c.ID] = c
	}
	for _, p := range policies {
		m.policies[p.ID] = p
	}
	return m
}

func (m *Memory) GetCustomer(_ context.Context, customerID string) (contractx.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[customerID]
	if !ok {
		return contractx.Customer{}, fmt.Errorf("%w: customer %s", contractx.ErrNotFound, customerID)
	}
	return c, nil
}

func (m *Memory) ListCustomers(_ context.Context, limit int) ([]contractx.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]contractx.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return truncate(out, limit), nil
}

func (m *Memory) UpdateCustomer(_ context.Context, customerID string, patch contractx.CustomerPatch) (contractx.Customer, error) {
	if patch.IsEmpty() {
		return contractx.Customer{}, fmt.Errorf("%w: empty customer patch", contractx.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[customerID]
	if !ok {
		return contractx.Customer{}, fmt.Errorf("%w: customer %s", contractx.ErrNotFound, customerID)
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	m.customers[customerID] = c
	return c, nil
}

func (m *Memory) GetPolicy(_ context.Context, customerID string, policyType contractx.PolicyType) (contractx.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best  contractx.Policy
		found bool
	)
	for _, p := range m.policies {
		if p.CustomerID != customerID {
			continue
		}
		if policyType != "" && !matchesType(p.Type, policyType) {
			continue
		}
		if !found || p.ExpiryDate.After(best.ExpiryDate) {
			best, found = p, true
		}
	}
	if !found {
		return contractx.Policy{}, fmt.Errorf("%w: policy for %s", contractx.ErrNotFound, customerID)
	}
	return m.withCustomer(best), nil
}

func (m *Memory) GetPolicyByID(_ context.Context, policyID string) (contractx.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[strings.ToUpper(policyID)]
	if !ok {
		return contractx.Policy{}, fmt.Errorf("%w: policy %s", contractx.ErrNotFound, policyID)
	}
	return m.withCustomer(p), nil
}

func (m *Memory) ListPolicies(_ context.Context, customerID string) ([]contractx.Policy, error) {
	return m.filterPolicies(func(p contractx.Policy) bool { return p.CustomerID == customerID }, byExpiry, 0), nil
}

func (m *Memory) ListRecentPolicies(_ context.Context, limit int) ([]contractx.Policy, error) {
	return m.filterPolicies(func(contractx.Policy) bool { return true }, byID, limit), nil
}

func (m *Memory) ListExpiring(_ context.Context, before time.Time) ([]contractx.Policy, error) {
	return m.filterPolicies(func(p contractx.Policy) bool { return !p.ExpiryDate.After(before) }, byExpiry, 0), nil
}

func (m *Memory) SaveQuote(_ context.Context, rec contractx.QuoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[quoteKey{id: rec.QuoteID, policyType: rec.PolicyType}] = rec
	return nil
}

// Quote returns a saved quote by id and policy type.
func (m *Memory) Quote(quoteID string, policyType contractx.PolicyType) (contractx.QuoteRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[quoteKey{id: quoteID, policyType: policyType}]
	return q, ok
}

// quoteKey mirrors the (quote_id, policy_type) primary key of the quotes table.
type quoteKey struct {
	id         string
	policyType contractx.PolicyType
}

func matchesType(stored, want contractx.PolicyType) bool {
	for _, a := range want.Aliases() {
		if strings.EqualFold(string(stored), a) {
			return true
		}
	}
	return false
}

func byID(a, b contractx.Policy) bool     { return a.ID < b.ID }
func byExpiry(a, b contractx.Policy) bool { return a.ExpiryDate.Before(b.ExpiryDate) }

func (m *Memory) filterPolicies(keep func(contractx.Policy) bool, less func(a, b contractx.Policy) bool, limit int) []contractx.Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []contractx.Policy{}
	for _, p := range m.policies {
		if keep(p) {
			out = append(out, m.withCustomer(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return truncate(out, limit)
}

// withCustomer fills the joined customer fields; callers hold the read lock.
func (m *Memory) withCustomer(p contractx.Policy) contractx.Policy {
	if c, ok := m.customers[p.CustomerID]; ok {
		p.CustomerName = c.Name
		p.CustomerPhone = c.Phone
	}
	return p
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
