package store

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

const (
	customerKeyPrefix = "customer:"
	policyKeyPrefix   = "policy:"
)

// Cached keeps single-record lookups of a RecordStore in memory. List queries
// always go to the underlying store.
type Cached struct {
	next  contractx.RecordStore
	cache *gocache.Cache
}

var _ contractx.RecordStore = (*Cached)(nil)

func NewCached(next contractx.RecordStore, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) GetCustomer(ctx context.Context, customerID string) (contractx.Customer, error) {
	key := customerKeyPrefix + customerID
	if v, ok := c.cache.Get(key); ok {
		return v.(contractx.Customer), nil
	}
	customer, err := c.next.GetCustomer(ctx, customerID)
	if err != nil {
		return contractx.Customer{}, err
	}
	c.cache.SetDefault(key, customer)
	return customer, nil
}

func (c *Cached) ListCustomers(ctx context.Context, limit int) ([]contractx.Customer, error) {
	return c.next.ListCustomers(ctx, limit)
}

// UpdateCustomer writes through and drops cached entries that embed the
// customer's name or phone.
func (c *Cached) UpdateCustomer(ctx context.Context, customerID string, patch contractx.CustomerPatch) (contractx.Customer, error) {
	customer, err := c.next.UpdateCustomer(ctx, customerID, patch)
	c.cache.Delete(customerKeyPrefix + customerID)
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, policyKeyPrefix) {
			c.cache.Delete(key)
		}
	}
	if err != nil {
		return contractx.Customer{}, err
	}
	c.cache.SetDefault(customerKeyPrefix+customerID, customer)
	return customer, nil
}

func (c *Cached) GetPolicy(ctx context.Context, customerID string, policyType contractx.PolicyType) (contractx.Policy, error) {
	key := policyKeyPrefix + customerID + ":" + strings.ToLower(string(policyType))
	return c.policy(key, func() (contractx.Policy, error) {
		return c.next.GetPolicy(ctx, customerID, policyType)
	})
}

func (c *Cached) GetPolicyByID(ctx context.Context, policyID string) (contractx.Policy, error) {
	key := policyKeyPrefix + "id:" + strings.ToUpper(policyID)
	return c.policy(key, func() (contractx.Policy, error) {
		return c.next.GetPolicyByID(ctx, policyID)
	})
}

func (c *Cached) policy(key string, load func() (contractx.Policy, error)) (contractx.Policy, error) {
	if v, ok := c.cache.Get(key); ok {
		return v.(contractx.Policy), nil
	}
	p, err := load()
	if err != nil {
		return contractx.Policy{}, err
	}
	c.cache.SetDefault(key, p)
	return p, nil
}

func (c *Cached) ListPolicies(ctx context.Context, customerID string) ([]contractx.Policy, error) {
	return c.next.ListPolicies(ctx, customerID)
}

func (c *Cached) ListRecentPolicies(ctx context.Context, limit int) ([]contractx.Policy, error) {
	return c.next.ListRecentPolicies(ctx, limit)
}

func (c *Cached) ListExpiring(ctx context.Context, before time.Time) ([]contractx.Policy, error) {
	return c.next.ListExpiring(ctx, before)
}

func (c *Cached) SaveQuote(ctx context.Context, rec contractx.QuoteRecord) error {
	return c.next.SaveQuote(ctx, rec)
}
