package contract

import (
	"context"
	"time"
)

type CustomerStore interface {
	GetCustomer(ctx context.Context, customerID string) (Customer, error)
	ListCustomers(ctx context.Context, limit int) ([]Customer, error)
	UpdateCustomer(ctx context.Context, customerID string, patch CustomerPatch) (Customer, error)
}

type PolicyStore interface {
	// GetPolicy returns the customer's most recent policy of the given type.
	// An empty policyType matches any type.
	GetPolicy(ctx context.Context, customerID string, policyType PolicyType) (Policy, error)
	GetPolicyByID(ctx context.Context, policyID string) (Policy, error)
	ListPolicies(ctx context.Context, customerID string) ([]Policy, error)
	ListRecentPolicies(ctx context.Context, limit int) ([]Policy, error)
	ListExpiring(ctx context.Context, before time.Time) ([]Policy, error)
}

type QuoteStore interface {
	SaveQuote(ctx context.Context, rec QuoteRecord) error
}

// RecordStore is the keyed customer/policy store the copilot reads from.
type RecordStore interface {
	CustomerStore
	PolicyStore
	QuoteStore
}

type Explainer interface {
	ExplainQuote(ctx context.Context, req QuoteExplanation) (string, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type Messenger interface {
	Send(ctx context.Context, phone string, body string) (Delivery, error)
}

type ActivityLog interface {
	Record(ctx context.Context, a Activity) error
	Recent(ctx context.Context, sessionID string, limit int) ([]Activity, error)
}
