package store

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

var fixedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func TestMemoryLookups(t *testing.T) {
	t.Parallel()

	m := NewMemory(DemoCustomers(), DemoPolicies(fixedNow))
	ctx := context.Background()

	p, err := m.GetPolicy(ctx, "CUST0007", "")
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if p.ID != "POL1007" || p.CustomerName != "Kavya Shah" {
		t.Fatalf("policy = %+v", p)
	}

	if _, err := m.GetPolicy(ctx, "CUST0007", contractx.PolicyHealth); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("GetPolicy(Health) error = %v, want ErrNotFound", err)
	}

	byID, err := m.GetPolicyByID(ctx, "pol1003")
	if err != nil {
		t.Fatalf("GetPolicyByID() error = %v", err)
	}
	if byID.Status != contractx.StatusExpired {
		t.Fatalf("status = %s, want Expired", byID.Status)
	}

	customers, _ := m.ListCustomers(ctx, 3)
	if len(customers) != 3 || customers[0].ID != "CUST0001" {
		t.Fatalf("customers = %+v", customers)
	}
}

func TestMemoryListExpiring(t *testing.T) {
	t.Parallel()

	m := NewMemory(DemoCustomers(), DemoPolicies(fixedNow))
	got, err := m.ListExpiring(context.Background(), fixedNow.Add(contractx.ExpiryWindow))
	if err != nil {
		t.Fatalf("ListExpiring() error = %v", err)
	}
	want := []string{"POL1003", "POL1004", "POL1007", "POL1001"}
	if len(got) != len(want) {
		t.Fatalf("got %d policies, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("policy[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMemoryUpdateCustomer(t *testing.T) {
	t.Parallel()

	m := NewMemory(DemoCustomers(), nil)
	email := "kavya@example.com"
	c, err := m.UpdateCustomer(context.Background(), "CUST0007", contractx.CustomerPatch{Email: &email})
	if err != nil {
		t.Fatalf("UpdateCustomer() error = %v", err)
	}
	if c.Email != email || c.Name != "Kavya Shah" {
		t.Fatalf("customer = %+v", c)
	}
	if _, err := m.UpdateCustomer(context.Background(), "CUST0404", contractx.CustomerPatch{Email: &email}); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("UpdateCustomer(missing) error = %v", err)
	}
}

func TestMemorySaveQuoteKeepsEachPolicyType(t *testing.T) {
	t.Parallel()

	m := NewMemory(nil, nil)
	ctx := context.Background()
	for _, rec := range []contractx.QuoteRecord{
		{QuoteID: "Q2610-CUST0001", CustomerID: "CUST0001", PolicyType: contractx.PolicyHealth, Premium: 15900},
		{QuoteID: "Q2610-CUST0001", CustomerID: "CUST0001", PolicyType: contractx.PolicyCar, Premium: 9328},
	} {
		if err := m.SaveQuote(ctx, rec); err != nil {
			t.Fatalf("SaveQuote() error = %v", err)
		}
	}
	if q, ok := m.Quote("Q2610-CUST0001", contractx.PolicyHealth); !ok || q.Premium != 15900 {
		t.Fatalf("health quote = %+v, %v", q, ok)
	}
	if q, ok := m.Quote("Q2610-CUST0001", contractx.PolicyCar); !ok || q.Premium != 9328 {
		t.Fatalf("car quote = %+v, %v", q, ok)
	}

	if err := m.SaveQuote(ctx, contractx.QuoteRecord{QuoteID: "Q2610-CUST0001", PolicyType: contractx.PolicyCar, Premium: 9500}); err != nil {
		t.Fatalf("SaveQuote() error = %v", err)
	}
	if q, _ := m.Quote("Q2610-CUST0001", contractx.PolicyCar); q.Premium != 9500 {
		t.Fatalf("car quote after upsert = %d, want 9500", q.Premium)
	}
}

func TestMemoryGetPolicyMatchesLegacyTypeNames(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(DemoCustomers(), []contractx.Policy{
		{ID: "POL2001", CustomerID: "CUST0002", Type: contractx.PolicyType("Vehicle"), Premium: 7000, ExpiryDate: expiry},
		{ID: "POL2002", CustomerID: "CUST0002", Type: contractx.PolicyHealth, Premium: 12000, ExpiryDate: expiry},
	})
	p, err := m.GetPolicy(context.Background(), "CUST0002", contractx.PolicyCar)
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if p.ID != "POL2001" {
		t.Fatalf("policy = %s, want POL2001", p.ID)
	}
	if _, err := m.GetPolicy(context.Background(), "CUST0002", contractx.PolicyLife); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("GetPolicy(Life) error = %v, want ErrNotFound", err)
	}
}
