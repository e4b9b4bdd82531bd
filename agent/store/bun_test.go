package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/pkg/postgres"
)

func newMockStore(t *testing.T) (*BunStore, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	db := postgres.NewDB(sqldb)
	t.Cleanup(func() { _ = db.Close() })
	return NewBunStore(db), mock
}

var customerColumns = []string{"customer_id", "name", "phone", "email", "age", "city", "claims_history"}

func TestBunGetCustomer(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM "customers" AS "c" WHERE \(c.customer_id = 'CUST0007'\)`).
		WillReturnRows(sqlmock.NewRows(customerColumns).
			AddRow("CUST0007", "Kavya Shah", "+919812345607", nil, 40, "Delhi", 1))

	c, err := s.GetCustomer(context.Background(), "CUST0007")
	if err != nil {
		t.Fatalf("GetCustomer() error = %v", err)
	}
	if c.Name != "Kavya Shah" || c.City != "Delhi" {
		t.Fatalf("customer = %+v", c)
	}
	if c.Age == nil || *c.Age != 40 || c.ClaimsHistory == nil || *c.ClaimsHistory != 1 {
		t.Fatalf("rating fields = %v/%v", c.Age, c.ClaimsHistory)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBunGetCustomerNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM "customers"`).WillReturnRows(sqlmock.NewRows(customerColumns))

	_, err := s.GetCustomer(context.Background(), "CUST9999")
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("GetCustomer() error = %v, want ErrNotFound", err)
	}
}

func TestBunUpdateCustomer(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE customers SET phone = '9876543210' WHERE \(customer_id = 'CUST0007'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "customers"`).
		WillReturnRows(sqlmock.NewRows(customerColumns).
			AddRow("CUST0007", "Kavya Shah", "9876543210", nil, nil, nil, nil))

	phone := "9876543210"
	c, err := s.UpdateCustomer(context.Background(), "CUST0007", contractx.CustomerPatch{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateCustomer() error = %v", err)
	}
	if c.Phone != "9876543210" {
		t.Fatalf("phone = %q", c.Phone)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBunUpdateCustomerMissing(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE customers`).WillReturnResult(sqlmock.NewResult(0, 0))

	name := "Nobody"
	_, err := s.UpdateCustomer(context.Background(), "CUST9999", contractx.CustomerPatch{Name: &name})
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("UpdateCustomer() error = %v, want ErrNotFound", err)
	}
}

func TestBunUpdateCustomerEmptyPatch(t *testing.T) {
	t.Parallel()

	s, _ := newMockStore(t)
	if _, err := s.UpdateCustomer(context.Background(), "CUST0001", contractx.CustomerPatch{}); !errors.Is(err, contractx.ErrInvalidInput) {
		t.Fatalf("UpdateCustomer() error = %v, want ErrInvalidInput", err)
	}
}

func TestBunGetPolicyJoinsCustomer(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, 10, 28, 0, 0, 0, 0, time.UTC)
	s, mock := newMockStore(t)
	// bun interpolates arguments into the statement, so the alias set is
	// checked in the query text.
	mock.ExpectQuery(`SELECT .* FROM "policies" AS "p" LEFT JOIN "customers" AS "customer" .*p.customer_id = 'CUST0007'.*p.policy_type ILIKE ANY \('\{"?car"?,"?vehicle"?,"?auto"?,"?motor"?\}'\)`).
		WillReturnRows(sqlmock.NewRows([]string{
			"policy_id", "customer_id", "policy_type", "insurer", "premium", "policy_start", "policy_expiry", "status",
			"customer__customer_id", "customer__name", "customer__phone",
		}).AddRow("POL1007", "CUST0007", "vehicle", "Bajaj Allianz", 8000.0, expiry.AddDate(-1, 0, 0), expiry, "Expiring",
			"CUST0007", "Kavya Shah", "+919812345607"))

	p, err := s.GetPolicy(context.Background(), "CUST0007", contractx.PolicyCar)
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if p.Type != contractx.PolicyCar {
		t.Fatalf("type = %q, want Car", p.Type)
	}
	if p.Premium != 8000 || !p.ExpiryDate.Equal(expiry) {
		t.Fatalf("policy = %+v", p)
	}
	if p.CustomerName != "Kavya Shah" || p.CustomerPhone != "+919812345607" {
		t.Fatalf("joined customer = %q/%q", p.CustomerName, p.CustomerPhone)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBunSaveQuote(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO "quotes" .* ON CONFLICT \(quote_id, policy_type\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	existing := 8000.0
	hike := 71
	err := s.SaveQuote(context.Background(), contractx.QuoteRecord{
		QuoteID:         "Q2610-CUST0007",
		CustomerID:      "CUST0007",
		PolicyType:      contractx.PolicyCar,
		Kind:            "RENEWAL",
		Premium:         13712,
		ExistingPremium: &existing,
		HikePercent:     &hike,
		CreatedAt:       time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SaveQuote() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBunSaveQuoteKeepsEachPolicyType(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO "quotes" .*'Q2610-CUST0001', 'Health'.* ON CONFLICT \(quote_id, policy_type\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "quotes" .*'Q2610-CUST0001', 'Car'.* ON CONFLICT \(quote_id, policy_type\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	for _, rec := range []contractx.QuoteRecord{
		{QuoteID: "Q2610-CUST0001", CustomerID: "CUST0001", PolicyType: contractx.PolicyHealth, Kind: "RENEWAL", Premium: 15900, CreatedAt: created},
		{QuoteID: "Q2610-CUST0001", CustomerID: "CUST0001", PolicyType: contractx.PolicyCar, Kind: "NEW_POLICY", Premium: 9328, CreatedAt: created},
	} {
		if err := s.SaveQuote(context.Background(), rec); err != nil {
			t.Fatalf("SaveQuote(%s) error = %v", rec.PolicyType, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBunCreateSchema(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "customers"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "policies" .*REFERENCES "customers"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "quotes" .*PRIMARY KEY \("quote_id", "policy_type"\)`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
