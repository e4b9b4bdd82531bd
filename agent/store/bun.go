package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

type customerRow struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	CustomerID    string `bun:"customer_id,pk"`
	Name          string `bun:"name,notnull"`
	Phone         string `bun:"phone"`
	Email         string `bun:"email"`
	Age           *int   `bun:"age"`
	City          string `bun:"city"`
	ClaimsHistory *int   `bun:"claims_history"`
}

type policyRow struct {
	bun.BaseModel `bun:"table:policies,alias:p"`

	PolicyID     string       `bun:"policy_id,pk"`
	CustomerID   string       `bun:"customer_id,notnull"`
	PolicyType   string       `bun:"policy_type,notnull"`
	Insurer      string       `bun:"insurer"`
	Premium      float64      `bun:"premium"`
	PolicyStart  time.Time    `bun:"policy_start,type:date"`
	PolicyExpiry time.Time    `bun:"policy_expiry,type:date,notnull"`
	Status       string       `bun:"status"`
	Customer     *customerRow `bun:"rel:belongs-to,join:customer_id=customer_id"`
}

type quoteRow struct {
	bun.BaseModel `bun:"table:quotes,alias:q"`

	QuoteID         string    `bun:"quote_id,pk"`
	PolicyType      string    `bun:"policy_type,pk"`
	CustomerID      string    `bun:"customer_id"`
	Kind            string    `bun:"kind,notnull"`
	Premium         int64     `bun:"premium,notnull"`
	ExistingPremium *float64  `bun:"existing_premium"`
	HikePercent     *int      `bun:"hike_percent"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

// BunStore is the Postgres record store.
type BunStore struct {
	db bun.IDB
}

var _ contractx.RecordStore = (*BunStore)(nil)

func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

// CreateSchema creates the customers, policies and quotes tables when missing.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*customerRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create customers table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*policyRow)(nil)).IfNotExists().
		ForeignKey(`("customer_id") REFERENCES "customers" ("customer_id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create policies table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*quoteRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create quotes table: %w", err)
	}
	return nil
}

// Seed inserts customers and policies, skipping rows that already exist.
func (s *BunStore) Seed(ctx context.Context, customers []contractx.Customer, policies []contractx.Policy) error {
	if len(customers) > 0 {
		rows := make([]customerRow, 0, len(customers))
		for _, c := range customers {
			rows = append(rows, toCustomerRow(c))
		}
		if _, err := s.db.NewInsert().Model(&rows).On("CONFLICT (customer_id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}
	}
	if len(policies) > 0 {
		rows := make([]policyRow, 0, len(policies))
		for _, p := range policies {
			rows = append(rows, toPolicyRow(p))
		}
		if _, err := s.db.NewInsert().Model(&rows).On("CONFLICT (policy_id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("seed policies: %w", err)
		}
	}
	return nil
}

func (s *BunStore) GetCustomer(ctx context.Context, customerID string) (contractx.Customer, error) {
	var row customerRow
	err := s.db.NewSelect().Model(&row).Where("c.customer_id = ?", customerID).Limit(1).Scan(ctx)
	if err != nil {
		return contractx.Customer{}, mapErr("customer "+customerID, err)
	}
	return row.toContract(), nil
}

func (s *BunStore) ListCustomers(ctx context.Context, limit int) ([]contractx.Customer, error) {
	var rows []customerRow
	if err := s.db.NewSelect().Model(&rows).Order("c.customer_id ASC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	out := make([]contractx.Customer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toContract())
	}
	return out, nil
}

func (s *BunStore) UpdateCustomer(ctx context.Context, customerID string, patch contractx.CustomerPatch) (contractx.Customer, error) {
	if patch.IsEmpty() {
		return contractx.Customer{}, fmt.Errorf("%w: empty customer patch", contractx.ErrInvalidInput)
	}

	q := s.db.NewUpdate().TableExpr("customers").Where("customer_id = ?", customerID)
	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Phone != nil {
		q = q.Set("phone = ?", *patch.Phone)
	}
	if patch.Email != nil {
		q = q.Set("email = ?", *patch.Email)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return contractx.Customer{}, fmt.Errorf("update customer %s: %w", customerID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return contractx.Customer{}, fmt.Errorf("%w: customer %s", contractx.ErrNotFound, customerID)
	}
	return s.GetCustomer(ctx, customerID)
}

func (s *BunStore) GetPolicy(ctx context.Context, customerID string, policyType contractx.PolicyType) (contractx.Policy, error) {
	var row policyRow
	q := s.db.NewSelect().Model(&row).Relation("Customer").
		Where("p.customer_id = ?", customerID)
	if policyType != "" {
		q = q.Where("p.policy_type ILIKE ANY (?)", pgdialect.Array(policyType.Aliases()))
	}
	if err := q.Order("p.policy_expiry DESC").Limit(1).Scan(ctx); err != nil {
		return contractx.Policy{}, mapErr("policy for "+customerID, err)
	}
	return row.toContract(), nil
}

func (s *BunStore) GetPolicyByID(ctx context.Context, policyID string) (contractx.Policy, error) {
	var row policyRow
	err := s.db.NewSelect().Model(&row).Relation("Customer").
		Where("p.policy_id = ?", strings.ToUpper(policyID)).Limit(1).Scan(ctx)
	if err != nil {
		return contractx.Policy{}, mapErr("policy "+policyID, err)
	}
	return row.toContract(), nil
}

func (s *BunStore) ListPolicies(ctx context.Context, customerID string) ([]contractx.Policy, error) {
	var rows []policyRow
	err := s.db.NewSelect().Model(&rows).Relation("Customer").
		Where("p.customer_id = ?", customerID).Order("p.policy_expiry ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list policies for %s: %w", customerID, err)
	}
	return policiesToContract(rows), nil
}

func (s *BunStore) ListRecentPolicies(ctx context.Context, limit int) ([]contractx.Policy, error) {
	var rows []policyRow
	err := s.db.NewSelect().Model(&rows).Relation("Customer").
		Order("p.policy_id ASC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return policiesToContract(rows), nil
}

func (s *BunStore) ListExpiring(ctx context.Context, before time.Time) ([]contractx.Policy, error) {
	var rows []policyRow
	err := s.db.NewSelect().Model(&rows).Relation("Customer").
		Where("p.policy_expiry <= ?", before.UTC().Format(time.DateOnly)).
		Order("p.policy_expiry ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expiring policies: %w", err)
	}
	return policiesToContract(rows), nil
}

func (s *BunStore) SaveQuote(ctx context.Context, rec contractx.QuoteRecord) error {
	row := quoteRow{
		QuoteID:         rec.QuoteID,
		CustomerID:      rec.CustomerID,
		PolicyType:      string(rec.PolicyType),
		Kind:            rec.Kind,
		Premium:         rec.Premium,
		ExistingPremium: rec.ExistingPremium,
		HikePercent:     rec.HikePercent,
		CreatedAt:       rec.CreatedAt.UTC(),
	}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (quote_id, policy_type) DO UPDATE").
		Set("customer_id = EXCLUDED.customer_id").
		Set("kind = EXCLUDED.kind").
		Set("premium = EXCLUDED.premium").
		Set("existing_premium = EXCLUDED.existing_premium").
		Set("hike_percent = EXCLUDED.hike_percent").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save quote %s: %w", rec.QuoteID, err)
	}
	return nil
}

func mapErr(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", contractx.ErrNotFound, what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func (r customerRow) toContract() contractx.Customer {
	return contractx.Customer{
		ID:            r.CustomerID,
		Name:          r.Name,
		Phone:         r.Phone,
		Email:         r.Email,
		Age:           r.Age,
		City:          r.City,
		ClaimsHistory: r.ClaimsHistory,
	}
}

func toCustomerRow(c contractx.Customer) customerRow {
	return customerRow{
		CustomerID:    c.ID,
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		Age:           c.Age,
		City:          c.City,
		ClaimsHistory: c.ClaimsHistory,
	}
}

func (r policyRow) toContract() contractx.Policy {
	policyType, ok := contractx.ParsePolicyType(r.PolicyType)
	if !ok {
		policyType = contractx.PolicyType(r.PolicyType)
	}
	p := contractx.Policy{
		ID:         r.PolicyID,
		CustomerID: r.CustomerID,
		Type:       policyType,
		Insurer:    r.Insurer,
		Premium:    r.Premium,
		StartDate:  r.PolicyStart,
		ExpiryDate: r.PolicyExpiry,
		Status:     contractx.PolicyStatus(r.Status),
	}
	if r.Customer != nil {
		p.CustomerName = r.Customer.Name
		p.CustomerPhone = r.Customer.Phone
	}
	return p
}

func toPolicyRow(p contractx.Policy) policyRow {
	return policyRow{
		PolicyID:     p.ID,
		CustomerID:   p.CustomerID,
		PolicyType:   string(p.Type),
		Insurer:      p.Insurer,
		Premium:      p.Premium,
		PolicyStart:  p.StartDate,
		PolicyExpiry: p.ExpiryDate,
		Status:       string(p.Status),
	}
}

func policiesToContract(rows []policyRow) []contractx.Policy {
	out := make([]contractx.Policy, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toContract())
	}
	return out
}
