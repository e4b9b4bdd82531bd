package contract

import (
	"strings"
	"time"
)

type Task string

const (
	TaskQuote    Task = "QUOTE"
	TaskPolicy   Task = "POLICY"
	TaskReminder Task = "REMINDER"
	TaskCRM      Task = "CRM"
	TaskClarify  Task = "CLARIFY"
)

type PolicyType string

const (
	PolicyHealth PolicyType = "Health"
	PolicyLife   PolicyType = "Life"
	PolicyCar    PolicyType = "Car"
)

// policyTypeAliases lists the lower-case spellings stored for each type.
// Rows written by older loaders use "Vehicle"/"Auto"/"Motor" for car policies.
var policyTypeAliases = map[PolicyType][]string{
	PolicyHealth: {"health"},
	PolicyLife:   {"life"},
	PolicyCar:    {"car", "vehicle", "auto", "motor"},
}

// ParsePolicyType maps a free-form policy type to its canonical value.
func ParsePolicyType(raw string) (PolicyType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for pt, aliases := range policyTypeAliases {
		for _, a := range aliases {
			if a == key {
				return pt, true
			}
		}
	}
	return "", false
}

// Aliases returns the stored spellings that ParsePolicyType maps to t.
func (t PolicyType) Aliases() []string {
	aliases := policyTypeAliases[t]
	if aliases == nil {
		return []string{strings.ToLower(string(t))}
	}
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}

type Customer struct {
	ID            string `json:"customer_id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	Age           *int   `json:"age,omitempty"`
	City          string `json:"city,omitempty"`
	ClaimsHistory *int   `json:"claims_history,omitempty"`
}

// CustomerPatch carries the CRM fields to overwrite; nil fields are left alone.
type CustomerPatch struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (p CustomerPatch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Email == nil
}

type PolicyStatus string

const (
	StatusActive   PolicyStatus = "Active"
	StatusExpiring PolicyStatus = "Expiring"
	StatusExpired  PolicyStatus = "Expired"
	StatusLapsed   PolicyStatus = "Lapsed"
)

// ExpiryWindow is how far ahead a policy counts as expiring.
const ExpiryWindow = 30 * 24 * time.Hour

type Policy struct {
	ID            string       `json:"policy_id"`
	CustomerID    string       `json:"customer_id"`
	CustomerName  string       `json:"customer_name,omitempty"`
	CustomerPhone string       `json:"customer_phone,omitempty"`
	Type          PolicyType   `json:"policy_type"`
	Insurer       string       `json:"insurer,omitempty"`
	Premium       float64      `json:"premium"`
	StartDate     time.Time    `json:"start_date"`
	ExpiryDate    time.Time    `json:"expiry_date"`
	Status        PolicyStatus `json:"status,omitempty"`
}

// StatusAt derives the policy status on the given day. A stored Lapsed status
// is sticky; everything else follows the expiry date.
func (p Policy) StatusAt(now time.Time) PolicyStatus {
	if p.Status == StatusLapsed {
		return StatusLapsed
	}
	today := truncateDay(now)
	expiry := truncateDay(p.ExpiryDate)
	switch {
	case expiry.Before(today):
		return StatusExpired
	case !expiry.After(today.Add(ExpiryWindow)):
		return StatusExpiring
	default:
		return StatusActive
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type QuoteRecord struct {
	QuoteID         string     `json:"quote_id"`
	CustomerID      string     `json:"customer_id"`
	PolicyType      PolicyType `json:"policy_type"`
	Kind            string     `json:"kind"`
	Premium         int64      `json:"premium"`
	ExistingPremium *float64   `json:"existing_premium,omitempty"`
	HikePercent     *int       `json:"hike_percent,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// QuoteExplanation is everything an explainer may mention about a quote.
type QuoteExplanation struct {
	CustomerName    string             `json:"customer_name,omitempty"`
	PolicyType      PolicyType         `json:"policy_type"`
	Kind            string             `json:"kind"`
	Premium         int64              `json:"premium"`
	ExistingPremium *float64           `json:"existing_premium,omitempty"`
	HikePercent     *int               `json:"hike_percent,omitempty"`
	Age             int                `json:"age"`
	City            string             `json:"city,omitempty"`
	ClaimsHistory   int                `json:"claims_history"`
	Factors         map[string]float64 `json:"factors,omitempty"`
}

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryQueued DeliveryStatus = "queued"
	DeliveryFailed DeliveryStatus = "failed"
)

type Delivery struct {
	PolicyID  string         `json:"policy_id,omitempty"`
	Phone     string         `json:"phone"`
	Status    DeliveryStatus `json:"status"`
	MessageID string         `json:"message_id,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type Activity struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Task      Task      `json:"task"`
	Summary   string    `json:"summary"`
	At        time.Time `json:"at"`
}
