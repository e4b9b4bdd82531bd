package premium

import (
	"fmt"
	"math"
	"strings"
	"time"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

type Kind string

const (
	KindNewPolicy Kind = "NEW_POLICY"
	KindRenewal   Kind = "RENEWAL"
)

type RatingInput struct {
	PolicyType      contractx.PolicyType `json:"policy_type"`
	Age             int                  `json:"age"`
	City            string               `json:"city,omitempty"`
	ClaimsHistory   int                  `json:"claims_history"`
	ExistingPremium *float64             `json:"existing_premium,omitempty"`
	// CustomerID only feeds the quote id.
	CustomerID string `json:"customer_id,omitempty"`
}

type Breakdown struct {
	Base            float64 `json:"base"`
	AgeFactor       float64 `json:"age_factor"`
	CityFactor      float64 `json:"city_factor"`
	ClaimsFactor    float64 `json:"claims_factor"`
	InflationFactor float64 `json:"inflation_factor"`
}

// Factors flattens the breakdown for explanation prompts.
func (b Breakdown) Factors() map[string]float64 {
	return map[string]float64{
		"base":      b.Base,
		"age":       b.AgeFactor,
		"city":      b.CityFactor,
		"claims":    b.ClaimsFactor,
		"inflation": b.InflationFactor,
	}
}

type Quote struct {
	QuoteID         string               `json:"quote_id"`
	PolicyType      contractx.PolicyType `json:"policy_type"`
	ComputedPremium int64                `json:"computed_premium"`
	Kind            Kind                 `json:"kind"`
	HikePercent     *int                 `json:"hike_percent,omitempty"`
	ExistingPremium *float64             `json:"existing_premium,omitempty"`
	Breakdown       Breakdown            `json:"breakdown"`
}

const (
	inflationFactor   = 1.06
	ageLoadingFrom    = 25
	ageLoadingPerYear = 0.015
	claimLoading      = 0.20
)

var baseRates = map[contractx.PolicyType]float64{
	contractx.PolicyHealth: 15000,
	contractx.PolicyLife:   10000,
	contractx.PolicyCar:    8000,
}

// keys are lower-case
var cityFactors = map[string]float64{
	"delhi":     1.10,
	"mumbai":    1.15,
	"bangalore": 1.05,
}

// Compute rates the input. asOf only stamps the quote id; the premium is a
// function of the rating fields alone.
func Compute(in RatingInput, asOf time.Time) (Quote, error) {
	if in.Age < 0 || in.ClaimsHistory < 0 {
		return Quote{}, fmt.Errorf("%w: negative value", contractx.ErrInvalidInput)
	}
	base, ok := baseRates[in.PolicyType]
	if !ok {
		return Quote{}, fmt.Errorf("%w: unknown policy type %q", contractx.ErrInvalidInput, in.PolicyType)
	}
	if ep := in.ExistingPremium; ep != nil && (math.IsNaN(*ep) || math.IsInf(*ep, 0) || *ep <= 0) {
		return Quote{}, fmt.Errorf("%w: existing premium must be a positive finite amount", contractx.ErrInvalidInput)
	}

	b := Breakdown{
		Base:            base,
		AgeFactor:       AgeFactor(in.Age),
		CityFactor:      CityFactor(in.City),
		ClaimsFactor:    ClaimsFactor(in.ClaimsHistory),
		InflationFactor: inflationFactor,
	}

	premium := Round(b.Base * b.AgeFactor * b.CityFactor * b.ClaimsFactor * b.InflationFactor)

	q := Quote{
		QuoteID:         QuoteID(in.CustomerID, asOf),
		PolicyType:      in.PolicyType,
		ComputedPremium: int64(premium),
		Kind:            KindNewPolicy,
		Breakdown:       b,
	}

	if in.ExistingPremium != nil {
		existing := *in.ExistingPremium
		hike := int(Round((premium/existing - 1) * 100))
		q.Kind = KindRenewal
		q.HikePercent = &hike
		q.ExistingPremium = &existing
	}

	return q, nil
}

func AgeFactor(age int) float64 {
	return 1 + math.Max(0, float64(age-ageLoadingFrom)*ageLoadingPerYear)
}

func CityFactor(city string) float64 {
	if f, ok := cityFactors[strings.ToLower(strings.TrimSpace(city))]; ok {
		return f
	}
	return 1.0
}

func ClaimsFactor(claims int) float64 {
	return 1 + float64(claims)*claimLoading
}

// Round rounds half to even, so 2.5 -> 2 and 3.5 -> 4.
func Round(v float64) float64 {
	return math.RoundToEven(v)
}

// QuoteID is Q<YYMM>-<customer>. Re-quoting the same customer within a month
// yields the same id.
func QuoteID(customerID string, asOf time.Time) string {
	stamp := "Q" + asOf.UTC().Format("0601")
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return stamp
	}
	return stamp + "-" + customerID
}

// Engine binds Compute to a clock.
type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

func (e *Engine) Quote(in RatingInput) (Quote, error) {
	return Compute(in, e.now())
}
