package copilotnode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/intent"
	"github.com/tanpawarit/insurance-copilot/agent/premium"
	"github.com/tanpawarit/insurance-copilot/pkg/metrics"
)

// Rating defaults for customers whose record lacks the field.
const (
	DefaultAge    = 30
	DefaultClaims = 0
)

type QuoteDeps struct {
	Records   contractx.RecordStore
	Engine    *premium.Engine
	Explainer contractx.Explainer
}

type QuoteResult struct {
	Quote             premium.Quote         `json:"quote"`
	CustomerID        string                `json:"customer_id,omitempty"`
	CustomerName      string                `json:"customer_name,omitempty"`
	AssumedCustomerID bool                  `json:"assumed_customer_id"`
	PolicyID          string                `json:"policy_id,omitempty"`
	Terms             *premium.RenewalTerms `json:"terms,omitempty"`
	Explanation       string                `json:"explanation,omitempty"`
}

// Quote resolves the customer and current policy, rates them and persists the
// quote. An existing policy makes the quote a renewal against its premium.
func Quote(ctx context.Context, in *GraphState, deps QuoteDeps) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	q, ok := in.Intent.(intent.Quote)
	if !ok {
		return nil, fmt.Errorf("%w: quote node got %T", contractx.ErrValidation, in.Intent)
	}

	customerID := q.CustomerID
	assumed := q.AssumedCustomerID
	policyType := q.PolicyType

	var policy *contractx.Policy
	if customerID == "" || assumed {
		if policyID := policyIDPattern.FindString(in.Text); policyID != "" {
			p, err := deps.Records.GetPolicyByID(ctx, policyID)
			switch {
			case err == nil:
				policy = &p
				customerID, assumed = p.CustomerID, false
				policyType = p.Type
			case errors.Is(err, contractx.ErrNotFound):
				in.Reply = fmt.Sprintf("Policy %s not found.", strings.ToUpper(policyID))
				in.Summary = "quote failed: policy not found"
				return in, nil
			default:
				return nil, fmt.Errorf("load policy %s: %w", policyID, err)
			}
		}
	}

	if customerID == "" {
		return indicativeQuote(ctx, in, deps, policyType)
	}

	customer, err := deps.Records.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			in.Reply = fmt.Sprintf("Customer %s not found.", customerID)
			in.Summary = "quote failed: customer " + customerID + " not found"
			return in, nil
		}
		return nil, fmt.Errorf("load customer %s: %w", customerID, err)
	}

	if policy == nil {
		p, err := deps.Records.GetPolicy(ctx, customerID, policyType)
		switch {
		case err == nil:
			policy = &p
		case errors.Is(err, contractx.ErrNotFound):
		default:
			return nil, fmt.Errorf("load policy for %s: %w", customerID, err)
		}
	}

	if q.Renewal && policy == nil {
		label := "active"
		if policyType != "" {
			label = string(policyType)
		}
		in.Reply = fmt.Sprintf("No %s policy found for %s to renew.", label, customerID)
		in.Summary = "renewal failed: no policy for " + customerID
		return in, nil
	}

	if policyType == "" {
		policyType = contractx.PolicyHealth
		if policy != nil {
			policyType = policy.Type
		}
	}

	rating := premium.RatingInput{
		PolicyType:    policyType,
		Age:           DefaultAge,
		City:          customer.City,
		ClaimsHistory: DefaultClaims,
		CustomerID:    customerID,
	}
	if customer.Age != nil {
		rating.Age = *customer.Age
	}
	if customer.ClaimsHistory != nil {
		rating.ClaimsHistory = *customer.ClaimsHistory
	}
	if policy != nil && policy.Premium > 0 {
		existing := policy.Premium
		rating.ExistingPremium = &existing
	}

	quote, err := deps.Engine.Quote(rating)
	if err != nil {
		if errors.Is(err, contractx.ErrInvalidInput) {
			in.Reply = fmt.Sprintf("Cannot quote %s: %v.", customerID, err)
			in.Summary = "quote rejected for " + customerID
			return in, nil
		}
		return nil, err
	}
	metrics.QuotesComputed.WithLabelValues(string(quote.Kind)).Inc()

	result := QuoteResult{
		Quote:             quote,
		CustomerID:        customerID,
		CustomerName:      customer.Name,
		AssumedCustomerID: assumed,
	}
	if policy != nil {
		result.PolicyID = policy.ID
		if quote.Kind == premium.KindRenewal {
			terms := premium.Terms(policy.ExpiryDate, in.Now)
			result.Terms = &terms
		}
	}

	saveQuote(ctx, deps.Records, quote, customerID, in)
	result.Explanation = explain(ctx, deps.Explainer, quote, customer, rating)

	in.Reply = quoteReply(result)
	in.Data = result
	in.Summary = fmt.Sprintf("quote %s %s %s %d", quote.QuoteID, quote.PolicyType, quote.Kind, quote.ComputedPremium)
	return in, nil
}

// indicativeQuote rates a default profile when no customer is known.
func indicativeQuote(ctx context.Context, in *GraphState, deps QuoteDeps, policyType contractx.PolicyType) (*GraphState, error) {
	if policyType == "" {
		in.Reply = "Please specify policy type: Health, Car, or Life. Add a customer id for a personal quote, e.g. quote health CUST0001."
		in.Summary = "quote needs policy type"
		return in, nil
	}

	quote, err := deps.Engine.Quote(premium.RatingInput{PolicyType: policyType, Age: DefaultAge, ClaimsHistory: DefaultClaims})
	if err != nil {
		return nil, err
	}
	metrics.QuotesComputed.WithLabelValues(string(quote.Kind)).Inc()
	saveQuote(ctx, deps.Records, quote, "", in)

	in.Reply = fmt.Sprintf("Indicative %s quote %s: %s/year for a %d-year-old with no claims. Add a customer id for a personal quote.",
		quote.PolicyType, quote.QuoteID, rupees(quote.ComputedPremium), DefaultAge)
	in.Data = QuoteResult{Quote: quote}
	in.Summary = fmt.Sprintf("indicative quote %s %d", quote.PolicyType, quote.ComputedPremium)
	return in, nil
}

func saveQuote(ctx context.Context, quotes contractx.QuoteStore, q premium.Quote, customerID string, in *GraphState) {
	err := quotes.SaveQuote(ctx, contractx.QuoteRecord{
		QuoteID:         q.QuoteID,
		CustomerID:      customerID,
		PolicyType:      q.PolicyType,
		Kind:            string(q.Kind),
		Premium:         q.ComputedPremium,
		ExistingPremium: q.ExistingPremium,
		HikePercent:     q.HikePercent,
		CreatedAt:       in.Now,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Str("quote_id", q.QuoteID).Msg("save quote failed")
	}
}

func explain(ctx context.Context, explainer contractx.Explainer, q premium.Quote, c contractx.Customer, in premium.RatingInput) string {
	if explainer == nil {
		return ""
	}
	text, err := explainer.ExplainQuote(ctx, contractx.QuoteExplanation{
		CustomerName:    c.Name,
		PolicyType:      q.PolicyType,
		Kind:            string(q.Kind),
		Premium:         q.ComputedPremium,
		ExistingPremium: q.ExistingPremium,
		HikePercent:     q.HikePercent,
		Age:             in.Age,
		City:            in.City,
		ClaimsHistory:   in.ClaimsHistory,
		Factors:         q.Breakdown.Factors(),
	})
	if err != nil {
		log.Warn().Err(err).Str("quote_id", q.QuoteID).Msg("quote explanation unavailable")
		return ""
	}
	return text
}

func quoteReply(r QuoteResult) string {
	q := r.Quote
	var b strings.Builder

	who := r.CustomerID
	if r.CustomerName != "" {
		who = r.CustomerName + " (" + r.CustomerID + ")"
	}

	if q.Kind == premium.KindRenewal && q.ExistingPremium != nil && q.HikePercent != nil {
		fmt.Fprintf(&b, "Renewal quote %s for %s, %s: %s/year, %+d%% from %s.",
			q.QuoteID, who, q.PolicyType, rupees(q.ComputedPremium), *q.HikePercent, rupeesFloat(*q.ExistingPremium))
	} else {
		fmt.Fprintf(&b, "New %s policy quote %s for %s: %s/year.", q.PolicyType, q.QuoteID, who, rupees(q.ComputedPremium))
	}
	if r.Terms != nil {
		fmt.Fprintf(&b, " Cover %s to %s; quote valid until %s.", day(r.Terms.RenewalStart), day(r.Terms.RenewalEnd), day(r.Terms.ValidUntil))
	}
	if r.AssumedCustomerID {
		fmt.Fprintf(&b, " No customer id was given, so I used %s; name another with e.g. quote CUST0002.", r.CustomerID)
	}
	if r.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(r.Explanation)
	}
	return b.String()
}
