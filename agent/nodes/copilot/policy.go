package copilotnode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

const recentPolicyLimit = 5

// LookupPolicy answers policy questions: a named POL id, expiring policies,
// a customer's policies, or a short recent list.
func LookupPolicy(ctx context.Context, in *GraphState, policies contractx.PolicyStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	lower := strings.ToLower(in.Text)

	if policyID := policyIDPattern.FindString(in.Text); policyID != "" {
		policyID = strings.ToUpper(policyID)
		p, err := policies.GetPolicyByID(ctx, policyID)
		if err != nil {
			if errors.Is(err, contractx.ErrNotFound) {
				in.Reply = fmt.Sprintf("Policy %s not found.", policyID)
				in.Summary = "policy " + policyID + " not found"
				return in, nil
			}
			return nil, fmt.Errorf("load policy %s: %w", policyID, err)
		}
		p.Status = p.StatusAt(in.Now)
		in.Reply = answerAbout(p, lower)
		in.Data = p
		in.Summary = "looked up " + policyID
		return in, nil
	}

	if strings.Contains(lower, "expir") {
		candidates, err := policies.ListExpiring(ctx, in.Now.Add(contractx.ExpiryWindow))
		if err != nil {
			return nil, fmt.Errorf("list expiring policies: %w", err)
		}
		expiring := make([]contractx.Policy, 0, len(candidates))
		for _, p := range withStatus(candidates, in.Now) {
			if p.Status == contractx.StatusExpiring {
				expiring = append(expiring, p)
			}
		}
		if len(expiring) == 0 {
			in.Reply = "No policies expire in the next 30 days."
		} else {
			in.Reply = policyList(fmt.Sprintf("%d policies expire in the next 30 days:", len(expiring)), expiring, in.Now)
		}
		in.Data = expiring
		in.Summary = fmt.Sprintf("listed %d expiring policies", len(expiring))
		return in, nil
	}

	if customerID := customerIDPattern.FindString(in.Text); customerID != "" {
		customerID = strings.ToUpper(customerID)
		list, err := policies.ListPolicies(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("list policies for %s: %w", customerID, err)
		}
		list = withStatus(list, in.Now)
		if len(list) == 0 {
			in.Reply = fmt.Sprintf("No policies found for %s.", customerID)
		} else {
			in.Reply = policyList("Policies for "+customerID+":", list, in.Now)
		}
		in.Data = list
		in.Summary = fmt.Sprintf("listed %d policies for %s", len(list), customerID)
		return in, nil
	}

	list, err := policies.ListRecentPolicies(ctx, recentPolicyLimit)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	list = withStatus(list, in.Now)
	if len(list) == 0 {
		in.Reply = "No policies found."
	} else {
		in.Reply = policyList("Policies on file (name a POL or CUST id for details):", list, in.Now)
	}
	in.Data = list
	in.Summary = "listed recent policies"
	return in, nil
}

// answerAbout gives a one-line factual answer about p, shaped by what the
// question mentions.
func answerAbout(p contractx.Policy, question string) string {
	switch {
	case containsAny(question, "premium", "cost", "price", "pay"):
		return fmt.Sprintf("%s premium is %s/year.", p.ID, rupeesFloat(p.Premium))
	case containsAny(question, "who", "owner", "holder", "belong", "customer"):
		name := p.CustomerName
		if name == "" {
			name = "customer"
		}
		return fmt.Sprintf("%s belongs to %s (%s).", p.ID, name, p.CustomerID)
	case containsAny(question, "status", "expir", "valid", "active", "lapse"):
		return fmt.Sprintf("%s is %s; it expires on %s.", p.ID, p.Status, day(p.ExpiryDate))
	default:
		insurer := ""
		if p.Insurer != "" {
			insurer = " with " + p.Insurer
		}
		return fmt.Sprintf("%s: %s%s, premium %s/year, %s, expires %s, customer %s.",
			p.ID, p.Type, insurer, rupeesFloat(p.Premium), p.Status, day(p.ExpiryDate), p.CustomerID)
	}
}
