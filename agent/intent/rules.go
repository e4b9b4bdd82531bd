package intent

import (
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

type rule struct {
	name    string
	pattern *regexp.Regexp
	extract func(p *Parser, raw, normalized string, m []string) Intent
}

var (
	policyTypePattern      = regexp.MustCompile(`(?i)\b(health|life|car)\b`)
	customerCandidateRegex = regexp.MustCompile(`(?i)\bcust[^a-zA-Z\s]\S*`)
	renewalPattern         = regexp.MustCompile(`(?i)\brenew(al)?\b`)
)

// rules is evaluated top to bottom.
var rules = []rule{
	{
		name:    "update_customer",
		pattern: regexp.MustCompile(`(?i)^(?:update|change|set)\s+(\S+)\s+(phone|name|email)\s+(.+)$`),
		extract: extractUpdate,
	},
	{
		name:    "quote",
		pattern: regexp.MustCompile(`(?i)\b(quotes?|renew|renewal|get)\b`),
		extract: extractQuote,
	},
}

func extractUpdate(_ *Parser, raw, _ string, m []string) Intent {
	customerID, ok := canonicalCustomerID(m[1])
	if !ok {
		return Unrecognized{RawText: raw, Reason: ReasonInvalidCustomer, Hint: hintInvalidCustomer}
	}

	field := Field(strings.ToLower(m[2]))
	value := strings.TrimSpace(m[3])
	if field != FieldName {
		// phone and email are single tokens; the name keeps the rest of the line.
		value = strings.Fields(value)[0]
	}

	if field == FieldPhone && !validPhone(value) {
		return Unrecognized{RawText: raw, Reason: ReasonInvalidPhone, Hint: hintInvalidPhone}
	}

	return UpdateCustomer{
		CustomerID: customerID,
		Field:      field,
		Value:      value,
	}
}

func extractQuote(p *Parser, raw, normalized string, _ []string) Intent {
	q := Quote{
		Renewal: renewalPattern.MatchString(normalized),
	}

	if pm := policyTypePattern.FindStringSubmatch(normalized); pm != nil {
		if pt, ok := contractx.ParsePolicyType(pm[1]); ok {
			q.PolicyType = pt
		}
	}

	if candidate := customerCandidateRegex.FindString(normalized); candidate != "" {
		customerID, ok := canonicalCustomerID(candidate)
		if !ok {
			return Unrecognized{RawText: raw, Reason: ReasonInvalidCustomer, Hint: hintInvalidCustomer}
		}
		q.CustomerID = customerID
		return q
	}

	if p != nil && p.defaultCustomerID != "" {
		q.CustomerID = p.defaultCustomerID
		q.AssumedCustomerID = true
	}
	return q
}
