package copilotnode

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

var amountPrinter = message.NewPrinter(language.English)

func rupees(v int64) string {
	return amountPrinter.Sprintf("₹%d", v)
}

func rupeesFloat(v float64) string {
	return amountPrinter.Sprintf("₹%.0f", v)
}

func day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func policyLine(p contractx.Policy, now time.Time) string {
	owner := p.CustomerID
	if p.CustomerName != "" {
		owner = p.CustomerName + " (" + p.CustomerID + ")"
	}
	return fmt.Sprintf("%s %s, %s, %s, expires %s", p.ID, p.Type, owner, p.StatusAt(now), day(p.ExpiryDate))
}

func policyList(title string, policies []contractx.Policy, now time.Time) string {
	var b strings.Builder
	b.WriteString(title)
	for _, p := range policies {
		b.WriteString("\n- ")
		b.WriteString(policyLine(p, now))
	}
	return b.String()
}

// withStatus stamps the status derived at now onto each policy.
func withStatus(policies []contractx.Policy, now time.Time) []contractx.Policy {
	out := make([]contractx.Policy, len(policies))
	for i, p := range policies {
		p.Status = p.StatusAt(now)
		out[i] = p
	}
	return out
}
