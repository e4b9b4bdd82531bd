package copilotnode

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/intent"
	"github.com/tanpawarit/insurance-copilot/pkg/metrics"
)

var (
	ErrInvalidMessage = fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	ErrInvalidSession = errors.New("session id is empty")
)

var (
	policyIDPattern   = regexp.MustCompile(`(?i)\bPOL\d+\b`)
	customerIDPattern = regexp.MustCompile(`(?i)\bCUST\d+\b`)
	quoteWordPattern  = regexp.MustCompile(`(?i)\b(quotes?|renew|renewal)\b`)
)

var (
	reminderKeywords = []string{"remind", "whatsapp", "notify"}
	policyKeywords   = []string{"policy", "policies", "coverage", "status", "expiry", "expiring", "expire", "lapsed", "insurer"}
	// statusKeywords pull a customer-less quote match over to policy lookup.
	// "policy" alone is left out so "renew policy POL1007" stays a quote.
	statusKeywords = []string{"policies", "status", "expiry", "expiring", "expire", "lapsed", "insurer"}
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	SessionID string         `json:"session_id"`
	Task      contractx.Task `json:"task"`
	Reply     string         `json:"reply"`
	Data      any            `json:"data,omitempty"`
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Intent intent.Intent
	Task   contractx.Task

	Reply   string
	Data    any
	Summary string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}

func ParseIntent(in *GraphState, parser *intent.Parser) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Intent = parser.Parse(in.Text)
	in.Task = Route(in.Intent, in.Text)
	metrics.IntentsParsed.WithLabelValues(string(in.Intent.Kind())).Inc()
	return in, nil
}

// Route picks the task for an intent. Commands map directly; free text with
// no command pattern falls back to keyword routing. A quote match that names
// no customer is checked against reminder and status keywords first, since
// the quote trigger words also appear in those requests.
func Route(it intent.Intent, text string) contractx.Task {
	lower := strings.ToLower(text)
	switch v := it.(type) {
	case intent.UpdateCustomer:
		return contractx.TaskCRM
	case intent.Quote:
		if v.CustomerID != "" && !v.AssumedCustomerID {
			return contractx.TaskQuote
		}
		if containsAny(lower, reminderKeywords...) {
			return contractx.TaskReminder
		}
		if containsAny(lower, statusKeywords...) {
			return contractx.TaskPolicy
		}
		if policyIDPattern.MatchString(text) && !quoteWordPattern.MatchString(text) {
			return contractx.TaskPolicy
		}
		return contractx.TaskQuote
	case intent.Unrecognized:
		if v.Reason != intent.ReasonNoPattern {
			return contractx.TaskClarify
		}
		if containsAny(lower, reminderKeywords...) {
			return contractx.TaskReminder
		}
		if policyIDPattern.MatchString(text) || containsAny(lower, policyKeywords...) {
			return contractx.TaskPolicy
		}
	}
	return contractx.TaskClarify
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
