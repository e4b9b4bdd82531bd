package intent

import (
	"regexp"
	"strings"
)

var (
	customerIDPattern = regexp.MustCompile(`^CUST\d+$`)
	tenDigitPattern   = regexp.MustCompile(`^\d{10}$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

const indiaCountryCode = "+91"

type Option func(*Parser)

// WithDefaultCustomerID sets the id used when a quote command names no
// customer. Quotes built from it are flagged AssumedCustomerID.
func WithDefaultCustomerID(id string) Option {
	return func(p *Parser) {
		p.defaultCustomerID = strings.ToUpper(strings.TrimSpace(id))
	}
}

// Parser turns chat text into an Intent. The zero value is ready to use.
type Parser struct {
	defaultCustomerID string
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

var defaultParser = &Parser{}

// Parse uses a parser without a default customer id.
func Parse(text string) Intent {
	return defaultParser.Parse(text)
}

// Parse applies the rule table in order; the first matching rule wins.
// It never fails: malformed input yields Unrecognized.
func (p *Parser) Parse(text string) Intent {
	normalized := normalize(text)
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		return r.extract(p, text, normalized, m)
	}
	return Unrecognized{RawText: text, Reason: ReasonNoPattern, Hint: hintNoPattern}
}

func normalize(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// canonicalCustomerID upper-cases and strips trailing punctuation, then checks
// the CUST<digits> shape.
func canonicalCustomerID(raw string) (string, bool) {
	id := strings.ToUpper(strings.TrimRight(raw, ".,;:!?"))
	return id, customerIDPattern.MatchString(id)
}

func validPhone(value string) bool {
	return tenDigitPattern.MatchString(value) || strings.HasPrefix(value, indiaCountryCode)
}
