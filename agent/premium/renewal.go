package premium

import "time"

const (
	renewalTenureDays = 365
	QuoteValidityDays = 15
)

type RenewalTerms struct {
	RenewalStart time.Time `json:"renewal_start"`
	RenewalEnd   time.Time `json:"renewal_end"`
	ValidUntil   time.Time `json:"valid_until"`
}

// Terms returns the renewal window that follows a policy expiring on expiry,
// and how long a quote issued at issued stays valid.
func Terms(expiry, issued time.Time) RenewalTerms {
	start := expiry.AddDate(0, 0, 1)
	return RenewalTerms{
		RenewalStart: start,
		RenewalEnd:   start.AddDate(0, 0, renewalTenureDays),
		ValidUntil:   issued.AddDate(0, 0, QuoteValidityDays),
	}
}
