package intent

import (
	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

type Kind string

const (
	KindUpdateCustomer Kind = "update_customer"
	KindQuote          Kind = "quote"
	KindUnrecognized   Kind = "unrecognized"
)

type Field string

const (
	FieldPhone Field = "phone"
	FieldName  Field = "name"
	FieldEmail Field = "email"
)

// Intent is one of UpdateCustomer, Quote or Unrecognized.
type Intent interface {
	Kind() Kind
}

type UpdateCustomer struct {
	CustomerID string `json:"customer_id"`
	Field      Field  `json:"field"`
	Value      string `json:"value"`
}

func (UpdateCustomer) Kind() Kind { return KindUpdateCustomer }

// Patch converts the update into a record-store patch.
func (u UpdateCustomer) Patch() contractx.CustomerPatch {
	v := u.Value
	switch u.Field {
	case FieldPhone:
		return contractx.CustomerPatch{Phone: &v}
	case FieldName:
		return contractx.CustomerPatch{Name: &v}
	case FieldEmail:
		return contractx.CustomerPatch{Email: &v}
	default:
		return contractx.CustomerPatch{}
	}
}

type Quote struct {
	CustomerID string               `json:"customer_id,omitempty"`
	PolicyType contractx.PolicyType `json:"policy_type,omitempty"`
	// AssumedCustomerID is set when CustomerID came from the parser's default
	// rather than from the message. Callers should confirm before acting on it.
	AssumedCustomerID bool `json:"assumed_customer_id"`
	Renewal           bool `json:"renewal"`
}

func (Quote) Kind() Kind { return KindQuote }

type Unrecognized struct {
	RawText string `json:"raw_text"`
	Reason  string `json:"reason"`
	Hint    string `json:"hint,omitempty"`
}

func (Unrecognized) Kind() Kind { return KindUnrecognized }

const (
	ReasonNoPattern       = "no recognized command pattern"
	ReasonInvalidCustomer = "invalid customer id format"
	ReasonInvalidPhone    = "invalid phone format"
)

const (
	hintNoPattern       = `Try "update CUST0001 phone 9876543210", "change CUST0002 name Amit Kumar" or "quote car CUST0001".`
	hintInvalidCustomer = `Customer ids look like CUST followed by digits, e.g. CUST0001.`
	hintInvalidPhone    = `Phone numbers must be 10 digits (9876543210) or start with +91 (+919876543210).`
)
