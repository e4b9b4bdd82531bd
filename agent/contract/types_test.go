package contract

import (
	"testing"
	"time"
)

func TestParsePolicyType(t *testing.T) {
	t.Parallel()

	cases := map[string]PolicyType{
		"health":   PolicyHealth,
		" Life ":   PolicyLife,
		"CAR":      PolicyCar,
		"vehicle":  PolicyCar,
		"Motor":    PolicyCar,
		"property": "",
		"":         "",
	}
	for raw, want := range cases {
		got, ok := ParsePolicyType(raw)
		if got != want {
			t.Fatalf("ParsePolicyType(%q) = %q, want %q", raw, got, want)
		}
		if ok != (want != "") {
			t.Fatalf("ParsePolicyType(%q) ok = %v", raw, ok)
		}
	}
}

func TestPolicyTypeAliasesRoundTrip(t *testing.T) {
	t.Parallel()

	for _, pt := range []PolicyType{PolicyHealth, PolicyLife, PolicyCar} {
		for _, a := range pt.Aliases() {
			if got, ok := ParsePolicyType(a); !ok || got != pt {
				t.Fatalf("ParsePolicyType(%q) = %q, %v, want %q", a, got, ok, pt)
			}
		}
	}
	if got := PolicyCar.Aliases(); len(got) != 4 || got[1] != "vehicle" {
		t.Fatalf("Car aliases = %v", got)
	}
}

func TestPolicyStatusAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	cases := []struct {
		name   string
		policy Policy
		want   PolicyStatus
	}{
		{name: "expired yesterday", policy: Policy{ExpiryDate: day(-1)}, want: StatusExpired},
		{name: "expires today", policy: Policy{ExpiryDate: day(0)}, want: StatusExpiring},
		{name: "expires in 30 days", policy: Policy{ExpiryDate: day(30)}, want: StatusExpiring},
		{name: "expires in 31 days", policy: Policy{ExpiryDate: day(31)}, want: StatusActive},
		{name: "lapsed is sticky", policy: Policy{ExpiryDate: day(200), Status: StatusLapsed}, want: StatusLapsed},
		{name: "stored active recomputed", policy: Policy{ExpiryDate: day(-10), Status: StatusActive}, want: StatusExpired},
	}
	for _, tc := range cases {
		if got := tc.policy.StatusAt(now); got != tc.want {
			t.Fatalf("%s: StatusAt() = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestCustomerPatchIsEmpty(t *testing.T) {
	t.Parallel()

	if !(CustomerPatch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
	email := "a@b.co"
	if (CustomerPatch{Email: &email}).IsEmpty() {
		t.Fatal("patch with email should not be empty")
	}
}
