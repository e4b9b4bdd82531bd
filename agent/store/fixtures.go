package store

import (
	"time"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

func intPtr(v int) *int { return &v }

// DemoCustomers is the sample book loaded by `migrate --seed` and demo mode.
func DemoCustomers() []contractx.Customer {
	return []contractx.Customer{
		{ID: "CUST0001", Name: "Asha Verma", Phone: "+919812345601", Email: "asha.verma@example.com", Age: intPtr(34), City: "Delhi", ClaimsHistory: intPtr(0)},
		{ID: "CUST0002", Name: "Rohan Mehta", Phone: "+919812345602", Age: intPtr(52), City: "Mumbai", ClaimsHistory: intPtr(2)},
		{ID: "CUST0003", Name: "Priya Nair", Phone: "+919812345603", Email: "priya.nair@example.com", Age: intPtr(27), City: "Bangalore", ClaimsHistory: intPtr(0)},
		{ID: "CUST0004", Name: "Vikram Singh", Phone: "+919812345604", Age: intPtr(45), City: "Jaipur", ClaimsHistory: intPtr(1)},
		{ID: "CUST0005", Name: "Meera Iyer", Phone: "+919812345605", Age: intPtr(61), City: "Chennai", ClaimsHistory: intPtr(3)},
		{ID: "CUST0006", Name: "Arjun Rao", Phone: "+919812345606"},
		{ID: "CUST0007", Name: "Kavya Shah", Phone: "+919812345607", Age: intPtr(40), City: "Delhi", ClaimsHistory: intPtr(1)},
	}
}

// DemoPolicies returns policies whose expiry dates are spread around now so
// every status appears.
func DemoPolicies(now time.Time) []contractx.Policy {
	day := func(offset int) time.Time {
		y, m, d := now.UTC().AddDate(0, 0, offset).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	policies := []contractx.Policy{
		{ID: "POL1001", CustomerID: "CUST0001", Type: contractx.PolicyHealth, Insurer: "Star Health", Premium: 15200, StartDate: day(-345), ExpiryDate: day(20)},
		{ID: "POL1002", CustomerID: "CUST0002", Type: contractx.PolicyLife, Insurer: "LIC", Premium: 11800, StartDate: day(-300), ExpiryDate: day(65)},
		{ID: "POL1003", CustomerID: "CUST0003", Type: contractx.PolicyCar, Insurer: "ICICI Lombard", Premium: 7600, StartDate: day(-370), ExpiryDate: day(-5)},
		{ID: "POL1004", CustomerID: "CUST0004", Type: contractx.PolicyHealth, Insurer: "HDFC Ergo", Premium: 16900, StartDate: day(-358), ExpiryDate: day(7)},
		{ID: "POL1005", CustomerID: "CUST0005", Type: contractx.PolicyLife, Insurer: "Max Life", Premium: 12500, StartDate: day(-200), ExpiryDate: day(165), Status: contractx.StatusLapsed},
		{ID: "POL1006", CustomerID: "CUST0006", Type: contractx.PolicyHealth, Insurer: "Niva Bupa", Premium: 14000, StartDate: day(-100), ExpiryDate: day(265)},
		{ID: "POL1007", CustomerID: "CUST0007", Type: contractx.PolicyCar, Insurer: "Bajaj Allianz", Premium: 8000, StartDate: day(-355), ExpiryDate: day(10)},
	}
	for i := range policies {
		policies[i].Status = policies[i].StatusAt(now)
	}
	return policies
}
