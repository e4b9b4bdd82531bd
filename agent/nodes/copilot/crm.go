package copilotnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/intent"
)

func UpdateCustomer(ctx context.Context, in *GraphState, customers contractx.CustomerStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	u, ok := in.Intent.(intent.UpdateCustomer)
	if !ok {
		return nil, fmt.Errorf("%w: crm node got %T", contractx.ErrValidation, in.Intent)
	}

	customer, err := customers.UpdateCustomer(ctx, u.CustomerID, u.Patch())
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			in.Reply = fmt.Sprintf("Customer %s not found.", u.CustomerID)
			in.Summary = "crm update failed: " + u.CustomerID + " not found"
			return in, nil
		}
		return nil, fmt.Errorf("update customer %s: %w", u.CustomerID, err)
	}

	in.Reply = fmt.Sprintf("Updated %s %s to %s.", u.CustomerID, u.Field, u.Value)
	in.Data = customer
	in.Summary = fmt.Sprintf("updated %s %s", u.CustomerID, u.Field)
	return in, nil
}
