package copilotnode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/reminder"
)

type Reminders interface {
	Dispatch(ctx context.Context, customerID string) (reminder.Result, error)
}

// SendReminders dispatches renewal reminders, for one customer when the
// message names a CUST id and for every expiring policy otherwise.
func SendReminders(ctx context.Context, in *GraphState, reminders Reminders) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if reminders == nil {
		in.Reply = "Reminders are not configured."
		in.Summary = "reminders unavailable"
		return in, nil
	}

	customerID := strings.ToUpper(customerIDPattern.FindString(in.Text))
	res, err := reminders.Dispatch(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("dispatch reminders: %w", err)
	}
	in.Data = res

	scope := ""
	if customerID != "" {
		scope = " for " + customerID
	}
	if res.Total == 0 {
		in.Reply = "No expiring policies need a reminder" + scope + "."
		in.Summary = "no reminders" + scope
		return in, nil
	}

	var sent, queued, failed int
	for _, d := range res.Deliveries {
		switch d.Status {
		case contractx.DeliverySent:
			sent++
		case contractx.DeliveryQueued:
			queued++
		default:
			failed++
		}
	}
	in.Reply = fmt.Sprintf("Renewal reminders%s: %d sent, %d queued, %d failed (%s).",
		scope, sent, queued, failed, strings.Join(res.Targets, ", "))
	in.Summary = fmt.Sprintf("reminders%s: %d sent, %d queued, %d failed", scope, sent, queued, failed)
	return in, nil
}
