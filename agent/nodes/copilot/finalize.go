package copilotnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

// RecordActivity appends the handled message to the session feed. Feed
// failures are logged and never fail the reply.
func RecordActivity(ctx context.Context, in *GraphState, activities contractx.ActivityLog) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if activities == nil {
		return in, nil
	}

	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		summary = string(in.Task)
	}
	err := activities.Record(ctx, contractx.Activity{
		SessionID: in.SessionID,
		Task:      in.Task,
		Summary:   summary,
		At:        in.Now,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("record activity failed")
	}
	return in, nil
}

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: task %s returned empty reply", contractx.ErrValidation, in.Task)
	}
	return GraphOutput{
		SessionID: in.SessionID,
		Task:      in.Task,
		Reply:     reply,
		Data:      in.Data,
	}, nil
}
