package copilotnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/intent"
)

const capabilities = "I can update customer details, generate quotes, look up policies and send renewal reminders."

// Clarify answers messages no task could take. Malformed commands get the
// parser's reason and hint; other free text goes to the answerer when one is
// configured.
func Clarify(ctx context.Context, in *GraphState, answerer contractx.Answerer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	u, ok := in.Intent.(intent.Unrecognized)
	if !ok {
		u = intent.Unrecognized{RawText: in.Text, Reason: intent.ReasonNoPattern}
	}
	in.Data = u

	if u.Reason != intent.ReasonNoPattern {
		in.Reply = capitalize(u.Reason) + ". " + u.Hint
		in.Summary = "clarify: " + u.Reason
		return in, nil
	}

	if answerer != nil {
		answer, err := answerer.Answer(ctx, in.Text)
		if err == nil {
			in.Reply = answer
			in.Summary = "answered free-text question"
			return in, nil
		}
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("answerer failed, using hint")
	}

	in.Reply = capabilities + " " + u.Hint
	in.Summary = "clarify: " + u.Reason
	return in, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
