package copilot

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	nodex "github.com/tanpawarit/insurance-copilot/agent/nodes/copilot"
)

const (
	nodeCRM      = "crm_update"
	nodeQuote    = "quote"
	nodePolicy   = "policy_lookup"
	nodeReminder = "reminder"
	nodeClarify  = "clarify"
)

var taskNodes = map[contractx.Task]string{
	contractx.TaskCRM:      nodeCRM,
	contractx.TaskQuote:    nodeQuote,
	contractx.TaskPolicy:   nodePolicy,
	contractx.TaskReminder: nodeReminder,
	contractx.TaskClarify:  nodeClarify,
}

func (c *Copilot) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, c.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("parse_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ParseIntent(in, c.parser)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node parse_intent: %w", err)
	}

	taskLambdas := map[string]func(context.Context, *nodex.GraphState) (*nodex.GraphState, error){
		nodeCRM: func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.UpdateCustomer(ctx, in, c.records)
		},
		nodeQuote: func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Quote(ctx, in, nodex.QuoteDeps{Records: c.records, Engine: c.engine, Explainer: c.explainer})
		},
		nodePolicy: func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LookupPolicy(ctx, in, c.records)
		},
		nodeReminder: func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SendReminders(ctx, in, c.reminders)
		},
		nodeClarify: func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Clarify(ctx, in, c.answerer)
		},
	}
	for _, name := range []string{nodeCRM, nodeQuote, nodePolicy, nodeReminder, nodeClarify} {
		if err := graph.AddLambdaNode(name, compose.InvokableLambda(taskLambdas[name])); err != nil {
			return nil, fmt.Errorf("add node %s: %w", name, err)
		}
	}

	if err := graph.AddLambdaNode("record_activity",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordActivity(ctx, in, c.activities)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_activity: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	endNodes := map[string]bool{}
	for _, name := range taskNodes {
		endNodes[name] = true
	}
	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if name, ok := taskNodes[in.Task]; ok {
				return name, nil
			}
			return nodeClarify, nil
		},
		endNodes,
	)
	if err := graph.AddBranch("parse_intent", branch); err != nil {
		return nil, fmt.Errorf("add task branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "parse_intent"},
		{nodeCRM, "record_activity"},
		{nodeQuote, "record_activity"},
		{nodePolicy, "record_activity"},
		{nodeReminder, "record_activity"},
		{nodeClarify, "record_activity"},
		{"record_activity", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("copilot.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile copilot graph: %w", err)
	}
	return runner, nil
}
