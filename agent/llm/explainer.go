package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	json "github.com/goccy/go-json"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

// QuoteExplainer turns a computed quote into a short advisor note. It only
// writes prose; every number comes from the quote it is given.
type QuoteExplainer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Explainer = (*QuoteExplainer)(nil)

func NewQuoteExplainer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*QuoteExplainer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: explain prompt", contractx.ErrPromptMissing)
	}
	runner, err := compilePromptModelGraph(ctx, chatModel, systemPrompt, "llm.explain_graph")
	if err != nil {
		return nil, err
	}
	return &QuoteExplainer{runner: runner}, nil
}

func (e *QuoteExplainer) ExplainQuote(ctx context.Context, req contractx.QuoteExplanation) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal quote explanation: %w", err)
	}
	msg, err := e.runner.Invoke(ctx, map[string]any{"input": string(payload)})
	if err != nil {
		return "", fmt.Errorf("%w: explain quote: %v", contractx.ErrModelInvoke, err)
	}
	return messageText(msg)
}

func compilePromptModelGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

func messageText(msg *schema.Message) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrModelInvoke)
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrModelInvoke)
	}
	return text, nil
}
