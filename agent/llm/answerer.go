package llm

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	openrouterx "github.com/tanpawarit/insurance-copilot/pkg/openrouter"
)

// Answerer handles free-text questions the deterministic router could not
// place, using a plain chat completion.
type Answerer struct {
	client       *openaisdk.Client
	model        string
	temperature  float32
	maxTokens    int
	systemPrompt string
}

var _ contractx.Answerer = (*Answerer)(nil)

func NewAnswerer(client *openaisdk.Client, cfg openrouterx.Config, systemPrompt string) (*Answerer, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: answer prompt", contractx.ErrPromptMissing)
	}
	maxTokens := 0
	if cfg.MaxCompletionToken != nil {
		maxTokens = *cfg.MaxCompletionToken
	}
	return &Answerer{
		client:       client,
		model:        strings.TrimSpace(cfg.Model),
		temperature:  cfg.Temperature,
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}, nil
}

func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty question", contractx.ErrValidation)
	}

	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(a.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(a.systemPrompt),
			openaisdk.UserMessage(question),
		},
		Temperature: openaisdk.Float(float64(a.temperature)),
	}
	if a.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(a.maxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: answer: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", contractx.ErrModelInvoke)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrModelInvoke)
	}
	return text, nil
}
