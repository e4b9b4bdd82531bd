package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	openrouterx "github.com/tanpawarit/insurance-copilot/pkg/openrouter"
)

type Purpose string

const (
	PurposeExplain Purpose = "explain"
	PurposeAnswer  Purpose = "answer"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"meta-llama/llama-3.1-8b-instruct"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"300"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true" default:"Insurance Copilot"`

	ExplainModel       string  `envconfig:"EXPLAIN_MODEL" split_words:"true"`
	AnswerModel        string  `envconfig:"ANSWER_MODEL" split_words:"true"`
	ExplainTemperature float32 `envconfig:"EXPLAIN_TEMPERATURE" split_words:"true" default:"-1"`
	AnswerTemperature  float32 `envconfig:"ANSWER_TEMPERATURE" split_words:"true" default:"-1"`
}

// Enabled reports whether an API key was configured. Without one the copilot
// runs fully deterministic.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(purpose Purpose) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch purpose {
	case PurposeExplain:
		if v := strings.TrimSpace(c.ExplainModel); v != "" {
			modelName = v
		}
		if c.ExplainTemperature >= 0 {
			temp = c.ExplainTemperature
		}
	case PurposeAnswer:
		if v := strings.TrimSpace(c.AnswerModel); v != "" {
			modelName = v
		}
		if c.AnswerTemperature >= 0 {
			temp = c.AnswerTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
