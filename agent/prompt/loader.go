package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/explain.txt
	explainRaw string

	//go:embed template/answer.txt
	answerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Explain string
	Answer  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Explain: strings.TrimSpace(explainRaw),
		Answer:  strings.TrimSpace(answerRaw),
	}
}
