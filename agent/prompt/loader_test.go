package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	for name, text := range map[string]string{"explain": set.Explain, "answer": set.Answer} {
		if text == "" {
			t.Fatalf("%s prompt is empty", name)
		}
		// System prompts go through an FString template.
		if strings.ContainsAny(text, "{}") {
			t.Fatalf("%s prompt must not contain braces", name)
		}
	}
}
