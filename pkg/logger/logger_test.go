package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestInitWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, Config{Debug: false, Service: "copilot-test"})
	t.Cleanup(func() { Init() })

	log.Debug().Msg("hidden")
	log.Info().Str("task", "QUOTE").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level: %s", out)
	}
	if !strings.Contains(out, `"service":"copilot-test"`) || !strings.Contains(out, `"task":"QUOTE"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestInitWriterDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, Config{Debug: true})
	t.Cleanup(func() { Init() })

	log.Debug().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug line missing: %s", buf.String())
	}
}
