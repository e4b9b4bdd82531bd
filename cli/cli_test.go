package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tanpawarit/insurance-copilot/agent/premium"
	"github.com/tanpawarit/insurance-copilot/agent/reminder"
	"github.com/tanpawarit/insurance-copilot/agent/store"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	for _, key := range []string{"DATABASE_URL", "LLM_API_KEY", "TWILIO_ACCOUNT_SID", "SNS_REGION", "QSTASH_TOKEN", "UPSTASH_REDIS_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("COPILOT_MESSENGER", "log")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "", "parse", "update", "CUST0007", "phone", "9876543210")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got["kind"] != "update_customer" || got["task"] != "CRM" {
		t.Fatalf("output = %v", got)
	}
}

func TestQuoteCommand(t *testing.T) {
	out, err := run(t, "", "quote", "--type", "car", "--age", "40", "--city", "Delhi", "--claims", "1", "--existing", "8000", "--customer", "CUST0007")
	if err != nil {
		t.Fatalf("quote error = %v", err)
	}
	var q premium.Quote
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if q.ComputedPremium != 13712 || q.Kind != premium.KindRenewal || *q.HikePercent != 71 {
		t.Fatalf("quote = %+v", q)
	}
}

func TestQuoteCommandRejectsUnknownType(t *testing.T) {
	if _, err := run(t, "", "quote", "--type", "boat"); err == nil {
		t.Fatal("expected error for unknown policy type")
	}
}

func TestQuoteCommandRejectsNonFiniteExisting(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		if _, err := run(t, "", "quote", "--type", "car", "--existing="+v); err == nil {
			t.Fatalf("expected error for --existing %s", v)
		}
	}
}

func TestChatCommand(t *testing.T) {
	out, err := run(t, "", "chat", "quote", "health", "CUST0001")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.HasPrefix(out, "[QUOTE] Renewal quote") {
		t.Fatalf("output = %q", out)
	}
}

func TestChatInteractive(t *testing.T) {
	out, err := run(t, "which policies are expiring\nexit\n", "chat")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "[POLICY] 3 policies expire in the next 30 days:") {
		t.Fatalf("output = %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if out != "insurance-copilot dev\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestOpenRemindersFallsBackOnZeroRate(t *testing.T) {
	t.Setenv("REMINDER_RATE_PER_SECOND", "0")
	t.Setenv("REMINDER_BURST", "0")
	t.Setenv("QSTASH_TOKEN", "")
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("SNS_REGION", "")

	a := &app{
		cfg:     AppConfig{Messenger: "log"},
		records: store.NewMemory(store.DemoCustomers(), store.DemoPolicies(time.Now())),
	}
	if err := a.openReminders(context.Background()); err != nil {
		t.Fatalf("openReminders() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		job := reminder.Job{PolicyID: "POL1001", Phone: "+919812345601", Message: "renewal due"}
		if d, err := a.reminders.Deliver(ctx, job); err != nil {
			t.Fatalf("Deliver #%d = %+v, %v", i+1, d, err)
		}
	}
}
