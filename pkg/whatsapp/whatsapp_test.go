package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"9876543210":          "+919876543210",
		" 98765 43210 ":       "+919876543210",
		"+919876543210":       "+919876543210",
		"whatsapp:9876543210": "+919876543210",
		"+14155238886":        "+14155238886",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSend(t *testing.T) {
	t.Parallel()

	var gotPath, gotUser, gotPass, gotFrom, gotTo, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotFrom = r.PostForm.Get("From")
		gotTo = r.PostForm.Get("To")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"sid":"SM123","status":"queued"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, AccountSID: "AC1", AuthToken: "secret", From: "+14155238886"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	d, err := client.Send(context.Background(), "9876543210", "Hello Asha")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if d.Status != contractx.DeliverySent || d.MessageID != "SM123" || d.Phone != "+919876543210" {
		t.Fatalf("delivery = %+v", d)
	}
	if gotPath != "/2010-04-01/Accounts/AC1/Messages.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotUser != "AC1" || gotPass != "secret" {
		t.Fatalf("basic auth = %q/%q", gotUser, gotPass)
	}
	if gotFrom != "whatsapp:+14155238886" || gotTo != "whatsapp:+919876543210" {
		t.Fatalf("from/to = %q/%q", gotFrom, gotTo)
	}
	if gotBody != "Insurance Copilot\nHello Asha" {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestSendFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":21211,"message":"invalid To number"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, AccountSID: "AC1", AuthToken: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	d, err := client.Send(context.Background(), "123", "hi")
	if !errors.Is(err, contractx.ErrDelivery) {
		t.Fatalf("Send() error = %v, want ErrDelivery", err)
	}
	if d.Status != contractx.DeliveryFailed || d.Error == "" {
		t.Fatalf("delivery = %+v", d)
	}
}

func TestSendLogsUndecodableResponse(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `<html>accepted</html>`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, AccountSID: "AC1", AuthToken: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	d, err := client.Send(context.Background(), "9876543210", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if d.Status != contractx.DeliverySent || d.MessageID != "" {
		t.Fatalf("delivery = %+v", d)
	}
	if !strings.Contains(buf.String(), "decode twilio response") {
		t.Fatalf("log = %q, want decode warning", buf.String())
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "https://api.twilio.com"}); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestLogMessenger(t *testing.T) {
	t.Parallel()

	d, err := LogMessenger{}.Send(context.Background(), "9876543210", "hi")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if d.Status != contractx.DeliverySent || d.Phone != "+919876543210" {
		t.Fatalf("delivery = %+v", d)
	}
}
