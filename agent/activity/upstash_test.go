package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

func TestUpstashLogRedisKey(t *testing.T) {
	t.Parallel()

	store := &UpstashLog{keyPrefix: defaultKeyPrefix}
	got, err := store.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "copilot:activity:abc" {
		t.Fatalf("redisKey() = %q", got)
	}
	if _, err := store.redisKey("  "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidSession", err)
	}
}

func TestUpstashLogRecordCommands(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		commands [][]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("authorization = %q", got)
		}
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
		}
		mu.Lock()
		commands = append(commands, cmd)
		mu.Unlock()
		fmt.Fprint(w, `{"result":1}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashLog(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
		WithMaxEntries(50),
		WithTTL(time.Hour),
	)
	if err != nil {
		t.Fatalf("NewUpstashLog() error = %v", err)
	}

	err = store.Record(context.Background(), contractx.Activity{SessionID: "s1", Task: contractx.TaskQuote, Summary: "quote Q2610-CUST0001"})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(commands) != 3 {
		t.Fatalf("got %d commands, want 3", len(commands))
	}
	if commands[0][0] != "LPUSH" || commands[0][1] != "copilot:activity:s1" {
		t.Fatalf("command[0] = %#v", commands[0])
	}
	var pushed contractx.Activity
	if err := json.Unmarshal([]byte(commands[0][2].(string)), &pushed); err != nil {
		t.Fatalf("decode pushed activity: %v", err)
	}
	if pushed.ID == "" || pushed.At.IsZero() {
		t.Fatalf("pushed activity not stamped: %+v", pushed)
	}
	if commands[1][0] != "LTRIM" || commands[1][3] != float64(49) {
		t.Fatalf("command[1] = %#v", commands[1])
	}
	if commands[2][0] != "EXPIRE" || commands[2][2] != float64(3600) {
		t.Fatalf("command[2] = %#v", commands[2])
	}
}

func TestUpstashLogRecent(t *testing.T) {
	t.Parallel()

	first, _ := json.Marshal(contractx.Activity{ID: "a2", SessionID: "s1", Task: contractx.TaskCRM, Summary: "updated CUST0007 phone"})
	second, _ := json.Marshal(contractx.Activity{ID: "a1", SessionID: "s1", Task: contractx.TaskQuote, Summary: "quote"})
	result, _ := json.Marshal(map[string]any{"result": []string{string(first), string(second)}})

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		_ = json.NewDecoder(r.Body).Decode(&gotCommand)
		_, _ = w.Write(result)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashLog(UpstashRedisConfig{URL: server.URL, Token: "token"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewUpstashLog() error = %v", err)
	}

	got, err := store.Recent(context.Background(), "s1", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "a2" || got[1].Task != contractx.TaskQuote {
		t.Fatalf("Recent() = %+v", got)
	}
	if gotCommand[0] != "LRANGE" || gotCommand[3] != float64(1) {
		t.Fatalf("command = %#v", gotCommand)
	}
}

func TestUpstashLogRecentEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":[]}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashLog(UpstashRedisConfig{URL: server.URL, Token: "token"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewUpstashLog() error = %v", err)
	}
	got, err := store.Recent(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Recent() = %+v, want empty", got)
	}
}

func TestUpstashLogRedisError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"WRONGTYPE Operation against a key holding the wrong kind of value"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashLog(UpstashRedisConfig{URL: server.URL, Token: "token"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewUpstashLog() error = %v", err)
	}
	if err := store.Record(context.Background(), contractx.Activity{SessionID: "s1"}); err == nil {
		t.Fatal("expected redis error")
	}
}

func TestNewUpstashLogValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashLog(UpstashRedisConfig{Token: "t"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewUpstashLog(UpstashRedisConfig{URL: "https://x.upstash.io"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewUpstashLog(UpstashRedisConfig{URL: "https://x.upstash.io", Token: "t"}, WithTTL(-time.Second)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestMemoryLog(t *testing.T) {
	t.Parallel()

	log := NewMemoryLog(2)
	ctx := context.Background()
	for _, summary := range []string{"one", "two", "three"} {
		if err := log.Record(ctx, contractx.Activity{SessionID: "s1", Summary: summary}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	got, err := log.Recent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].Summary != "three" || got[1].Summary != "two" {
		t.Fatalf("Recent() = %+v", got)
	}
	if err := log.Record(ctx, contractx.Activity{}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Record() error = %v, want ErrInvalidSession", err)
	}
}
