package activity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

var ErrInvalidSession = errors.New("session id is empty")

const (
	defaultKeyPrefix     = "copilot:activity:"
	defaultTTL           = 7 * 24 * time.Hour
	defaultMaxEntries    = 200
	maxResponseSizeBytes = 2 << 20
)

// Option customizes UpstashLog.
type Option func(*UpstashLog)

func WithKeyPrefix(prefix string) Option {
	return func(s *UpstashLog) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *UpstashLog) {
		s.ttl = ttl
	}
}

// WithMaxEntries caps how many activities are kept per session.
func WithMaxEntries(n int) Option {
	return func(s *UpstashLog) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *UpstashLog) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashLog keeps a per-session activity list in Upstash Redis via REST.
// Newest entries are at the head of the list.
type UpstashLog struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
	maxEntries int
}

var _ contractx.ActivityLog = (*UpstashLog)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Enabled reports whether the REST endpoint and token were configured.
func (c UpstashRedisConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

func NewUpstashLog(cfg UpstashRedisConfig, opts ...Option) (*UpstashLog, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashLog{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultKeyPrefix,
		ttl:        defaultTTL,
		maxEntries: defaultMaxEntries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return store, nil
}

func (s *UpstashLog) Record(ctx context.Context, a contractx.Activity) error {
	key, err := s.redisKey(a.SessionID)
	if err != nil {
		return err
	}
	a = stamp(a)

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	if _, err := s.exec(ctx, []any{"LPUSH", key, string(payload)}); err != nil {
		return err
	}
	if _, err := s.exec(ctx, []any{"LTRIM", key, 0, s.maxEntries - 1}); err != nil {
		return err
	}
	if s.ttl > 0 {
		if _, err := s.exec(ctx, []any{"EXPIRE", key, ttlSeconds(s.ttl)}); err != nil {
			return err
		}
	}
	return nil
}

func (s *UpstashLog) Recent(ctx context.Context, sessionID string, limit int) ([]contractx.Activity, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.maxEntries {
		limit = s.maxEntries
	}

	resp, err := s.exec(ctx, []any{"LRANGE", key, 0, limit - 1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return []contractx.Activity{}, nil
	}

	var encoded []string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode activity list: %w", err)
	}

	out := make([]contractx.Activity, 0, len(encoded))
	for _, item := range encoded {
		var a contractx.Activity
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("unmarshal activity: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *UpstashLog) redisKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.keyPrefix + sessionID, nil
}

func (s *UpstashLog) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil activity log")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

// stamp assigns an id and timestamp when the caller left them empty.
func stamp(a contractx.Activity) contractx.Activity {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	} else {
		a.At = a.At.UTC()
	}
	return a
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
