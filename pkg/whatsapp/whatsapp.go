package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

const (
	// BodyPrefix heads every WhatsApp message the copilot sends.
	BodyPrefix           = "Insurance Copilot\n"
	maxResponseSizeBytes = 1 << 20
)

type Config struct {
	BaseURL    string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.twilio.com"`
	AccountSID string        `envconfig:"ACCOUNT_SID" split_words:"true"`
	AuthToken  string        `envconfig:"AUTH_TOKEN" split_words:"true"`
	From       string        `envconfig:"WHATSAPP_FROM" split_words:"true" default:"+14155238886"`
	Timeout    time.Duration `split_words:"true" default:"10s"`
}

// Enabled reports whether Twilio credentials were configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.AccountSID) != "" && strings.TrimSpace(c.AuthToken) != ""
}

type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

var _ contractx.Messenger = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid twilio base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: strings.TrimSpace(cfg.AccountSID),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		from:       NormalizePhone(cfg.From),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type messageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Message      string `json:"message"`
}

// Send posts a WhatsApp message through the Twilio Messages API. Transport and
// API failures come back as a failed Delivery together with ErrDelivery.
func (c *Client) Send(ctx context.Context, phone string, body string) (contractx.Delivery, error) {
	to := NormalizePhone(phone)
	delivery := contractx.Delivery{Phone: to, Status: contractx.DeliveryFailed}

	form := url.Values{}
	form.Set("From", "whatsapp:"+c.from)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", BodyPrefix+body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(delivery, fmt.Errorf("build twilio request: %w", err))
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(delivery, fmt.Errorf("execute twilio request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return c.fail(delivery, fmt.Errorf("read twilio response: %w", err))
	}

	var parsed messageResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := parsed.Message
		if msg == "" {
			msg = string(raw)
		}
		return c.fail(delivery, fmt.Errorf("twilio http status=%d: %s", resp.StatusCode, msg))
	}
	if decodeErr != nil {
		// Twilio accepted the message; only the sid is lost.
		log.Warn().Err(decodeErr).Str("to", to).Int("http_status", resp.StatusCode).Msg("decode twilio response")
	}
	if parsed.ErrorMessage != "" {
		return c.fail(delivery, errors.New(parsed.ErrorMessage))
	}

	delivery.Status = contractx.DeliverySent
	delivery.MessageID = parsed.SID
	log.Info().Str("to", to).Str("sid", parsed.SID).Str("twilio_status", parsed.Status).Msg("whatsapp message sent")
	return delivery, nil
}

func (c *Client) fail(d contractx.Delivery, err error) (contractx.Delivery, error) {
	d.Error = err.Error()
	log.Warn().Err(err).Str("to", d.Phone).Msg("whatsapp message failed")
	return d, fmt.Errorf("%w: %v", contractx.ErrDelivery, err)
}

// NormalizePhone turns a bare 10-digit Indian number into +91 form. Anything
// else is returned trimmed and without inner spaces.
func NormalizePhone(phone string) string {
	p := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	p = strings.TrimPrefix(p, "whatsapp:")
	if len(p) == 10 && isDigits(p) {
		return "+91" + p
	}
	return p
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// LogMessenger logs messages instead of sending them.
type LogMessenger struct{}

var _ contractx.Messenger = LogMessenger{}

func (LogMessenger) Send(ctx context.Context, phone string, body string) (contractx.Delivery, error) {
	to := NormalizePhone(phone)
	log.Info().Str("to", to).Str("body", BodyPrefix+body).Msg("dry run: message not sent")
	return contractx.Delivery{Phone: to, Status: contractx.DeliverySent, MessageID: "dry-run"}, nil
}
