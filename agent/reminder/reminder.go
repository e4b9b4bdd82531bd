package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/pkg/metrics"
	"github.com/tanpawarit/insurance-copilot/pkg/qstash"
)

// Queue defers delivery of a reminder payload to a callback URL.
type Queue interface {
	Publish(ctx context.Context, destination string, body []byte, opts qstash.PublishOptions) (string, error)
}

// Job is the payload queued for deferred delivery and accepted back by the
// reminder webhook.
type Job struct {
	PolicyID string `json:"policy_id"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

type Config struct {
	RatePerSecond float64 `split_words:"true" default:"5"`
	Burst         int     `split_words:"true" default:"1"`
}

type Option func(*Service)

// WithQueue sends reminders through a queue that calls back into callbackURL
// instead of messaging inline.
func WithQueue(q Queue, callbackURL string) Option {
	return func(s *Service) {
		if q != nil && strings.TrimSpace(callbackURL) != "" {
			s.queue = q
			s.callbackURL = strings.TrimSpace(callbackURL)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLimiter(l *rate.Limiter) Option {
	return func(s *Service) {
		if l != nil {
			s.limiter = l
		}
	}
}

type Service struct {
	policies    contractx.PolicyStore
	messenger   contractx.Messenger
	limiter     *rate.Limiter
	queue       Queue
	callbackURL string
	now         func() time.Time
}

func NewService(policies contractx.PolicyStore, messenger contractx.Messenger, cfg Config, opts ...Option) *Service {
	ratePerSecond := cfg.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	s := &Service{
		policies:  policies,
		messenger: messenger,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type Result struct {
	Total      int                  `json:"sent_to"`
	Sent       int                  `json:"delivered"`
	Failed     int                  `json:"failed"`
	Targets    []string             `json:"policies"`
	Deliveries []contractx.Delivery `json:"deliveries"`
}

// Message renders the renewal reminder text for a policy.
func Message(p contractx.Policy) string {
	name := strings.TrimSpace(p.CustomerName)
	if name == "" {
		name = "customer"
	}
	return fmt.Sprintf("Hello %s, your %s policy %s expires %s.", name, p.Type, p.ID, p.ExpiryDate.Format(time.DateOnly))
}

// Targets returns the policies that should get a reminder: every expiring
// policy, or only those of customerID when it is set.
func (s *Service) Targets(ctx context.Context, customerID string) ([]contractx.Policy, error) {
	now := s.now()
	customerID = strings.TrimSpace(customerID)

	var (
		candidates []contractx.Policy
		err        error
	)
	if customerID != "" {
		candidates, err = s.policies.ListPolicies(ctx, customerID)
	} else {
		candidates, err = s.policies.ListExpiring(ctx, now.Add(contractx.ExpiryWindow))
	}
	if err != nil {
		return nil, err
	}

	out := make([]contractx.Policy, 0, len(candidates))
	for _, p := range candidates {
		if p.StatusAt(now) == contractx.StatusExpiring {
			out = append(out, p)
		}
	}
	return out, nil
}

// Dispatch sends or queues a reminder for every target. Individual failures
// are recorded in the result and do not stop the batch.
func (s *Service) Dispatch(ctx context.Context, customerID string) (Result, error) {
	targets, err := s.Targets(ctx, customerID)
	if err != nil {
		return Result{}, err
	}

	res := Result{Targets: []string{}, Deliveries: []contractx.Delivery{}}
	for _, p := range targets {
		job := Job{PolicyID: p.ID, Phone: p.CustomerPhone, Message: Message(p)}
		var d contractx.Delivery
		if s.queue != nil {
			d = s.enqueue(ctx, job)
		} else {
			d, _ = s.Deliver(ctx, job)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Total++
		res.Targets = append(res.Targets, p.ID)
		res.Deliveries = append(res.Deliveries, d)
		if d.Status == contractx.DeliveryFailed {
			res.Failed++
		} else {
			res.Sent++
		}
	}

	log.Info().Str("customer_id", customerID).Int("targets", res.Total).Int("failed", res.Failed).Msg("reminders dispatched")
	return res, nil
}

// Deliver sends one reminder now, waiting on the outbound rate limit.
func (s *Service) Deliver(ctx context.Context, job Job) (contractx.Delivery, error) {
	if strings.TrimSpace(job.Phone) == "" {
		d := contractx.Delivery{PolicyID: job.PolicyID, Status: contractx.DeliveryFailed, Error: "missing phone"}
		metrics.RemindersSent.WithLabelValues(string(d.Status)).Inc()
		return d, fmt.Errorf("%w: policy %s has no phone", contractx.ErrInvalidInput, job.PolicyID)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return contractx.Delivery{PolicyID: job.PolicyID, Phone: job.Phone, Status: contractx.DeliveryFailed, Error: err.Error()}, err
	}

	d, err := s.messenger.Send(ctx, job.Phone, job.Message)
	d.PolicyID = job.PolicyID
	if err != nil && d.Status == "" {
		d.Status = contractx.DeliveryFailed
		d.Error = err.Error()
	}
	metrics.RemindersSent.WithLabelValues(string(d.Status)).Inc()
	return d, err
}

func (s *Service) enqueue(ctx context.Context, job Job) contractx.Delivery {
	d := contractx.Delivery{PolicyID: job.PolicyID, Phone: job.Phone, Status: contractx.DeliveryQueued}
	body, err := json.Marshal(job)
	if err == nil {
		d.MessageID, err = s.queue.Publish(ctx, s.callbackURL, body, qstash.PublishOptions{})
	}
	if err != nil {
		log.Warn().Err(err).Str("policy_id", job.PolicyID).Msg("reminder enqueue failed")
		d.Status = contractx.DeliveryFailed
		d.Error = err.Error()
	}
	metrics.RemindersSent.WithLabelValues(string(d.Status)).Inc()
	return d
}

// DecodeJob parses a queued reminder payload.
func DecodeJob(body []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return Job{}, fmt.Errorf("%w: decode reminder job: %v", contractx.ErrInvalidInput, err)
	}
	if strings.TrimSpace(job.Phone) == "" || strings.TrimSpace(job.Message) == "" {
		return Job{}, fmt.Errorf("%w: reminder job needs phone and message", contractx.ErrInvalidInput)
	}
	return job, nil
}
