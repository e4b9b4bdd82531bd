package copilot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/intent"
	nodex "github.com/tanpawarit/insurance-copilot/agent/nodes/copilot"
	"github.com/tanpawarit/insurance-copilot/agent/premium"
	"github.com/tanpawarit/insurance-copilot/pkg/metrics"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Reply = nodex.GraphOutput

// Deps are the collaborators behind the copilot. Records is required; the
// rest are optional and the copilot degrades without them.
type Deps struct {
	Records    contractx.RecordStore
	Explainer  contractx.Explainer
	Answerer   contractx.Answerer
	Reminders  nodex.Reminders
	Activities contractx.ActivityLog
}

type Config struct {
	// DefaultCustomerID is used for quote commands that name no customer.
	DefaultCustomerID string `envconfig:"DEFAULT_CUSTOMER_ID" split_words:"true"`
}

type Option func(*Copilot)

func WithClock(now func() time.Time) Option {
	return func(c *Copilot) {
		if now != nil {
			c.now = now
		}
	}
}

type Copilot struct {
	records    contractx.RecordStore
	explainer  contractx.Explainer
	answerer   contractx.Answerer
	reminders  nodex.Reminders
	activities contractx.ActivityLog

	parser *intent.Parser
	engine *premium.Engine

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(deps Deps, cfg Config, opts ...Option) (*Copilot, error) {
	if deps.Records == nil {
		return nil, errors.New("record store is required")
	}

	c := &Copilot{
		records:    deps.Records,
		explainer:  deps.Explainer,
		answerer:   deps.Answerer,
		reminders:  deps.Reminders,
		activities: deps.Activities,
		parser:     intent.NewParser(intent.WithDefaultCustomerID(cfg.DefaultCustomerID)),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.engine = premium.NewEngine(c.now)

	graphRunner, err := c.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.graphRunner = graphRunner

	return c, nil
}

// HandleMessage routes one chat message. An empty sessionID starts a new
// session; the returned reply carries the id to reuse.
func (c *Copilot) HandleMessage(ctx context.Context, sessionID string, text string) (Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	out, err := c.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("handle message failed")
		return Reply{}, err
	}

	metrics.MessagesHandled.WithLabelValues(string(out.Task)).Inc()
	metrics.MessageDuration.WithLabelValues(string(out.Task)).Observe(time.Since(start).Seconds())
	log.Info().Str("session_id", sessionID).Str("task", string(out.Task)).Dur("took", time.Since(start)).Msg("message handled")
	return out, nil
}

// Recent returns the session's latest activity, newest first.
func (c *Copilot) Recent(ctx context.Context, sessionID string, limit int) ([]contractx.Activity, error) {
	if c.activities == nil {
		return []contractx.Activity{}, nil
	}
	return c.activities.Recent(ctx, sessionID, limit)
}
