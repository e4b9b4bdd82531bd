package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/tanpawarit/insurance-copilot/agent/activity"
	copilotagent "github.com/tanpawarit/insurance-copilot/agent/agents/copilot"
	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/llm"
	"github.com/tanpawarit/insurance-copilot/agent/prompt"
	"github.com/tanpawarit/insurance-copilot/agent/reminder"
	"github.com/tanpawarit/insurance-copilot/agent/store"
	configx "github.com/tanpawarit/insurance-copilot/pkg/config"
	openrouterx "github.com/tanpawarit/insurance-copilot/pkg/openrouter"
	"github.com/tanpawarit/insurance-copilot/pkg/postgres"
	"github.com/tanpawarit/insurance-copilot/pkg/qstash"
	"github.com/tanpawarit/insurance-copilot/pkg/sms"
	"github.com/tanpawarit/insurance-copilot/pkg/whatsapp"
)

type AppConfig struct {
	Addr              string        `split_words:"true" default:":8080"`
	DefaultCustomerID string        `envconfig:"DEFAULT_CUSTOMER_ID" split_words:"true"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" split_words:"true" default:"2m"`
	// DemoMode serves the built-in sample book from memory even when a
	// database is configured.
	DemoMode bool `split_words:"true" default:"false"`
	// Messenger is one of auto, whatsapp, sms or log.
	Messenger string `split_words:"true" default:"auto"`
}

type app struct {
	cfg         AppConfig
	records     contractx.RecordStore
	copilot     *copilotagent.Copilot
	reminders   *reminder.Service
	queue       *qstash.Client
	callbackURL string
	db          *bun.DB
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("close database failed")
		}
	}
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := configx.New[AppConfig]("COPILOT")
	if err != nil {
		return nil, err
	}
	a := &app{cfg: *cfg}

	if err := a.openRecords(ctx); err != nil {
		return nil, err
	}

	explainer, answerer, err := newLLM(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.openReminders(ctx); err != nil {
		a.Close()
		return nil, err
	}

	feed, err := newActivityLog()
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := copilotagent.Deps{
		Records:    a.records,
		Reminders:  a.reminders,
		Activities: feed,
	}
	// typed nils must not reach the copilot's optional interfaces
	if explainer != nil {
		deps.Explainer = explainer
	}
	if answerer != nil {
		deps.Answerer = answerer
	}

	a.copilot, err = copilotagent.New(deps, copilotagent.Config{DefaultCustomerID: a.cfg.DefaultCustomerID})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openRecords(ctx context.Context) error {
	dbCfg, err := configx.New[postgres.Config]("DATABASE")
	if err != nil {
		return err
	}

	var records contractx.RecordStore
	if dbCfg.Enabled() && !a.cfg.DemoMode {
		db, err := postgres.Open(ctx, *dbCfg)
		if err != nil {
			return err
		}
		a.db = db
		records = store.NewBunStore(db)
		log.Info().Msg("record store: postgres")
	} else {
		records = store.NewMemory(store.DemoCustomers(), store.DemoPolicies(time.Now()))
		log.Info().Msg("record store: in-memory demo book")
	}

	if a.cfg.CacheTTL > 0 {
		records = store.NewCached(records, a.cfg.CacheTTL)
	}
	a.records = records
	return nil
}

func newLLM(ctx context.Context) (*llm.QuoteExplainer, *llm.Answerer, error) {
	llmCfg, err := configx.New[llm.Config]("LLM")
	if err != nil {
		return nil, nil, err
	}
	if !llmCfg.Enabled() {
		log.Info().Msg("llm disabled: quotes are returned without explanations")
		return nil, nil, nil
	}
	if err := llmCfg.Validate(); err != nil {
		return nil, nil, err
	}

	prompts := prompt.LoadPromptSet()

	explainCfg := llmCfg.OpenRouterFor(llm.PurposeExplain)
	chatModel, err := explainCfg.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	explainer, err := llm.NewQuoteExplainer(ctx, chatModel, prompts.Explain)
	if err != nil {
		return nil, nil, fmt.Errorf("create quote explainer: %w", err)
	}

	answerCfg := llmCfg.OpenRouterFor(llm.PurposeAnswer)
	answerer, err := llm.NewAnswerer(openrouterx.NewClient(answerCfg), answerCfg, prompts.Answer)
	if err != nil {
		return nil, nil, fmt.Errorf("create answerer: %w", err)
	}

	log.Info().Str("explain_model", explainCfg.Model).Str("answer_model", answerCfg.Model).Msg("llm enabled")
	return explainer, answerer, nil
}

func (a *app) openReminders(ctx context.Context) error {
	messenger, err := newMessenger(ctx, a.cfg.Messenger)
	if err != nil {
		return err
	}

	remCfg, err := configx.New[reminder.Config]("REMINDER")
	if err != nil {
		return err
	}
	var opts []reminder.Option

	qCfg, err := configx.New[qstash.Config]("QSTASH")
	if err != nil {
		return err
	}
	if qCfg.Enabled() {
		a.queue, err = qstash.NewClient(*qCfg)
		if err != nil {
			return err
		}
		a.callbackURL = strings.TrimSpace(qCfg.CallbackURL)
		opts = append(opts, reminder.WithQueue(a.queue, a.callbackURL))
		log.Info().Str("callback_url", a.callbackURL).Msg("reminders are queued through qstash")
	}

	a.reminders = reminder.NewService(a.records, messenger, *remCfg, opts...)
	return nil
}

func newMessenger(ctx context.Context, kind string) (contractx.Messenger, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))

	twilioCfg, err := configx.New[whatsapp.Config]("TWILIO")
	if err != nil {
		return nil, err
	}
	snsCfg, err := configx.New[sms.Config]("SNS")
	if err != nil {
		return nil, err
	}

	switch {
	case kind == "whatsapp" || (kind == "auto" && twilioCfg.Enabled()):
		log.Info().Msg("messenger: twilio whatsapp")
		return whatsapp.NewClient(*twilioCfg)
	case kind == "sms" || (kind == "auto" && snsCfg.Enabled()):
		log.Info().Str("region", snsCfg.Region).Msg("messenger: aws sns sms")
		return sms.NewClient(ctx, *snsCfg)
	case kind == "log" || kind == "auto":
		log.Info().Msg("messenger: dry run, reminders are only logged")
		return whatsapp.LogMessenger{}, nil
	default:
		return nil, fmt.Errorf("unknown messenger %q: want auto, whatsapp, sms or log", kind)
	}
}

func newActivityLog() (contractx.ActivityLog, error) {
	redisCfg, err := configx.New[activity.UpstashRedisConfig]("UPSTASH_REDIS")
	if err != nil {
		return nil, err
	}
	if !redisCfg.Enabled() {
		return activity.NewMemoryLog(200), nil
	}
	return activity.NewUpstashLog(*redisCfg)
}
