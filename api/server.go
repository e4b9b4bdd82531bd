package api

import (
	"context"
	"errors"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	copilotagent "github.com/tanpawarit/insurance-copilot/agent/agents/copilot"
	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/premium"
	"github.com/tanpawarit/insurance-copilot/agent/reminder"
)

type Copilot interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (copilotagent.Reply, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]contractx.Activity, error)
}

type Reminders interface {
	Dispatch(ctx context.Context, customerID string) (reminder.Result, error)
	Deliver(ctx context.Context, job reminder.Job) (contractx.Delivery, error)
}

// Verifier checks a queue callback signature against the raw body.
type Verifier interface {
	Verify(signature string, body []byte, destination string) error
}

type Deps struct {
	Copilot   Copilot
	Records   contractx.RecordStore
	Engine    *premium.Engine
	Reminders Reminders
	Verifier  Verifier
	// CallbackURL is the public URL of the reminder webhook; the queue signs
	// it into every callback.
	CallbackURL string
}

type Server struct {
	deps    Deps
	metrics fasthttp.RequestHandler
	now     func() time.Time
}

type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func New(deps Deps, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		metrics: fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.deps.Engine == nil {
		s.deps.Engine = premium.NewEngine(s.now)
	}
	return s
}

// Handler routes requests by method and path.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		method := string(ctx.Method())
		path := string(ctx.Path())

		switch method + " " + path {
		case "GET /":
			s.handleStatus(ctx)
		case "POST /chat":
			s.handleChat(ctx)
		case "GET /customers":
			s.handleCustomers(ctx)
		case "GET /policies":
			s.handlePolicies(ctx)
		case "GET /expiring":
			s.handleExpiring(ctx)
		case "GET /crm-dashboard":
			s.handleDashboard(ctx)
		case "POST /quote":
			s.handleQuote(ctx)
		case "POST /send-reminder":
			s.handleSendReminder(ctx)
		case "POST /batch-reminders":
			s.handleBatchReminders(ctx)
		case "POST /webhooks/reminder":
			s.handleReminderWebhook(ctx)
		case "GET /activity":
			s.handleActivity(ctx)
		case "GET /metrics":
			s.metrics(ctx)
		default:
			writeError(ctx, fasthttp.StatusNotFound, "route not found")
		}

		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", ctx.Response.StatusCode()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "insurance-copilot",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("http server shutting down")
		return srv.ShutdownWithContext(context.Background())
	}
}

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encode response failed")
		status = fasthttp.StatusInternalServerError
		body = []byte(`{"status":500,"message":"encode response failed"}`)
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, errorResponse{Status: status, Message: message})
}

// writeFailure maps a collaborator error onto an HTTP status.
func writeFailure(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, contractx.ErrInvalidInput):
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, contractx.ErrValidation):
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
	case errors.Is(err, contractx.ErrNotFound):
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
	case errors.Is(err, contractx.ErrDelivery):
		writeError(ctx, fasthttp.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Str("path", string(ctx.Path())).Msg("request failed")
		writeError(ctx, fasthttp.StatusInternalServerError, "internal error")
	}
}

func decodeBody(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func queryLimit(ctx *fasthttp.RequestCtx, def, ceiling int) int {
	n, err := ctx.QueryArgs().GetUint("limit")
	if err != nil || n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

func queryString(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}
