package api

import (
	"errors"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/premium"
	"github.com/tanpawarit/insurance-copilot/agent/reminder"
	"github.com/tanpawarit/insurance-copilot/pkg/qstash"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	dashboardLimit   = 50
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type sendReminderRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type batchRemindersRequest struct {
	CustomerID string `json:"customer_id"`
}

type dashboardResponse struct {
	Total    int                `json:"total"`
	Date     string             `json:"date"`
	Policies []contractx.Policy `json:"policies"`
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{
		"service": "insurance-copilot",
		"status":  "ok",
	})
}

func (s *Server) handleChat(ctx *fasthttp.RequestCtx) {
	var req chatRequest
	if !decodeBody(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "message is required")
		return
	}

	out, err := s.deps.Copilot.HandleMessage(ctx, req.SessionID, req.Message)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleCustomers(ctx *fasthttp.RequestCtx) {
	customers, err := s.deps.Records.ListCustomers(ctx, queryLimit(ctx, defaultListLimit, maxListLimit))
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, customers)
}

func (s *Server) handlePolicies(ctx *fasthttp.RequestCtx) {
	policies, err := s.deps.Records.ListRecentPolicies(ctx, queryLimit(ctx, defaultListLimit, maxListLimit))
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.withStatus(policies))
}

func (s *Server) handleExpiring(ctx *fasthttp.RequestCtx) {
	now := s.now()
	candidates, err := s.deps.Records.ListExpiring(ctx, now.Add(contractx.ExpiryWindow))
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	expiring := make([]contractx.Policy, 0, len(candidates))
	for _, p := range s.withStatus(candidates) {
		if p.Status == contractx.StatusExpiring {
			expiring = append(expiring, p)
		}
	}
	writeJSON(ctx, fasthttp.StatusOK, expiring)
}

func (s *Server) handleDashboard(ctx *fasthttp.RequestCtx) {
	policies, err := s.deps.Records.ListRecentPolicies(ctx, dashboardLimit)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	policies = s.withStatus(policies)
	writeJSON(ctx, fasthttp.StatusOK, dashboardResponse{
		Total:    len(policies),
		Date:     s.now().UTC().Format(time.DateOnly),
		Policies: policies,
	})
}

func (s *Server) handleQuote(ctx *fasthttp.RequestCtx) {
	var in premium.RatingInput
	if !decodeBody(ctx, &in) {
		return
	}
	if pt, ok := contractx.ParsePolicyType(string(in.PolicyType)); ok {
		in.PolicyType = pt
	}

	q, err := s.deps.Engine.Quote(in)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, q)
}

func (s *Server) handleSendReminder(ctx *fasthttp.RequestCtx) {
	if s.deps.Reminders == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "reminders are not configured")
		return
	}
	var req sendReminderRequest
	if !decodeBody(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "phone and message are required")
		return
	}

	d, err := s.deps.Reminders.Deliver(ctx, reminder.Job{Phone: req.Phone, Message: req.Message})
	if err != nil {
		if errors.Is(err, contractx.ErrDelivery) {
			writeJSON(ctx, fasthttp.StatusBadGateway, d)
			return
		}
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, d)
}

func (s *Server) handleBatchReminders(ctx *fasthttp.RequestCtx) {
	if s.deps.Reminders == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "reminders are not configured")
		return
	}
	var req batchRemindersRequest
	if len(ctx.PostBody()) > 0 && !decodeBody(ctx, &req) {
		return
	}

	res, err := s.deps.Reminders.Dispatch(ctx, strings.ToUpper(strings.TrimSpace(req.CustomerID)))
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, res)
}

// handleReminderWebhook delivers a reminder the queue deferred earlier.
func (s *Server) handleReminderWebhook(ctx *fasthttp.RequestCtx) {
	if s.deps.Reminders == nil || s.deps.Verifier == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "reminder queue is not configured")
		return
	}
	body := ctx.PostBody()
	signature := string(ctx.Request.Header.Peek(qstash.SignatureHeader))
	if err := s.deps.Verifier.Verify(signature, body, s.deps.CallbackURL); err != nil {
		writeError(ctx, fasthttp.StatusUnauthorized, err.Error())
		return
	}

	job, err := reminder.DecodeJob(body)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	d, err := s.deps.Reminders.Deliver(ctx, job)
	if err != nil {
		// a non-2xx answer makes the queue retry the callback
		writeJSON(ctx, fasthttp.StatusBadGateway, d)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, d)
}

func (s *Server) handleActivity(ctx *fasthttp.RequestCtx) {
	sessionID := queryString(ctx, "session_id")
	if sessionID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "session_id is required")
		return
	}
	entries, err := s.deps.Copilot.Recent(ctx, sessionID, queryLimit(ctx, 20, 200))
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, entries)
}

func (s *Server) withStatus(policies []contractx.Policy) []contractx.Policy {
	now := s.now()
	out := make([]contractx.Policy, len(policies))
	for i, p := range policies {
		p.Status = p.StatusAt(now)
		out[i] = p
	}
	return out
}
