package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_messages_total",
			Help: "Total number of chat messages handled, by routed task",
		},
		[]string{"task"},
	)

	IntentsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_intents_total",
			Help: "Total number of parsed intents by kind",
		},
		[]string{"kind"},
	)

	QuotesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_quotes_total",
			Help: "Total number of premium quotes computed by kind",
		},
		[]string{"kind"},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copilot_reminders_total",
			Help: "Total number of renewal reminders by delivery status",
		},
		[]string{"status"},
	)

	MessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "copilot_message_duration_seconds",
			Help: "Duration of chat message handling in seconds",
		},
		[]string{"task"},
	)
)
