// Package metrics registers the Prometheus collectors of the chat service.
// Every recorder is nil-safe so components can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChatMetrics counts conversation traffic.
type ChatMetrics struct {
	messages *prometheus.CounterVec
	sessions prometheus.Gauge
	placed   prometheus.Counter
}

// NewChatMetrics registers the chat metrics on the provided registerer.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	if reg == nil {
		return &ChatMetrics{}
	}
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Inbound chat messages by outcome.",
	}, []string{"outcome"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_sessions",
		Help: "Connections currently holding a session context.",
	})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_orders_placed_total",
		Help: "Orders placed through checkout.",
	})
	reg.MustRegister(messages, sessions, placed)
	return &ChatMetrics{messages: messages, sessions: sessions, placed: placed}
}

// ObserveMessage counts one inbound message with the given outcome label.
func (m *ChatMetrics) ObserveMessage(outcome string) {
	if m == nil || m.messages == nil {
		return
	}
	if outcome == "" {
		outcome = "ok"
	}
	m.messages.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the active session gauge.
func (m *ChatMetrics) SessionOpened() {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *ChatMetrics) SessionClosed() {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Dec()
}

// OrderPlaced increments the placed orders counter.
func (m *ChatMetrics) OrderPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}
