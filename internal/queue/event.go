// Package queue defines the order events exchanged over RabbitMQ and the
// in-process consumer that records them.
package queue

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-chatbot/internal/model"
)

// OrderPlacedQueue is the durable queue order.placed events are routed to.
const OrderPlacedQueue = "order.placed"

// OrderPlacedEvent is published after a checkout succeeds.  It carries the
// full order so consumers never need to read the primary database.
type OrderPlacedEvent struct {
	OrderID  uint64            `json:"order_id"`
	DeviceID string            `json:"device_id"`
	Lines    []model.OrderLine `json:"lines"`
	Total    decimal.Decimal   `json:"total"`
	PlacedAt string            `json:"placed_at"`
}

// NewOrderPlacedEvent builds the event payload for o.
func NewOrderPlacedEvent(o model.PlacedOrder) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:  o.ID,
		DeviceID: o.DeviceID,
		Lines:    o.Lines,
		Total:    o.Total(),
		PlacedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
