package events

import (
	"context"
	"time"
)

// Event types emitted over the order stream.
const (
	EventOrderCreated   = "order_created"
	EventOrderUpdated   = "order_updated"
	EventOrderCompleted = "order_completed"
	EventOrderCanceled  = "order_canceled"
)

// OrderEvent is the message published on every order status transition.
// Consumers (notification delivery, audit) are external to this service.
type OrderEvent struct {
	EventType       string    `json:"event_type"`
	OrderId         string    `json:"order_id"`
	UserId          string    `json:"user_id"`
	Status          string    `json:"status"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	Amount          string    `json:"amount"`
	RequiredAmount  string    `json:"required_amount"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Publisher is the outbound order event contract.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close()
}

// NoopPublisher discards events; used when Kafka is disabled and in tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error { return nil }

func (NoopPublisher) Close() {}
