package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

// Compile-time check: *KafkaPublisher must satisfy Publisher.
var _ Publisher = (*KafkaPublisher)(nil)

type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
}

func NewKafkaPublisher(broker, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": broker,
		"acks":              "all",
		"retries":           3,
		"retry.backoff.ms":  100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &KafkaPublisher{producer: producer, topic: topic, logger: logger}
	go p.drainDeliveryReports()
	return p, nil
}

// drainDeliveryReports logs failed deliveries. Order events are
// best-effort; the order store remains the source of truth.
func (p *KafkaPublisher) drainDeliveryReports() {
	for e := range p.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			p.logger.Error("Order event delivery failed",
				zap.String("key", string(m.Key)),
				zap.Error(m.TopicPartition.Error))
		}
	}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.OrderId),
		Value:          msgBytes,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce order event: %w", err)
	}

	p.logger.Debug("Published order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.OrderId),
		zap.String("status", event.Status))
	return nil
}

func (p *KafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
