package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/IBM/sarama"
)

// Topics for premium order lifecycle events. Consumed by the platform's
// notification fan-out, which is outside this service.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderCompleted = "order.completed"
	TopicOrderFailed    = "order.failed"
	TopicOrderCancelled = "order.cancelled"
)

// OrderEvent is the wire form of a lifecycle event
type OrderEvent struct {
	OrderID      string             `json:"order_id"`
	OwnerID      string             `json:"owner_id"`
	Package      string             `json:"package"`
	Price        int64              `json:"price"`
	Status       domain.OrderStatus `json:"status"`
	RefundAmount *int64             `json:"refund_amount,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// OrderProducer publishes order lifecycle events
type OrderProducer interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
	PublishOrderCompleted(ctx context.Context, order domain.Order) error
	PublishOrderFailed(ctx context.Context, order domain.Order) error
	PublishOrderCancelled(ctx context.Context, order domain.Order) error
	Close() error
}

type kafkaOrderProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewOrderProducer creates a synchronous Kafka producer for order events
func NewOrderProducer(brokers []string, log *logger.Logger) (OrderProducer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are not configured")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)
	return &kafkaOrderProducer{producer: producer, log: log}, nil
}

// PublishOrderCreated publishes an order.created event
func (p *kafkaOrderProducer) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return p.publishEvent(ctx, TopicOrderCreated, order)
}

// PublishOrderCompleted publishes an order.completed event
func (p *kafkaOrderProducer) PublishOrderCompleted(ctx context.Context, order domain.Order) error {
	return p.publishEvent(ctx, TopicOrderCompleted, order)
}

// PublishOrderFailed publishes an order.failed event
func (p *kafkaOrderProducer) PublishOrderFailed(ctx context.Context, order domain.Order) error {
	return p.publishEvent(ctx, TopicOrderFailed, order)
}

// PublishOrderCancelled publishes an order.cancelled event
func (p *kafkaOrderProducer) PublishOrderCancelled(ctx context.Context, order domain.Order) error {
	return p.publishEvent(ctx, TopicOrderCancelled, order)
}

// Close closes the underlying producer
func (p *kafkaOrderProducer) Close() error {
	return p.producer.Close()
}

func (p *kafkaOrderProducer) publishEvent(ctx context.Context, topic string, order domain.Order) error {
	event := OrderEvent{
		OrderID:      order.ID.String(),
		OwnerID:      order.OwnerID,
		Package:      order.Package,
		Price:        order.Price,
		Status:       order.Status,
		RefundAmount: order.RefundAmount,
		Timestamp:    time.Now(),
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal order event: %w", err)
	}

	// Keyed by order id so all events of one order land in one partition
	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(topic)},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.Errorw("Failed to publish order event", "error", err, "topic", topic, "orderID", event.OrderID)
		return fmt.Errorf("kafka: send message: %w", err)
	}

	p.log.Debugw("Published order event", "topic", topic, "orderID", event.OrderID, "partition", partition, "offset", offset)
	return nil
}

// NoopOrderProducer discards events, used when Kafka is not configured
type NoopOrderProducer struct{}

func (NoopOrderProducer) PublishOrderCreated(context.Context, domain.Order) error   { return nil }
func (NoopOrderProducer) PublishOrderCompleted(context.Context, domain.Order) error { return nil }
func (NoopOrderProducer) PublishOrderFailed(context.Context, domain.Order) error    { return nil }
func (NoopOrderProducer) PublishOrderCancelled(context.Context, domain.Order) error { return nil }
func (NoopOrderProducer) Close() error                                              { return nil }
