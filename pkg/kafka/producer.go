package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Config holds Kafka configuration
type Config struct {
	Brokers    []string
	AlertTopic string
}

// ParseConfig parses a comma-separated broker string
func ParseConfig(brokers string, alertTopic string) Config {
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	return Config{
		Brokers:    brokerList,
		AlertTopic: alertTopic,
	}
}

// AlertEvent is a threshold breach forwarded to the alert topic. Downstream
// notifiers own delivery (e-mail, paging); fern only publishes.
type AlertEvent struct {
	PlantID       int       `json:"plant_id"`
	PlantName     string    `json:"plant"`
	EmergencyType string    `json:"emergency_type"`
	Reading       float64   `json:"reading"`
	BotanistName  string    `json:"botanist"`
	BotanistEmail string    `json:"botanist_email,omitempty"`
	BotanistPhone string    `json:"phone,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
	Timestamp     time.Time `json:"timestamp"`

	// Tracing
	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}

// Producer publishes alert events to Kafka
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg Config, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		// Allow Kafka to auto-create the topic in dev environments when it doesn't exist yet.
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.AlertTopic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishAlert publishes a single alert event
func (p *Producer) PublishAlert(ctx context.Context, evt *AlertEvent) error {
	ctx, span := tracing.StartSpan(ctx, "Kafka.PublishAlert")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.Int("plant_id", evt.PlantID),
		attribute.String("emergency_type", evt.EmergencyType),
	)

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.TraceID = tracing.GetTraceID(ctx)
	evt.SpanID = tracing.GetSpanID(ctx)

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	key := fmt.Sprintf("%d:%s", evt.PlantID, evt.EmergencyType)
	headers := []kafka.Header{
		{Key: "emergency_type", Value: []byte(evt.EmergencyType)},
	}
	if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}); err != nil {
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish alert event to Kafka topic %s", p.topic)
		return err
	}

	return nil
}
