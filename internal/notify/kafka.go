package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"agromarket-dispatch/internal/logx"
)

// counter is a subset of prometheus.Counter.
type counter interface {
	Inc()
}

// envelope is the wire form of one notification.
type envelope struct {
	Recipient string    `json:"recipient"`
	EventType string    `json:"event_type"`
	Payload   any       `json:"payload"`
	EmittedAt time.Time `json:"emitted_at"`
}

// KafkaNotifier publishes notifications to a Kafka topic.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	logger   logx.Logger
	failures counter
}

// NewKafkaNotifier creates a notifier backed by a Kafka sync producer.
// Returns nil (meaning: caller should fall back to Nop) when brokers are
// not configured.
func NewKafkaNotifier(brokers []string, topic string, logger logx.Logger, failures counter) (*KafkaNotifier, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaNotifier{producer: producer, topic: topic, logger: logger, failures: failures}, nil
}

// Notify publishes one notification. Errors are logged and counted only;
// the state transition that triggered the notification has already committed.
func (n *KafkaNotifier) Notify(ctx context.Context, recipient, eventType string, payload any) {
	env := envelope{
		Recipient: recipient,
		EventType: eventType,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(env)
	if err != nil {
		n.fail(recipient, eventType, err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(recipient),
		Value: sarama.ByteEncoder(value),
	}
	if _, _, err := n.producer.SendMessage(msg); err != nil {
		n.fail(recipient, eventType, err)
	}
}

func (n *KafkaNotifier) fail(recipient, eventType string, err error) {
	if n.failures != nil {
		n.failures.Inc()
	}
	n.logger.Warn("notification dropped",
		logx.String("recipient", recipient),
		logx.String("event_type", eventType),
		logx.Any("err", err),
	)
}

// Close shuts down the underlying producer.
func (n *KafkaNotifier) Close() error {
	if n == nil {
		return nil
	}
	return n.producer.Close()
}

var _ Notifier = (*KafkaNotifier)(nil)
