package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher writes search events as JSON keyed by search id.
type KafkaPublisher struct {
	writer  MessageWriter
	brokers []string
	topic   string
	logger  *zap.Logger
}

// NewKafkaPublisher creates a publisher backed by a kafka-go writer.
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, cfg.Brokers, cfg.Topic, logger), nil
}

func newKafkaPublisher(w MessageWriter, brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer:  w,
		brokers: brokers,
		topic:   topic,
		logger:  logger.With(zap.String("topic", topic)),
	}
}

// Publish writes ev to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, ev SearchEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal search event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.SearchID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "state", Value: []byte(ev.State)},
		},
		Time: ev.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write search event %s: %w", ev.SearchID, err)
	}
	p.logger.Debug("search event published",
		zap.String("search_id", ev.SearchID),
		zap.String("state", ev.State),
	)
	return nil
}

// Ping dials the first reachable broker.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	var lastErr error
	for _, b := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("kafka: no broker reachable: %w", lastErr)
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
